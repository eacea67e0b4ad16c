package bus

import (
	"context"
	"sync"
	"time"

	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgkafka "github.com/k-code-yt/saga-choreography/pkg/kafka"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

type record struct {
	key     []byte
	payload []byte
}

type subscription struct {
	participant pkgconstants.Participant
	handler     pkgtypes.EnvelopeHandler
	cursor      int
}

// Bus is a single-partition in-process event log. Envelopes go through the same
// MsgEncoder as on Kafka. Every subscriber has its own cursor, which only advances
// once its handler returned nil, so a failed delivery is retried on the next Drain.
type Bus struct {
	mu       sync.Mutex
	drainMu  sync.Mutex
	encoder  pkgkafka.MsgEncoder
	log      []record
	subs     []*subscription
	notifyCH chan struct{}
}

func New(encoder pkgkafka.MsgEncoder) *Bus {
	return &Bus{
		encoder:  encoder,
		notifyCH: make(chan struct{}, 1),
	}
}

func (b *Bus) Publish(_ context.Context, env *pkgtypes.Envelope) error {
	payload, err := b.encoder.Encode(env)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.log = append(b.log, record{key: env.Key(), payload: payload})
	b.mu.Unlock()

	select {
	case b.notifyCH <- struct{}{}:
	default:
	}
	return nil
}

func (b *Bus) Subscribe(participant pkgconstants.Participant, handler pkgtypes.EnvelopeHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, &subscription{participant: participant, handler: handler})
}

// Drain delivers until every subscriber has caught up with the log, including events
// published while draining. It stops at the first handler error.
func (b *Bus) Drain(ctx context.Context) error {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	for {
		progressed := false
		for _, sub := range b.subscriptions() {
			rec, offset, ok := b.next(sub)
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			env, err := b.encoder.Decode(rec.payload)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"PARTICIPANT": sub.participant,
					"OFFSET":      offset,
				}).Warnf("DECODE:SKIPPED %v", err)
			} else if err := sub.handler(ctx, env); err != nil {
				return err
			}

			b.mu.Lock()
			sub.cursor = offset + 1
			b.mu.Unlock()
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

// Rewind moves a participant's cursor back, as a consumer restart from an older offset would.
func (b *Bus) Rewind(participant pkgconstants.Participant, offset int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.participant == participant && offset < sub.cursor {
			sub.cursor = max(offset, 0)
		}
	}
}

func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.log)
}

// Events decodes the whole log, in order.
func (b *Bus) Events() ([]*pkgtypes.Envelope, error) {
	b.mu.Lock()
	records := append([]record(nil), b.log...)
	b.mu.Unlock()

	out := make([]*pkgtypes.Envelope, 0, len(records))
	for _, rec := range records {
		env, err := b.encoder.Decode(rec.payload)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// Run drains on every publish until ctx is done. A failed delivery is retried after retryDelay.
func (b *Bus) Run(ctx context.Context, retryDelay time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.notifyCH:
		}

		for {
			err := b.Drain(ctx)
			if err == nil || ctx.Err() != nil {
				break
			}
			logrus.WithError(err).Warn("BUS:DRAIN:RETRY")
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
		}
	}
}

func (b *Bus) subscriptions() []*subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*subscription(nil), b.subs...)
}

func (b *Bus) next(sub *subscription) (record, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.cursor >= len(b.log) {
		return record{}, 0, false
	}
	return b.log[sub.cursor], sub.cursor, true
}
