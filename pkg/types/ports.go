package pkgtypes

import "context"

type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}

type EnvelopeHandler func(ctx context.Context, env *Envelope) error
