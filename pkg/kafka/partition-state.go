package pkgkafka

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

type MsgState int

const (
	MsgState_Pending MsgState = iota
	MsgState_Success
	MsgState_Error
)

type CommitFunc func([]kafka.TopicPartition) ([]kafka.TopicPartition, error)

// PartitionState tracks in-flight offsets of one assigned partition.
// The commit cursor only advances over a contiguous prefix of Success offsets;
// a Pending or Error offset holds it, so a restart redelivers from there.
type PartitionState struct {
	ID           int32
	Topic        string
	State        map[kafka.Offset]MsgState
	Mu           *sync.RWMutex
	LastCommited kafka.Offset
	commitFunc   CommitFunc

	ctx    context.Context
	Cancel context.CancelFunc
	ExitCH chan struct{}
}

func NewPartitionState(tp kafka.TopicPartition, commitFunc CommitFunc) *PartitionState {
	ctx, cancel := context.WithCancel(context.Background())
	lastCommited := tp.Offset
	if lastCommited < 0 {
		lastCommited = kafka.OffsetInvalid
	}
	topic := ""
	if tp.Topic != nil {
		topic = *tp.Topic
	}
	return &PartitionState{
		ID:           tp.Partition,
		Topic:        topic,
		Mu:           &sync.RWMutex{},
		State:        map[kafka.Offset]MsgState{},
		LastCommited: lastCommited,
		commitFunc:   commitFunc,

		ctx:    ctx,
		Cancel: cancel,
		ExitCH: make(chan struct{}),
	}
}

func (ps *PartitionState) Append(offset kafka.Offset) {
	ps.Mu.Lock()
	defer ps.Mu.Unlock()
	if _, ok := ps.State[offset]; ok {
		return
	}
	ps.State[offset] = MsgState_Pending
}

func (ps *PartitionState) UpdateState(offset kafka.Offset, state MsgState) {
	ps.Mu.Lock()
	defer ps.Mu.Unlock()
	if _, ok := ps.State[offset]; !ok {
		return
	}
	ps.State[offset] = state
}

func (ps *PartitionState) ReadOffset(offset kafka.Offset) (MsgState, bool) {
	ps.Mu.RLock()
	defer ps.Mu.RUnlock()

	state, exists := ps.State[offset]
	return state, exists
}

// FindLatestToCommit returns the offset one past the leading run of Success offsets.
func (ps *PartitionState) FindLatestToCommit() (*kafka.TopicPartition, error) {
	ps.Mu.RLock()
	defer ps.Mu.RUnlock()

	offsets := make([]kafka.Offset, 0, len(ps.State))
	for o := range ps.State {
		offsets = append(offsets, o)
	}
	slices.Sort(offsets)

	next := kafka.OffsetInvalid
	for _, o := range offsets {
		st := ps.State[o]
		if st == MsgState_Error {
			logrus.WithFields(logrus.Fields{
				"OFFSET": o,
				"PRTN":   ps.ID,
			}).Warn("COMMIT:BLOCKED_BY_FAILED_OFFSET")
			break
		}
		if st != MsgState_Success {
			break
		}
		next = o + 1
	}

	if next == kafka.OffsetInvalid || next <= ps.LastCommited {
		return nil, fmt.Errorf("nothing to commit in prtn %d, last commited = %d", ps.ID, ps.LastCommited)
	}

	topic := ps.Topic
	return &kafka.TopicPartition{Topic: &topic, Partition: ps.ID, Offset: next}, nil
}

// Commit runs one commit attempt; used by the loop and on revoke.
func (ps *PartitionState) Commit() error {
	latestToCommit, err := ps.FindLatestToCommit()
	if err != nil {
		return err
	}
	if _, err := ps.commitFunc([]kafka.TopicPartition{*latestToCommit}); err != nil {
		logrus.WithFields(logrus.Fields{
			"OFFSET": latestToCommit.Offset,
			"PRTN":   ps.ID,
		}).Errorf("COMMIT:ERROR %v", err)
		return err
	}

	ps.Mu.Lock()
	ps.LastCommited = latestToCommit.Offset
	for o := range ps.State {
		if o < latestToCommit.Offset {
			delete(ps.State, o)
		}
	}
	ps.Mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"COMMITED_OFFSET": latestToCommit.Offset,
		"PRTN":            ps.ID,
	}).Debug("COMMIT:OK")
	return nil
}

func (ps *PartitionState) commitOffsetLoop(commitDur time.Duration) {
	ticker := time.NewTicker(commitDur)
	defer func() {
		close(ps.ExitCH)
		ticker.Stop()
	}()
	for {
		select {
		case <-ticker.C:
			_ = ps.Commit()
		case <-ps.ctx.Done():
			return
		}
	}
}
