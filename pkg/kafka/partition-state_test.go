package pkgkafka

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commitRecorder struct {
	commits []kafka.Offset
}

func (r *commitRecorder) commit(tps []kafka.TopicPartition) ([]kafka.TopicPartition, error) {
	for _, tp := range tps {
		r.commits = append(r.commits, tp.Offset)
	}
	return tps, nil
}

func newTestPartitionState(r *commitRecorder) *PartitionState {
	topic := "sales"
	return NewPartitionState(kafka.TopicPartition{Topic: &topic, Partition: 0, Offset: kafka.OffsetInvalid}, r.commit)
}

func TestPartitionState_CommitsContiguousSuccess(t *testing.T) {
	r := &commitRecorder{}
	ps := newTestPartitionState(r)
	for o := kafka.Offset(0); o < 4; o++ {
		ps.Append(o)
	}
	ps.UpdateState(0, MsgState_Success)
	ps.UpdateState(1, MsgState_Success)
	ps.UpdateState(3, MsgState_Success)

	require.NoError(t, ps.Commit())
	assert.Equal(t, []kafka.Offset{2}, r.commits)

	_, exists := ps.ReadOffset(1)
	assert.False(t, exists)
	st, exists := ps.ReadOffset(2)
	assert.True(t, exists)
	assert.Equal(t, MsgState_Pending, st)

	ps.UpdateState(2, MsgState_Success)
	require.NoError(t, ps.Commit())
	assert.Equal(t, []kafka.Offset{2, 4}, r.commits)
}

func TestPartitionState_ErrorBlocksCursor(t *testing.T) {
	r := &commitRecorder{}
	ps := newTestPartitionState(r)
	for o := kafka.Offset(10); o < 13; o++ {
		ps.Append(o)
	}
	ps.UpdateState(10, MsgState_Success)
	ps.UpdateState(11, MsgState_Error)
	ps.UpdateState(12, MsgState_Success)

	require.NoError(t, ps.Commit())
	assert.Equal(t, []kafka.Offset{11}, r.commits)

	assert.Error(t, ps.Commit())
	assert.Equal(t, []kafka.Offset{11}, r.commits)
}

func TestPartitionState_NothingToCommit(t *testing.T) {
	r := &commitRecorder{}
	ps := newTestPartitionState(r)
	ps.Append(0)

	assert.Error(t, ps.Commit())
	assert.Empty(t, r.commits)
}
