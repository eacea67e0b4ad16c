package pkgkafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

type consumedMsg struct {
	tp  kafka.TopicPartition
	env *pkgtypes.Envelope
}

// KafkaConsumer reads the saga topic with manual offset commits. Decoded envelopes are
// handed to the handler through a key-hash Dispatcher; an offset becomes committable once
// the handler returned nil for it.
type KafkaConsumer struct {
	ID           string
	ReadyCH      chan struct{}
	consumer     *kafka.Consumer
	topic        string
	msgsStateMap map[int32]*PartitionState
	Mu           *sync.RWMutex
	commitDur    time.Duration
	cfg          *KafkaConfig
	encoder      MsgEncoder
	handler      pkgtypes.EnvelopeHandler
	dispatcher   *Dispatcher[*consumedMsg]
	readyOnce    *sync.Once
}

func NewKafkaConsumer(cfg *KafkaConfig, encoder MsgEncoder, handler pkgtypes.EnvelopeHandler) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":               cfg.Host,
		"group.id":                        cfg.ConsumerGroup,
		"enable.auto.commit":              false,
		"auto.offset.reset":               "earliest",
		"go.application.rebalance.enable": true,
		"partition.assignment.strategy":   cfg.ParititionAssignStrategy,
	})
	if err != nil {
		return nil, err
	}

	consumer := &KafkaConsumer{
		ID:           uuid.NewString(),
		consumer:     c,
		ReadyCH:      make(chan struct{}),
		topic:        cfg.Topic,
		Mu:           new(sync.RWMutex),
		commitDur:    cfg.CommitInterval,
		msgsStateMap: map[int32]*PartitionState{},
		cfg:          cfg,
		encoder:      encoder,
		handler:      handler,
		readyOnce:    &sync.Once{},
	}

	if err := c.SubscribeTopics([]string{consumer.topic}, consumer.rebalanceCB); err != nil {
		c.Close()
		return nil, err
	}
	return consumer, nil
}

// RunConsumer blocks until ctx is done, then drains the workers and commits what finished.
func (c *KafkaConsumer) RunConsumer(ctx context.Context) {
	c.dispatcher = NewDispatcher(c.cfg.Workers, c.cfg.WorkerBuffer, func(m *consumedMsg) {
		c.handle(ctx, m)
	})

	go c.checkReadyToAccept(ctx)
	c.consumeLoop(ctx)

	c.dispatcher.Close()
	c.Mu.RLock()
	for _, ps := range c.msgsStateMap {
		ps.Cancel()
		<-ps.ExitCH
		_ = ps.Commit()
	}
	c.Mu.RUnlock()
	if err := c.consumer.Close(); err != nil {
		logrus.WithError(err).Error("CONSUMER:CLOSE:ERROR")
	}
	logrus.WithField("CONSUMER_ID", c.ID).Info("CONSUMER:EXIT")
}

func (c *KafkaConsumer) handle(ctx context.Context, m *consumedMsg) {
	state := MsgState_Success
	if err := handleWithRetry(ctx, c.handler, m.env, c.cfg.HandleAttempts, c.cfg.RetryDelay); err != nil {
		state = MsgState_Error
		logrus.WithFields(logrus.Fields{
			"SALE_ID": m.env.SaleID(),
			"EVENT":   m.env.SaleEvent,
			"PRTN":    m.tp.Partition,
			"OFFSET":  m.tp.Offset,
		}).Errorf("HANDLE:ERROR offset stays uncommitted: %v", err)
	}
	c.UpdateState(&m.tp, state)
}

// handleWithRetry reruns a failed handler in place, so later events of the same key
// keep waiting behind it on this worker. The handler must be idempotent.
func handleWithRetry(ctx context.Context, handler pkgtypes.EnvelopeHandler, env *pkgtypes.Envelope, attempts int, delay time.Duration) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = handler(ctx, env)
		if err == nil || attempt >= attempts {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"SALE_ID": env.SaleID(),
			"EVENT":   env.SaleEvent,
			"ATTEMPT": attempt,
		}).Warnf("HANDLE:RETRY %v", err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay * time.Duration(attempt)):
		}
	}
}

func (c *KafkaConsumer) UpdateState(tp *kafka.TopicPartition, newState MsgState) {
	c.Mu.RLock()
	prtnState, ok := c.msgsStateMap[tp.Partition]
	c.Mu.RUnlock()
	if !ok {
		logrus.WithField("PRTN", tp.Partition).Warn("STATE:MISSING partition was revoked")
		return
	}
	prtnState.UpdateState(tp.Offset, newState)
}

func (c *KafkaConsumer) assignPrntCB(ev *kafka.AssignedPartitions) error {
	committed, err := c.consumer.Committed(ev.Partitions, 5000)
	if err != nil {
		logrus.Errorf("Failed to get committed offsets: %v", err)
		committed = ev.Partitions
	}

	c.Mu.Lock()
	for _, tp := range committed {
		logrus.WithFields(logrus.Fields{
			"PRTN":         tp.Partition,
			"START_OFFSET": tp.Offset,
		}).Info("PRTN:ASSIGNED")

		commitFunc := func(offsets []kafka.TopicPartition) ([]kafka.TopicPartition, error) {
			return c.consumer.CommitOffsets(offsets)
		}
		prtnState := NewPartitionState(tp, commitFunc)
		if oldPS, exists := c.msgsStateMap[tp.Partition]; exists {
			oldPS.Cancel()
			<-oldPS.ExitCH
		}
		c.msgsStateMap[tp.Partition] = prtnState
		go prtnState.commitOffsetLoop(c.commitDur)
	}
	c.Mu.Unlock()

	if c.cfg.isCooperative() {
		err = c.consumer.IncrementalAssign(ev.Partitions)
	} else {
		err = c.consumer.Assign(ev.Partitions)
	}
	if err != nil {
		logrus.Errorf("Failed to assign partitions: %v", err)
		return err
	}

	logrus.WithFields(logrus.Fields{
		"COUNT": len(ev.Partitions),
		"PRTNS": formatPartitions(ev.Partitions),
	}).Info("PRTN:ASSIGN:OK")
	return nil
}

func (c *KafkaConsumer) revokePrtnCB(ev *kafka.RevokedPartitions) error {
	for _, tp := range ev.Partitions {
		logrus.WithField("PRTN", tp.Partition).Info("PRTN:REVOKING")

		c.Mu.Lock()
		partitionState, exists := c.msgsStateMap[tp.Partition]
		delete(c.msgsStateMap, tp.Partition)
		c.Mu.Unlock()
		if !exists {
			continue
		}
		partitionState.Cancel()
		<-partitionState.ExitCH

		if err := partitionState.Commit(); err != nil {
			logrus.WithField("PRTN", tp.Partition).Debugf("PRTN:REVOKE:NO_COMMIT %v", err)
		}
	}

	var err error
	if c.cfg.isCooperative() {
		err = c.consumer.IncrementalUnassign(ev.Partitions)
	} else {
		err = c.consumer.Unassign()
	}
	if err != nil {
		logrus.Errorf("Failed to unassign partitions: %v", err)
		return err
	}

	logrus.WithField("COUNT", len(ev.Partitions)).Info("PRTN:REVOKE:OK")
	return nil
}

func (c *KafkaConsumer) rebalanceCB(_ *kafka.Consumer, event kafka.Event) error {
	switch ev := event.(type) {
	case kafka.AssignedPartitions:
		return c.assignPrntCB(&ev)
	case kafka.RevokedPartitions:
		return c.revokePrtnCB(&ev)
	default:
		logrus.Warnf("Unexpected event type: %T", ev)
	}
	return nil
}

func (c *KafkaConsumer) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.consumer.ReadMessage(time.Second)
		if err != nil {
			var kErr kafka.Error
			if errors.As(err, &kErr) && kErr.IsTimeout() {
				continue
			}
			logrus.WithError(err).Error("CONSUME:ERROR")
			continue
		}
		if msg == nil {
			continue
		}

		c.markReady()
		c.appendMsgState(&msg.TopicPartition)

		env, err := c.encoder.Decode(msg.Value)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"PRTN":   msg.TopicPartition.Partition,
				"OFFSET": msg.TopicPartition.Offset,
			}).Warnf("DECODE:SKIPPED %v", err)
			c.UpdateState(&msg.TopicPartition, MsgState_Success)
			continue
		}

		err = c.dispatcher.Dispatch(ctx, msg.Key, &consumedMsg{tp: msg.TopicPartition, env: env})
		if err != nil {
			return
		}
	}
}

func (c *KafkaConsumer) appendMsgState(tp *kafka.TopicPartition) {
	c.Mu.RLock()
	prtnState := c.msgsStateMap[tp.Partition]
	c.Mu.RUnlock()

	if prtnState == nil {
		return
	}
	prtnState.Append(tp.Offset)
}

func (c *KafkaConsumer) markReady() {
	c.readyOnce.Do(func() {
		close(c.ReadyCH)
	})
}

func (c *KafkaConsumer) checkReadyToAccept(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ReadyCH:
			return
		case <-ticker.C:
			assigned, err := c.consumer.Assignment()
			if err != nil {
				continue
			}
			if len(assigned) > 0 {
				logrus.WithFields(logrus.Fields{
					"CONSUMER_ID": c.ID,
					"PRTNS":       formatPartitions(assigned),
				}).Info("CONSUMER:READY")
				c.markReady()
				return
			}
		}
	}
}

func formatPartitions(partitions []kafka.TopicPartition) string {
	parts := make([]string, len(partitions))
	for i, p := range partitions {
		parts[i] = fmt.Sprintf("%d", p.Partition)
	}
	return strings.Join(parts, ",")
}
