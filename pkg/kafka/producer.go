package pkgkafka

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgmetrics "github.com/k-code-yt/saga-choreography/pkg/metrics"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

const HeaderSaleEvent = "saleEvent"

type KafkaProducer struct {
	producer *kafka.Producer
	cfg      *KafkaConfig
	encoder  MsgEncoder
}

func NewKafkaProducer(cfg *KafkaConfig, encoder MsgEncoder) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Host,
		"client.id":         string(cfg.Participant),
		"acks":              "all",
		// same hashing as the JVM clients, so a sale id always lands on one partition
		"partitioner":         "murmur2_random",
		"enable.idempotence":  true,
		"delivery.timeout.ms": int(cfg.DeliveryTimeout.Milliseconds()),
	})
	if err != nil {
		return nil, err
	}

	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case kafka.Error:
				logrus.WithFields(logrus.Fields{
					"CODE": ev.Code(),
				}).Errorf("PRODUCER:ERROR %v", ev)
			}
		}
	}()

	return &KafkaProducer{
		producer: p,
		cfg:      cfg,
		encoder:  encoder,
	}, nil
}

// Publish blocks until the broker acknowledges the message or ctx is done.
func (p *KafkaProducer) Publish(ctx context.Context, env *pkgtypes.Envelope) error {
	payload, err := p.encoder.Encode(env)
	if err != nil {
		return pkgerrors.NewTransportError(err)
	}

	deliveryCH := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            env.Key(),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: HeaderSaleEvent, Value: []byte(env.SaleEvent)},
		},
	}, deliveryCH)
	if err != nil {
		p.observe(env, false)
		return pkgerrors.NewTransportError(err)
	}

	select {
	case e := <-deliveryCH:
		m, ok := e.(*kafka.Message)
		if !ok {
			p.observe(env, false)
			return pkgerrors.NewTransportError(fmt.Errorf("unexpected delivery event %v", e))
		}
		if m.TopicPartition.Error != nil {
			p.observe(env, false)
			return pkgerrors.NewTransportError(m.TopicPartition.Error)
		}
		p.observe(env, true)
		logrus.WithFields(logrus.Fields{
			"SALE_ID": env.SaleID(),
			"EVENT":   env.SaleEvent,
			"PRTN":    m.TopicPartition.Partition,
			"OFFSET":  m.TopicPartition.Offset,
		}).Debug("PUBLISH:DELIVERED")
		return nil
	case <-ctx.Done():
		p.observe(env, false)
		return pkgerrors.NewTransportError(ctx.Err())
	}
}

func (p *KafkaProducer) observe(env *pkgtypes.Envelope, delivered bool) {
	status := "delivered"
	if !delivered {
		status = "failed"
	}
	pkgmetrics.EventsPublished.WithLabelValues(string(p.cfg.Participant), string(env.SaleEvent), status).Inc()
}

func (p *KafkaProducer) Close() {
	remaining := p.producer.Flush(5000)
	if remaining > 0 {
		logrus.WithField("REMAINING", remaining).Warn("PRODUCER:CLOSE:UNFLUSHED")
	}
	p.producer.Close()
}
