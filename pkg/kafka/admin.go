package pkgkafka

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// InitializeTopic creates the saga topic if missing and waits until every partition has a leader.
func InitializeTopic(ctx context.Context, cfg *KafkaConfig) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Host,
	})
	if err != nil {
		return err
	}
	defer adminClient.Close()

	topicSpec := kafka.TopicSpecification{
		Topic:             cfg.Topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}

	createCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	results, err := adminClient.CreateTopics(createCtx, []kafka.TopicSpecification{topicSpec})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() == kafka.ErrTopicAlreadyExists {
			logrus.WithField("TOPIC", result.Topic).Info("TOPIC:EXISTS")
			continue
		}
		if result.Error.Code() != kafka.ErrNoError {
			return fmt.Errorf("failed to create topic: %v", result.Error)
		}
		logrus.WithField("TOPIC", result.Topic).Info("TOPIC:CREATED")
	}

	return waitForTopicReady(ctx, adminClient, cfg.Topic)
}

func waitForTopicReady(ctx context.Context, adminClient *kafka.AdminClient, topicName string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		metadata, err := adminClient.GetMetadata(&topicName, false, 5000)
		if err != nil {
			logrus.WithError(err).Warn("TOPIC:METADATA:ERROR")
			continue
		}

		topicMeta, exists := metadata.Topics[topicName]
		if !exists || len(topicMeta.Partitions) == 0 {
			continue
		}

		if partitionsReady(topicMeta.Partitions) {
			logrus.WithFields(logrus.Fields{
				"TOPIC": topicName,
				"PRTNS": len(topicMeta.Partitions),
			}).Info("TOPIC:READY")
			return nil
		}
	}
}

func partitionsReady(partitions []kafka.PartitionMetadata) bool {
	for _, p := range partitions {
		if p.Error.Code() != kafka.ErrNoError || p.Leader == -1 {
			return false
		}
	}
	return true
}
