package pkgkafka

import (
	"time"

	pkgconfig "github.com/k-code-yt/saga-choreography/pkg/config"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
)

type KafkaConfig struct {
	Participant              pkgconstants.Participant
	Topic                    string
	Host                     string
	ConsumerGroup            string
	ParititionAssignStrategy string
	NumPartitions            int
	ReplicationFactor        int
	Workers                  int
	WorkerBuffer             int
	CommitInterval           time.Duration
	DeliveryTimeout          time.Duration
	HandleAttempts           int
	RetryDelay               time.Duration
	MsgEncoderType           KafkaEncoder
}

func NewKafkaConfig(participant pkgconstants.Participant) *KafkaConfig {
	return &KafkaConfig{
		Participant:              participant,
		Topic:                    pkgconfig.GetEnv("SAGA_TOPIC", pkgconstants.DefaultTopic),
		Host:                     pkgconfig.GetEnv("KAFKA_HOST", "localhost"),
		ConsumerGroup:            pkgconfig.GetEnv("KAFKA_CONSUMER_GROUP_PREFIX", "") + pkgconstants.ConsumerGroup(participant),
		ParititionAssignStrategy: pkgconfig.GetEnv("KAFKA_ASSIGN_STRATEGY", "cooperative-sticky"),
		NumPartitions:            pkgconfig.GetEnvInt("KAFKA_NUM_PARTITIONS", 4),
		ReplicationFactor:        pkgconfig.GetEnvInt("KAFKA_REPLICATION_FACTOR", 1),
		Workers:                  pkgconfig.GetEnvInt("SAGA_WORKERS", 4),
		WorkerBuffer:             pkgconfig.GetEnvInt("SAGA_WORKER_BUFFER", 64),
		CommitInterval:           pkgconfig.GetEnvDuration("KAFKA_COMMIT_INTERVAL", 5*time.Second),
		DeliveryTimeout:          pkgconfig.GetEnvDuration("KAFKA_DELIVERY_TIMEOUT", 10*time.Second),
		HandleAttempts:           pkgconfig.GetEnvInt("SAGA_HANDLE_ATTEMPTS", 5),
		RetryDelay:               pkgconfig.GetEnvDuration("SAGA_RETRY_DELAY", time.Second),
		MsgEncoderType:           KafkaEncoder(pkgconfig.GetEnv("SAGA_ENCODER", string(KafkaEncoder_JSON))),
	}
}

func (cfg *KafkaConfig) isCooperative() bool {
	return cfg.ParititionAssignStrategy == "cooperative-sticky"
}
