package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/k-code-yt/saga-choreography/internal/payment/application"
	"github.com/k-code-yt/saga-choreography/internal/payment/handlers"
	"github.com/k-code-yt/saga-choreography/internal/payment/infra/repo"
	pkgconfig "github.com/k-code-yt/saga-choreography/pkg/config"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
	pkghealth "github.com/k-code-yt/saga-choreography/pkg/health"
	pkgkafka "github.com/k-code-yt/saga-choreography/pkg/kafka"
	pkgmetrics "github.com/k-code-yt/saga-choreography/pkg/metrics"
	"github.com/sirupsen/logrus"
)

func init() {
	pkgconfig.LoadDotEnv()
}

func main() {
	pkgconfig.InitLogger()
	pkgmetrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDBConn(postgres.NewPostgresConfig(pkgconstants.DBNamePayment))
	if err != nil {
		logrus.Fatalf("unable to conn to db, err = %v", err)
	}
	defer db.Close()

	cfg := pkgkafka.NewKafkaConfig(pkgconstants.Participant_Payment)
	encoder, err := pkgkafka.NewMsgEncoder(cfg.MsgEncoderType)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := pkgkafka.InitializeTopic(ctx, cfg); err != nil {
		logrus.Fatalf("unable to init topic, err = %v", err)
	}

	producer, err := pkgkafka.NewKafkaProducer(cfg, encoder)
	if err != nil {
		logrus.Fatal(err)
	}
	defer producer.Close()

	svc := application.NewPaymentService(repo.NewPaymentRepo(db), producer)
	router := handlers.NewMsgRouter(svc)
	consumer, err := pkgkafka.NewKafkaConsumer(cfg, encoder, router.Handle)
	if err != nil {
		logrus.Fatal(err)
	}

	health := pkghealth.NewServer(cfg.ConsumerGroup, pkgconfig.GetEnv("GRPC_HEALTH_ADDR", ":7583"))
	go func() {
		if err := health.Listen(); err != nil {
			logrus.WithError(err).Error("GRPC:HEALTH:ERROR")
		}
	}()
	defer health.Stop()
	go pkgmetrics.Serve(ctx, pkgconfig.GetEnv("METRICS_ADDR", ":2115"))
	go func() {
		select {
		case <-consumer.ReadyCH:
			health.SetServing()
		case <-ctx.Done():
		}
	}()

	logrus.WithFields(logrus.Fields{
		"CONSUMER_ID": consumer.ID,
		"TOPIC":       cfg.Topic,
		"ENCODER":     encoder.GetType(),
	}).Info("PAYMENT:START")
	consumer.RunConsumer(ctx)
}
