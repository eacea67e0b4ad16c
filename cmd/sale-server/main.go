package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/k-code-yt/saga-choreography/internal/sale/application"
	"github.com/k-code-yt/saga-choreography/internal/sale/handlers"
	"github.com/k-code-yt/saga-choreography/internal/sale/infra/repo"
	pkgconfig "github.com/k-code-yt/saga-choreography/pkg/config"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
	pkghealth "github.com/k-code-yt/saga-choreography/pkg/health"
	pkgkafka "github.com/k-code-yt/saga-choreography/pkg/kafka"
	pkgmetrics "github.com/k-code-yt/saga-choreography/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type Server struct {
	addr     string
	http     *http.Server
	consumer *pkgkafka.KafkaConsumer
	health   *pkghealth.Server
}

func NewServer(addr string, svc *application.SaleService, consumer *pkgkafka.KafkaConsumer, health *pkghealth.Server) *Server {
	return &Server{
		addr: addr,
		http: &http.Server{
			Addr:              addr,
			Handler:           handlers.NewHTTPHandler(svc).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		consumer: consumer,
		health:   health,
	}
}

func (s *Server) Run(ctx context.Context) {
	go func() {
		logrus.WithField("ADDR", s.addr).Info("HTTP:LISTEN")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("HTTP:SERVE:ERROR")
		}
	}()
	go func() {
		if err := s.health.Listen(); err != nil {
			logrus.WithError(err).Error("GRPC:HEALTH:ERROR")
		}
	}()
	go func() {
		select {
		case <-s.consumer.ReadyCH:
			s.health.SetServing()
		case <-ctx.Done():
		}
	}()

	s.consumer.RunConsumer(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.http.Shutdown(shutdownCtx)
	s.health.Stop()
}

func init() {
	pkgconfig.LoadDotEnv()
}

func main() {
	pkgconfig.InitLogger()
	pkgmetrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDBConn(postgres.NewPostgresConfig(pkgconstants.DBNameSale))
	if err != nil {
		logrus.Fatalf("unable to conn to db, err = %v", err)
	}
	defer db.Close()

	cfg := pkgkafka.NewKafkaConfig(pkgconstants.Participant_Sale)
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

	svc := application.NewSaleService(repo.NewSaleRepo(db), producer)
	consumer, err := pkgkafka.NewKafkaConsumer(cfg, encoder, handlers.NewMsgRouter(svc).Handle)
	if err != nil {
		logrus.Fatal(err)
	}

	health := pkghealth.NewServer(cfg.ConsumerGroup, pkgconfig.GetEnv("GRPC_HEALTH_ADDR", ":7581"))
	s := NewServer(pkgconfig.GetEnv("HTTP_ADDR", ":7576"), svc, consumer, health)
	s.Run(ctx)
}
