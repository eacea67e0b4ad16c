package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/k-code-yt/saga-choreography/internal/bus"
	"github.com/k-code-yt/saga-choreography/internal/local"
	"github.com/k-code-yt/saga-choreography/internal/sale/handlers"
	pkgconfig "github.com/k-code-yt/saga-choreography/pkg/config"
	pkgkafka "github.com/k-code-yt/saga-choreography/pkg/kafka"
	pkgmetrics "github.com/k-code-yt/saga-choreography/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func init() {
	pkgconfig.LoadDotEnv()
}

// seed gives products 1..N the same stock and users 1..N the same balance.
func seed(s *local.Saga) {
	products := pkgconfig.GetEnvInt("SAGA_SEED_PRODUCTS", 3)
	stock := pkgconfig.GetEnvInt("SAGA_SEED_STOCK", 100)
	users := pkgconfig.GetEnvInt("SAGA_SEED_USERS", 3)
	balance, err := decimal.NewFromString(pkgconfig.GetEnv("SAGA_SEED_BALANCE", "1000"))
	if err != nil {
		logrus.Fatalf("invalid SAGA_SEED_BALANCE: %v", err)
	}

	for p := 1; p <= products; p++ {
		s.Inventory.SetStock(p, stock)
	}
	for u := 1; u <= users; u++ {
		s.Payments.SetAccount(u, "user-"+strconv.Itoa(u), balance)
	}
	logrus.WithFields(logrus.Fields{
		"PRODUCTS": products,
		"STOCK":    stock,
		"USERS":    users,
		"BALANCE":  balance.String(),
	}).Info("SEED:SUCCESS")
}

func main() {
	pkgconfig.InitLogger()
	pkgmetrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	encoder, err := pkgkafka.NewMsgEncoder(pkgkafka.KafkaEncoder(pkgconfig.GetEnv("SAGA_ENCODER", string(pkgkafka.KafkaEncoder_JSON))))
	if err != nil {
		logrus.Fatal(err)
	}

	s := local.New(bus.New(encoder), nil)
	seed(s)
	go s.Bus.Run(ctx, pkgconfig.GetEnvDuration("SAGA_RETRY_DELAY", time.Second))

	addr := pkgconfig.GetEnv("HTTP_ADDR", ":7576")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.NewHTTPHandler(s.SaleService).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.WithFields(logrus.Fields{
		"ADDR":    addr,
		"ENCODER": encoder.GetType(),
	}).Info("LOCAL:START")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatal(err)
	}
}
