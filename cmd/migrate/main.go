package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/k-code-yt/saga-choreography/migrations"
	pkgconfig "github.com/k-code-yt/saga-choreography/pkg/config"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
	"github.com/sirupsen/logrus"
)

func loadServiceEnv(service string) {
	envPath := filepath.Join("cmd", service+"-server", ".env")
	if err := godotenv.Load(envPath); err != nil {
		logrus.WithField("PATH", envPath).Info("No .env file found, using environment variables")
		return
	}
	logrus.WithField("PATH", envPath).Info("Loaded .env")
}

func setupDatabase(cfg *postgres.PostgresConfig) error {
	admin := *cfg
	admin.DBName = "postgres"

	db, err := sqlx.Connect("postgres", postgres.GetConnString(&admin))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", cfg.DBName))
	switch {
	case postgres.IsDuplicateDatabaseErr(err):
		logrus.WithField("DB", cfg.DBName).Info("DB:EXISTS")
	case err != nil:
		return fmt.Errorf("failed to create database: %w", err)
	default:
		logrus.WithField("DB", cfg.DBName).Info("DB:CREATED")
	}
	return nil
}

func main() {
	service := flag.String("service", "", "Service name: sale, inventory or payment")
	action := flag.String("action", "up", "Migration action: up, down, or version")
	steps := flag.Int("steps", 0, "Number of migrations to roll back (for down)")
	flag.Parse()

	pkgconfig.InitLogger()

	dbName, err := migrations.DBName(*service)
	if err != nil {
		logrus.Fatal(err)
	}
	loadServiceEnv(*service)
	cfg := postgres.NewPostgresConfig(dbName)

	if err := setupDatabase(cfg); err != nil {
		logrus.Fatalf("database setup failed: %v", err)
	}

	log := logrus.WithFields(logrus.Fields{"SERVICE": *service, "ACTION": *action})
	m, err := migrations.New(*service, postgres.GetURL(cfg))
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	switch *action {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migration up failed: %v", err)
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
		if err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migration down failed: %v", err)
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("failed to get version: %v", err)
		}
		log.WithFields(logrus.Fields{"VERSION": version, "DIRTY": dirty}).Info("MIGRATE:VERSION")
		return
	default:
		log.Fatalf("unknown action: %s (use up, down, or version)", *action)
	}

	log.Info("MIGRATE:DONE")
}
