package postgres

import (
	"fmt"

	pkgconfig "github.com/k-code-yt/saga-choreography/pkg/config"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewPostgresConfig(fallbackDBName string) *PostgresConfig {
	var postgres PostgresConfig

	postgres.Host = pkgconfig.GetEnv("POSTGRES_HOST", "localhost")
	postgres.Port = pkgconfig.GetEnv("POSTGRES_PORT", "5452")
	postgres.User = pkgconfig.GetEnv("POSTGRES_USER", "user")
	postgres.Password = pkgconfig.GetEnv("POSTGRES_PASSWORD", "pass")
	postgres.DBName = pkgconfig.GetEnv("POSTGRES_DATABASE", fallbackDBName)
	postgres.SSLMode = pkgconfig.GetEnv("POSTGRES_SSLMODE", "disable")

	return &postgres
}

func GetConnString(options *PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", options.Host, options.Port, options.User, options.Password, options.DBName, options.SSLMode)
}

// GetURL is the URL form golang-migrate expects.
func GetURL(options *PostgresConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", options.User, options.Password, options.Host, options.Port, options.DBName, options.SSLMode)
}
