package pkgconfig

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadDotEnv loads the .env next to the calling cmd's main.go, if present.
func LoadDotEnv() {
	_, filename, _, ok := runtime.Caller(1)
	if !ok {
		logrus.Warn("unable to get caller file path, skipping .env")
		return
	}

	envPath := filepath.Join(filepath.Dir(filename), ".env")
	if err := godotenv.Load(envPath); err != nil {
		logrus.WithField("PATH", envPath).Info("No .env file found")
	}
}

func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{"KEY": key, "VALUE": raw}).Warn("invalid int env, using fallback")
		return fallback
	}
	return v
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{"KEY": key, "VALUE": raw}).Warn("invalid duration env, using fallback")
		return fallback
	}
	return v
}

// InitLogger applies LOG_LEVEL and LOG_FORMAT to the global logrus logger.
func InitLogger() {
	level, err := logrus.ParseLevel(GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if GetEnv("LOG_FORMAT", "text") == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
