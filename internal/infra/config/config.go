package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env              string
	HTTPAddr         string
	StorageMode      string
	MongoURI         string
	MongoDB          string
	MongoConnectWait time.Duration
	KafkaBrokers     []string
	KafkaTopicPrefix string
	AdminJWTSecret   string
	DefaultTenant    string
	DefaultCapacity  int
	DefaultHold      time.Duration
	ShutdownTimeout  time.Duration
}

// Load parses configuration from the current environment. Storage mode
// "memory" needs no external services; "mongo" requires MONGO_URI. Kafka is
// optional: without brokers domain events are only logged.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StorageMode:      strings.ToLower(getEnv("STORAGE_MODE", "memory")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "seabook"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		AdminJWTSecret:   os.Getenv("ADMIN_JWT_SECRET"),
		DefaultTenant:    getEnv("DEFAULT_TENANT", "default"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	capacity, err := parseIntEnv("DEFAULT_BUCKET_CAPACITY", 10)
	if err != nil {
		return Config{}, err
	}
	if capacity < 0 {
		return Config{}, fmt.Errorf("DEFAULT_BUCKET_CAPACITY must not be negative")
	}
	cfg.DefaultCapacity = capacity

	hold, err := parseDurationEnv("DEFAULT_HOLD", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultHold = hold

	connectWait, err := parseDurationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.MongoConnectWait = connectWait

	shutdown, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownTimeout = shutdown

	switch cfg.StorageMode {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_MODE %q", cfg.StorageMode)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}
