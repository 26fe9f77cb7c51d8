package kafka

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvBrokers             = "KAFKA_BROKERS"
	EnvProducerMaxAttempts = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvProducerBatchWait   = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvProducerRequireAcks = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvProducerCompression = "KAFKA_PRODUCER_COMPRESSION"

	DefaultBrokers             = "localhost:9092"
	DefaultProducerMaxAttempts = 3
	DefaultProducerBatchWait   = 100 * time.Millisecond
	DefaultProducerRequireAcks = -1 // all
	DefaultProducerCompression = "snappy"
)

// Config holds producer settings, loaded from the environment.
type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string // "none", "gzip", "snappy", "lz4", "zstd"
}

func LoadConfig() *Config {
	brokers := strings.Split(getEnvStr(EnvBrokers, DefaultBrokers), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	return &Config{
		Brokers:              brokers,
		ProducerMaxAttempts:  getEnvInt(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvProducerBatchWait, DefaultProducerBatchWait),
		ProducerRequireAcks:  getEnvInt(EnvProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  getEnvStr(EnvProducerCompression, DefaultProducerCompression),
	}
}

func getEnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
