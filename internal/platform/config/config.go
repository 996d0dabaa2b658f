package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	FieldKeyHex   string
	MinimumAge    int
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig covers the manning document cache connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig covers the optional audit sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ManningCacheTTL bounds how stale a cached safe manning document may get.
var ManningCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays
// lean. The field encryption key is mandatory and validated up front: a
// misconfigured key must stop the process, not surface later as undecryptable
// records.
func FromEnv() (Server, error) {
	addr := os.Getenv("MANIFESTGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	fieldKey := os.Getenv("FIELD_ENCRYPTION_KEY")
	if len(fieldKey) != 64 {
		return Server{}, fmt.Errorf("FIELD_ENCRYPTION_KEY must be 64 hex characters, got %d", len(fieldKey))
	}

	minimumAge := 0
	if raw := os.Getenv("UNACCOMPANIED_MINIMUM_AGE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return Server{}, fmt.Errorf("UNACCOMPANIED_MINIMUM_AGE must be a non-negative integer, got %q", raw)
		}
		minimumAge = parsed
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "manifestgate.audit"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		FieldKeyHex:   fieldKey,
		MinimumAge:    minimumAge,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}, nil
}
