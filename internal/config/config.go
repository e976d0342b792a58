package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const PROD_STRING = "prod"

// Event drivers accepted by EVENTS_DRIVER.
const (
	EventsNone     = "none"
	EventsKafka    = "kafka"
	EventsRabbitMQ = "rabbitmq"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"dev"`
	ProdOrigins     string        `envconfig:"PROD_ORIGINS"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	DBDSN       string `envconfig:"DB_DSN" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Empty disables idempotent booking creation.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	EventsDriver     string   `envconfig:"EVENTS_DRIVER" default:"none"`
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic       string   `envconfig:"KAFKA_TOPIC" default:"shareit.booking.events"`
	RabbitMQURL      string   `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string   `envconfig:"RABBITMQ_EXCHANGE" default:"shareit.events"`

	// Empty disables tracing.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	StoragePath string `envconfig:"STORAGE_PATH" default:"./data"`
}

// IsProduction reports whether APP_ENV selects production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	c.EventsDriver = strings.ToLower(strings.TrimSpace(c.EventsDriver))
	switch c.EventsDriver {
	case EventsNone:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
		}
	case EventsRabbitMQ:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required when EVENTS_DRIVER=rabbitmq")
		}
	default:
		return fmt.Errorf("invalid EVENTS_DRIVER %q", c.EventsDriver)
	}

	if c.DBMaxConns < 1 {
		return fmt.Errorf("invalid DB_MAX_CONNS: %d", c.DBMaxConns)
	}
	return nil
}
