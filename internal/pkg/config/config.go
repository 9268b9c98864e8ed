package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Shipment store backends selectable through SHIPMENT_STORE.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Config struct {
	Port          string        `env:"PORT,           default=8080"`
	Env           string        `env:"ENV,            default=development"`
	JWTSecret     string        `env:"JWT_SECRET,     required"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,      default=24h"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	ShipmentStore string        `env:"SHIPMENT_STORE, default=mongo"`
	AdminEmails   []string      `env:"ADMIN_EMAILS"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Outbox   OutboxConfig
	Kafka    KafkaConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=booking_system"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=100"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// PostgresConfig is only read when SHIPMENT_STORE=postgres.
type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN,               default=postgres://localhost:5432/booking_system?sslmode=disable"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS,    default=25"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS,    default=5"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME, default=5m"`
}

type SMTPConfig struct {
	Host        string `env:"SMTP_HOST,         default=localhost"`
	Port        int    `env:"SMTP_PORT,         default=587"`
	Username    string `env:"SMTP_USER"`
	Password    string `env:"SMTP_PASS"`
	From        string `env:"SMTP_FROM,         default=no-reply@jingally.com"`
	FromName    string `env:"SMTP_FROM_NAME,    default=Jingally Logistics"`
	ImplicitTLS bool   `env:"SMTP_IMPLICIT_TLS, default=false"`
}

type StorageConfig struct {
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`
}

type OutboxConfig struct {
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL, default=2s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE,    default=50"`
	MaxAttempts  int           `env:"OUTBOX_MAX_ATTEMPTS,  default=8"`
	Workers      int           `env:"OUTBOX_WORKERS,       default=8"`
	Lease        time.Duration `env:"OUTBOX_LEASE,         default=5m"`
}

// KafkaConfig enables the delivered-notification mirror when Brokers is set.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_TOPIC, default=booking.notifications"`
}

// Pretty reports whether logs should be rendered for humans.
func (c *Config) Pretty() bool { return c.Env == "development" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom processes the variables served by lookuper and checks the values
// envconfig cannot express.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	switch cfg.ShipmentStore {
	case StoreMongo, StorePostgres:
	default:
		return nil, fmt.Errorf("SHIPMENT_STORE must be %q or %q, got %q", StoreMongo, StorePostgres, cfg.ShipmentStore)
	}
	return &cfg, nil
}
