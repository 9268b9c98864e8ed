package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.ShipmentStore != StoreMongo || cfg.TokenTTL != 24*time.Hour {
		t.Errorf("unexpected top-level defaults %+v", cfg)
	}
	if cfg.Outbox.PollInterval != 2*time.Second || cfg.Outbox.MaxAttempts != 8 || cfg.Outbox.BatchSize != 50 {
		t.Errorf("unexpected outbox defaults %+v", cfg.Outbox)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("kafka must be disabled by default, got %v", cfg.Kafka.Brokers)
	}
	if !cfg.Pretty() {
		t.Error("development env should log pretty")
	}
}

func TestLoadFrom_Lists(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":     "s3cret",
		"ADMIN_EMAILS":   "ops@jingally.com,admin@jingally.com",
		"KAFKA_BROKERS":  "k1:9092,k2:9092",
		"SHIPMENT_STORE": "postgres",
		"ENV":            "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "admin@jingally.com" {
		t.Errorf("unexpected admin emails %v", cfg.AdminEmails)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Pretty() {
		t.Error("production must log JSON")
	}
}

func TestLoadFrom_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"unknown store":  {"JWT_SECRET": "x", "SHIPMENT_STORE": "sqlite"},
		"bad duration":   {"JWT_SECRET": "x", "OUTBOX_POLL_INTERVAL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
