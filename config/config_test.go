package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Ledger.Store != StoreMemory || cfg.Ledger.LockBackend != LockLocal {
		t.Errorf("expected memory store with local locks, got %s/%s", cfg.Ledger.Store, cfg.Ledger.LockBackend)
	}
	if cfg.Ledger.LockAttempts != 3 || cfg.Ledger.LockRetryDelay != 100*time.Millisecond {
		t.Errorf("unexpected lock retry defaults: %d x %s", cfg.Ledger.LockAttempts, cfg.Ledger.LockRetryDelay)
	}
	if cfg.Kafka.OrdersTopic != "orders.events" || cfg.Kafka.SyncTopic != "inventory.sync" {
		t.Errorf("unexpected topics: %+v", cfg.Kafka)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_STORE", StorePostgres)
	t.Setenv("LOCK_TTL", "2s")
	t.Setenv("SYNC_CHECK_INTERVAL", "30")
	t.Setenv("LOCK_ATTEMPTS", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_ENABLED", "true")

	cfg := LoadEnv()

	if cfg.Ledger.Store != StorePostgres {
		t.Errorf("expected postgres store, got %s", cfg.Ledger.Store)
	}
	if cfg.Ledger.LockTTL != 2*time.Second {
		t.Errorf("expected 2s lock ttl, got %s", cfg.Ledger.LockTTL)
	}
	if cfg.Ledger.SyncCheckInterval != 30*time.Second {
		t.Errorf("plain seconds should parse, got %s", cfg.Ledger.SyncCheckInterval)
	}
	if cfg.Ledger.LockAttempts != 3 {
		t.Errorf("invalid int should fall back, got %d", cfg.Ledger.LockAttempts)
	}
	if len(cfg.Kafka.Brokers) != 2 || !cfg.Kafka.Enabled {
		t.Errorf("unexpected kafka config: %+v", cfg.Kafka)
	}
}
