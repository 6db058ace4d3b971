package redis

import (
	"testing"

	"github.com/telaprint/telaprint-backend/pkg/config"
)

func TestBuildKeyNamespacing(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("stripe", "evt_123"); got != "tp:idempotency:stripe:evt_123" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.SettingsKey("tax_rate"); got != "tp:settings:tax_rate" {
		t.Fatalf("unexpected settings key %q", got)
	}
	if got := c.buildKey("a", "  ", "b"); got != "tp:a:b" {
		t.Fatalf("blank segments should be dropped, got %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when url and address are missing")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 5})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 5 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
