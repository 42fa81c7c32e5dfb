package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.Mongo.Database != "badge_system" || cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected store defaults: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if cfg.Artifacts.Dir != "./storage/badges" {
		t.Errorf("unexpected artifact dir %q", cfg.Artifacts.Dir)
	}
	if cfg.Admin.Enabled() {
		t.Error("admin seeding must be off without credentials")
	}
	if !cfg.Development() {
		t.Error("default env should be development")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"ENV":              "production",
		"TOKEN_TTL":        "2h",
		"LOGIN_RATE_LIMIT": "0.5",
		"ADMIN_EMAIL":      "root@airport.test",
		"ADMIN_PASSWORD":   "changeme",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TokenTTL != 2*time.Hour || cfg.LoginRateLimit != 0.5 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !cfg.Admin.Enabled() || cfg.Admin.Name != "Airport Admin" {
		t.Errorf("unexpected admin config: %+v", cfg.Admin)
	}
	if cfg.Development() {
		t.Error("production must not be development")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {},
		"zero ttl":       {"JWT_SECRET": "s", "TOKEN_TTL": "0s"},
		"bad ttl":        {"JWT_SECRET": "s", "TOKEN_TTL": "soon"},
		"zero limit":     {"JWT_SECRET": "s", "LOGIN_RATE_LIMIT": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
