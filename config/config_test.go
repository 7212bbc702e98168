package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("MONGO_TRANSACTIONS", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "6000" {
		t.Fatalf("expected port 6000, got %s", cfg.Server.Port)
	}
	if !cfg.Mongo.Transactions {
		t.Fatalf("expected transactions enabled")
	}
	if cfg.Auth.TokenTTL() != 48*time.Hour {
		t.Fatalf("expected 48h token ttl, got %v", cfg.Auth.TokenTTL())
	}
	if cfg.Auth.ResetTokenTTL() != time.Minute {
		t.Fatalf("expected 1m reset ttl, got %v", cfg.Auth.ResetTokenTTL())
	}
	if cfg.Reminder.Cron != "0 7 * * *" {
		t.Fatalf("unexpected reminder schedule %q", cfg.Reminder.Cron)
	}
	if got := cfg.Server.Origins(); !reflect.DeepEqual(got, []string{"*"}) {
		t.Fatalf("expected any origin by default, got %v", got)
	}
}

func TestCorsOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	expected := []string{"http://a.example", "http://b.example"}
	if got := cfg.Server.Origins(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
