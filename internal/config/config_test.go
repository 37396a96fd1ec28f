package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != "5175" {
		t.Fatalf("expected default port 5175, got %s", cfg.Port)
	}
	if cfg.PotentialThreshold != 3 {
		t.Fatalf("expected default threshold 3, got %d", cfg.PotentialThreshold)
	}
	if cfg.TokenTTL() != 14*24*time.Hour {
		t.Fatalf("unexpected ttl %v", cfg.TokenTTL())
	}
	if h := cfg.Hand(); h.Numbers != 4 || h.Operators != 3 || h.Min != 1 || h.Max != 9 {
		t.Fatalf("unexpected hand config %+v", h)
	}
	if cfg.Production() {
		t.Fatal("default environment must not be production")
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("POTENTIAL_THRESHOLD", "0")
	t.Setenv("POTENTIAL_PARALLEL", "true")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("HAND_NUMBERS", "6")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.PotentialThreshold != 0 || !cfg.PotentialParallel {
		t.Fatalf("unexpected potential config %+v", cfg)
	}
	if !cfg.Production() {
		t.Fatal("expected production")
	}
	if cfg.Hand().Numbers != 6 {
		t.Fatalf("expected 6 numbers, got %d", cfg.Hand().Numbers)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, key, val, prefix string
	}{
		{"not an int", "POTENTIAL_THRESHOLD", "lots", "parse env:"},
		{"negative threshold", "POTENTIAL_THRESHOLD", "-1", "POTENTIAL_THRESHOLD"},
		{"bad hand", "HAND_MIN", "0", "hand config:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Fatalf("expected %q prefix, got %v", tt.prefix, err)
			}
		})
	}
}
