package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://u:p@localhost:5432/app?sslmode=disable")
	t.Setenv("METADATA_TABLE", "user_metadata")
	t.Setenv("AUTH_SIGNING_KEY", "test-signing-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Errorf("StoreBackend = %q, want postgres", cfg.StoreBackend)
	}
	if cfg.AccessTTL != 24*time.Hour {
		t.Errorf("AccessTTL = %v, want 24h", cfg.AccessTTL)
	}
	if !cfg.AutoConfirmSignUp {
		t.Errorf("AutoConfirmSignUp = false, want true by default")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := []string{"DB_DSN", "METADATA_TABLE", "AUTH_SIGNING_KEY"}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(name, "")
			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s is missing", name)
			}
		})
	}
}

func TestLoad_TableNameMustBeIdentifier(t *testing.T) {
	setRequired(t)
	t.Setenv("METADATA_TABLE", "user_metadata; DROP TABLE accounts")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-identifier table name")
	}
}

func TestLoad_BoltBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", BackendBolt)
	t.Setenv("METADATA_TABLE", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when BOLT_PATH is missing for bolt backend")
	}

	t.Setenv("BOLT_PATH", "/tmp/metadata.db")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BoltPath != "/tmp/metadata.db" {
		t.Errorf("BoltPath = %q", cfg.BoltPath)
	}
}

func TestLoad_AccessTTLAndAutoConfirm(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TTL", "15m")
	t.Setenv("AUTO_CONFIRM_SIGNUP", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL)
	}
	if cfg.AutoConfirmSignUp {
		t.Errorf("AutoConfirmSignUp = true, want false")
	}

	t.Setenv("ACCESS_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparseable ACCESS_TTL")
	}
}
