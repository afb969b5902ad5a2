// Package config loads environment variables into a typed Config constructed
// once at process start and passed by reference into constructors.
//
// A misconfigured deployment must fail loudly rather than serve a broken
// session: the variables the identity pool and the metadata store cannot run
// without are validated here and their absence aborts startup. Everything
// else has a sensible local-dev default.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"
)

// Store backend selectors.
const (
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// identRe restricts the metadata table name to identifier characters; the
// name is interpolated into SQL and must never carry anything else.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	// HTTP
	HTTPAddr string

	// Database (user pool and postgres store backend)
	DBDsn string

	// Metadata store
	StoreBackend  string // postgres | bolt
	MetadataTable string // postgres backend table name
	BoltPath      string // bolt backend database file

	// Identity pool
	SigningKey        []byte
	AccessTTL         time.Duration
	AutoConfirmSignUp bool
}

// Load reads environment variables, applies defaults, and validates that all
// required configuration is present. It returns an error rather than a
// partially usable Config when a required variable is missing.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")
	if cfg.DBDsn == "" {
		return nil, fmt.Errorf("missing required configuration environment variable: DB_DSN")
	}

	cfg.StoreBackend = os.Getenv("STORE_BACKEND")
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendPostgres
	}
	switch cfg.StoreBackend {
	case BackendPostgres:
		cfg.MetadataTable = os.Getenv("METADATA_TABLE")
		if cfg.MetadataTable == "" {
			return nil, fmt.Errorf("missing required configuration environment variable: METADATA_TABLE")
		}
		if !identRe.MatchString(cfg.MetadataTable) {
			return nil, fmt.Errorf("invalid METADATA_TABLE %q: must be a bare SQL identifier", cfg.MetadataTable)
		}
	case BackendBolt:
		cfg.BoltPath = os.Getenv("BOLT_PATH")
		if cfg.BoltPath == "" {
			return nil, fmt.Errorf("missing required configuration environment variable: BOLT_PATH")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want %q or %q", cfg.StoreBackend, BackendPostgres, BackendBolt)
	}

	key := os.Getenv("AUTH_SIGNING_KEY")
	if key == "" {
		return nil, fmt.Errorf("missing required configuration environment variable: AUTH_SIGNING_KEY")
	}
	cfg.SigningKey = []byte(key)

	cfg.AccessTTL = 24 * time.Hour
	if v := os.Getenv("ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid ACCESS_TTL %q: want a positive Go duration", v)
		}
		cfg.AccessTTL = d
	}

	cfg.AutoConfirmSignUp = true
	if v := os.Getenv("AUTO_CONFIRM_SIGNUP"); v != "" {
		switch v {
		case "1", "true", "yes":
			cfg.AutoConfirmSignUp = true
		case "0", "false", "no":
			cfg.AutoConfirmSignUp = false
		default:
			return nil, fmt.Errorf("invalid AUTO_CONFIRM_SIGNUP %q", v)
		}
	}

	return cfg, nil
}
