package goSession

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// Config is the full auth configuration materialized by Builder.Build into an Engine.
//
// Config values are copied on WithConfig and again on Build; mutating a Config after
// Build has no effect on the Engine.
type Config struct {
	JWT     JWTConfig
	Store   StoreConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token signing and verification.
type JWTConfig struct {
	Secret        []byte
	SigningMethod string // "hs256" (default), "hs384", "hs512"
	Issuer        string
	Audience      string
	Leeway        time.Duration
	DefaultTTL    time.Duration // used by IssueFor
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig describes the session store connection pool.
//
// URL accepts redis://, rediss://, unix:// and sqlite:// schemes. It is ignored when a
// client or backend is supplied to the Builder directly.
type StoreConfig struct {
	URL         string
	KeyPrefix   string
	PoolSize    int
	PoolTimeout time.Duration
	DialTimeout time.Duration
	PingTimeout time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the authenticate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a Config with every field except JWT.Secret populated.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: string(jwt.MethodHS256),
			Leeway:        0,
			DefaultTTL:    15 * time.Minute,
		},
		Store: StoreConfig{
			URL:         "redis://localhost:6379",
			KeyPrefix:   "",
			PoolSize:    0,
			PoolTimeout: 4 * time.Second,
			DialTimeout: 5 * time.Second,
			PingTimeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must be provided")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.Audience != "" && strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}
	if c.JWT.DefaultTTL <= 0 {
		return errors.New("JWT DefaultTTL must be > 0")
	}

	// Store
	if c.Store.PoolSize < 0 {
		return errors.New("Store PoolSize must be >= 0")
	}
	if c.Store.PoolTimeout < 0 || c.Store.DialTimeout < 0 {
		return errors.New("Store timeouts must be >= 0")
	}
	if c.Store.PingTimeout <= 0 {
		return errors.New("Store PingTimeout must be > 0")
	}
	if strings.Contains(c.Store.KeyPrefix, " ") {
		return errors.New("Store KeyPrefix must not contain spaces")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}

// validateStoreURL is only consulted when Build has to open the store itself.
func (c *Config) validateStoreURL() error {
	u := strings.TrimSpace(c.Store.URL)
	if u == "" {
		return errors.New("Store URL must be provided")
	}
	switch {
	case strings.HasPrefix(u, "redis://"),
		strings.HasPrefix(u, "rediss://"),
		strings.HasPrefix(u, "unix://"):
		return nil
	case strings.HasPrefix(u, "sqlite://"):
		if strings.TrimPrefix(u, "sqlite://") == "" {
			return errors.New("Store sqlite URL requires a path")
		}
		return nil
	default:
		return errors.New("Store URL scheme must be redis, rediss, unix or sqlite")
	}
}
