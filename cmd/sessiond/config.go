package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the process configuration for sessiond. It is read from an optional TOML
// file, then overridden by environment variables (a .env file is loaded first when present).
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
	Login   LoginConfig   `toml:"login"`
	CORS    CORSConfig    `toml:"cors"`
	Users   []UserEntry   `toml:"users"`
}

type ServerConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

type SessionConfig struct {
	Secret          string `toml:"secret"`
	SigningMethod   string `toml:"signing_method"`
	Issuer          string `toml:"issuer"`
	Audience        string `toml:"audience"`
	TokenTTLMinutes int    `toml:"token_ttl_minutes"`
	StoreURL        string `toml:"store_url"` // empty runs an embedded miniredis
	KeyPrefix       string `toml:"key_prefix"`
	PoolSize        int    `toml:"pool_size"`
	Audit           string `toml:"audit"` // "log", "json" or "off"
	LatencyMetrics  bool   `toml:"latency_metrics"`
}

// LoginConfig throttles failed logins. It only applies when the store is Redis.
type LoginConfig struct {
	MaxFailures   int  `toml:"max_failures"`
	WindowSeconds int  `toml:"window_seconds"`
	PerIP         bool `toml:"per_ip"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// UserEntry is one login identity. PasswordHash is an argon2id PHC string as
// printed by `sessiond -hash`.
type UserEntry struct {
	UID          string `toml:"uid"`
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"`
}

var errMissingSecret = errors.New("JWT_SECRET (or session.secret) is required")

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   8080,
			ShutdownTimeoutSeconds: 5,
		},
		Session: SessionConfig{
			SigningMethod:   "hs256",
			TokenTTLMinutes: 15,
			Audit:           "log",
		},
		Login: LoginConfig{
			MaxFailures:   5,
			WindowSeconds: 300,
			PerIP:         true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// LoadConfig builds the process configuration. path may be empty.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Session.Secret == "" {
		return nil, errMissingSecret
	}
	switch cfg.Session.Audit {
	case "log", "json", "off":
	default:
		return nil, fmt.Errorf("invalid audit mode %q", cfg.Session.Audit)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	cfg.Session.Secret = getEnv("JWT_SECRET", cfg.Session.Secret)
	cfg.Session.SigningMethod = getEnv("JWT_SIGNING_METHOD", cfg.Session.SigningMethod)
	cfg.Session.Issuer = getEnv("JWT_ISSUER", cfg.Session.Issuer)
	cfg.Session.Audience = getEnv("JWT_AUDIENCE", cfg.Session.Audience)
	if v, ok := os.LookupEnv("JWT_TTL_MINUTES"); ok {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL_MINUTES: %w", err)
		}
		cfg.Session.TokenTTLMinutes = ttl
	}

	cfg.Session.StoreURL = getEnv("STORE_URL", cfg.Session.StoreURL)
	cfg.Session.KeyPrefix = getEnv("STORE_KEY_PREFIX", cfg.Session.KeyPrefix)
	cfg.Session.Audit = getEnv("AUDIT_MODE", cfg.Session.Audit)

	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// EngineConfig maps the process configuration onto a goSession.Config.
func (c *Config) EngineConfig() goSession.Config {
	ec := goSession.DefaultConfig()
	ec.JWT.Secret = []byte(c.Session.Secret)
	ec.JWT.SigningMethod = c.Session.SigningMethod
	ec.JWT.Issuer = c.Session.Issuer
	ec.JWT.Audience = c.Session.Audience
	ec.JWT.DefaultTTL = time.Duration(c.Session.TokenTTLMinutes) * time.Minute
	if c.Session.StoreURL != "" {
		ec.Store.URL = c.Session.StoreURL
	}
	ec.Store.KeyPrefix = c.Session.KeyPrefix
	ec.Store.PoolSize = c.Session.PoolSize
	ec.Audit.Enabled = c.Session.Audit != "off"
	ec.Metrics.Enabled = true
	ec.Metrics.EnableLatencyHistograms = c.Session.LatencyMetrics
	return ec
}

// UsesRedis reports whether the session store is a Redis URL.
func (c *Config) UsesRedis() bool {
	u := c.Session.StoreURL
	return strings.HasPrefix(u, "redis://") || strings.HasPrefix(u, "rediss://") || strings.HasPrefix(u, "unix://")
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
