package goSession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. It is configured during initialization and used once.
//
// Store selection, in order: WithBackend, WithRedis, then Config.Store.URL.
type Builder struct {
	config  Config
	redis   redis.UniversalClient
	backend session.Backend

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis uses an existing client (and its pool) instead of dialing Store.URL.
// The Engine does not close it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend uses any session.Backend as the store. The Engine does not close it.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, creates the store connection pool once and
// pings it. Any failure here is meant to stop process startup; nothing is deferred
// to the first request.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		Secret:        cloneBytes(cfg.JWT.Secret),
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	backend, owned, err := b.openStore(&cfg)
	if err != nil {
		return nil, err
	}
	if err := pingStore(&cfg, backend); err != nil {
		if owned != nil {
			_ = owned.Close()
		}
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		codec:   codec,
		owned:   owned,
		metrics: NewMetrics(cfg.Metrics),
	}
	engine.backend = newMeteredBackend(backend, engine.metrics)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true

	return engine, nil
}

func (b *Builder) openStore(cfg *Config) (session.Backend, io.Closer, error) {
	if b.backend != nil {
		return b.backend, nil, nil
	}
	if b.redis != nil {
		return session.NewRedisBackend(b.redis), nil, nil
	}

	if err := cfg.validateStoreURL(); err != nil {
		return nil, nil, err
	}
	url := strings.TrimSpace(cfg.Store.URL)

	if path, ok := strings.CutPrefix(url, "sqlite://"); ok {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.PingTimeout)
		defer cancel()
		backend, err := session.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return backend, backend, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid Store URL: %w", err)
	}
	if cfg.Store.PoolSize > 0 {
		opts.PoolSize = cfg.Store.PoolSize
	}
	if cfg.Store.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.Store.PoolTimeout
	}
	if cfg.Store.DialTimeout > 0 {
		opts.DialTimeout = cfg.Store.DialTimeout
	}

	backend := session.NewRedisBackend(redis.NewClient(opts))
	return backend, backend, nil
}

func pingStore(cfg *Config, backend session.Backend) error {
	pinger, ok := backend.(session.Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.PingTimeout)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
