// Command sessiond is a small HTTP service built on goSession: it logs users in with
// argon2id-verified credentials, issues bearer tokens and serves per-token session
// fields from Redis (or SQLite, or an embedded miniredis when no store is configured).
//
// Usage:
//
//	JWT_SECRET=change-me sessiond -config sessiond.toml
//	sessiond -hash 'correct-horse-battery'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/throttle"
	"github.com/MrEthical07/goSession/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", os.Getenv("SESSIOND_CONFIG"), "path to a TOML config file")
	hash := flag.String("hash", "", "print the argon2id hash of the given password and exit")
	flag.Parse()

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		log.Fatalf("[main] invalid password hasher: %v", err)
	}

	if *hash != "" {
		encoded, err := hasher.Hash(*hash)
		if err != nil {
			log.Fatalf("[main] hash failed: %v", err)
		}
		fmt.Println(encoded)
		return
	}

	// ─── Config ───
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (addr=%s audit=%s)", cfg.Server.Addr(), cfg.Session.Audit)

	users, err := newUserDirectory(hasher, cfg.Users)
	if err != nil {
		log.Fatalf("[main] invalid users: %v", err)
	}
	if users.Len() == 0 {
		log.Println("[main] no users configured; /login will reject every request")
	}

	// ─── Store ───
	if cfg.Session.StoreURL == "" {
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatalf("[main] failed to start embedded redis: %v", err)
		}
		defer mr.Close()
		cfg.Session.StoreURL = "redis://" + mr.Addr()
		log.Printf("[main] no store_url set; using embedded redis at %s", mr.Addr())
	}

	// ─── Engine ───
	builder := goSession.New().
		WithConfig(cfg.EngineConfig()).
		WithAuditSink(auditSink(cfg.Session.Audit))

	var limiter *throttle.Login
	if cfg.UsesRedis() {
		opts, err := redis.ParseURL(cfg.Session.StoreURL)
		if err != nil {
			log.Fatalf("[main] invalid store_url: %v", err)
		}
		if cfg.Session.PoolSize > 0 {
			opts.PoolSize = cfg.Session.PoolSize
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		builder = builder.WithRedis(rdb)

		limiter, err = throttle.New(rdb, throttle.Config{
			KeyPrefix:   cfg.Session.KeyPrefix,
			MaxFailures: cfg.Login.MaxFailures,
			Window:      time.Duration(cfg.Login.WindowSeconds) * time.Second,
			PerIP:       cfg.Login.PerIP,
		})
		if err != nil {
			log.Fatalf("[main] invalid login throttle: %v", err)
		}
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("[main] failed to build session engine: %v", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Printf("[main] engine close: %v", err)
		}
	}()

	// ─── HTTP Server ───
	srv := &server{
		engine:   engine,
		users:    users,
		throttle: limiter,
		ttl:      time.Duration(cfg.Session.TokenTTLMinutes) * time.Minute,
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.routes(cfg.CORS.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─── Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}
	log.Println("[main] server stopped")
}

func auditSink(mode string) goSession.AuditSink {
	switch mode {
	case "json":
		return goSession.NewJSONWriterSink(os.Stdout)
	case "log":
		return goSession.NewLogSink(log.New(os.Stdout, "", log.LstdFlags))
	default:
		return goSession.NoOpSink{}
	}
}
