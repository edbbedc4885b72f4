package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrThrottled   = errors.New("too many failed login attempts")
	ErrUnavailable = errors.New("throttle store unavailable")
)

// Config holds login throttle tuning parameters.
type Config struct {
	KeyPrefix   string
	MaxFailures int
	Window      time.Duration
	PerIP       bool
}

// Login counts failed logins per username and, optionally, per client IP.
type Login struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) (*Login, error) {
	if client == nil {
		return nil, errors.New("throttle: nil redis client")
	}
	if cfg.MaxFailures <= 0 || cfg.Window <= 0 {
		return nil, errors.New("throttle: MaxFailures and Window must be > 0")
	}
	return &Login{redis: client, config: cfg}, nil
}

// Check returns ErrThrottled when username or ip has used up its failure budget.
func (l *Login) Check(ctx context.Context, username, ip string) error {
	for _, key := range l.keys(username, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count >= int64(l.config.MaxFailures) {
			return ErrThrottled
		}
	}
	return nil
}

// Fail records one failed attempt.
func (l *Login) Fail(ctx context.Context, username, ip string) error {
	for _, key := range l.keys(username, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the counters after a successful login.
func (l *Login) Reset(ctx context.Context, username, ip string) error {
	if err := l.redis.Del(ctx, l.keys(username, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (l *Login) keys(username, ip string) []string {
	keys := []string{l.config.KeyPrefix + "lu:" + username}
	if l.config.PerIP && ip != "" {
		keys = append(keys, l.config.KeyPrefix+"li:"+ip)
	}
	return keys
}
