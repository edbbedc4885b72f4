package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisSessionTest(t *testing.T) (*miniredis.Miniredis, *redis.Client, *RedisBackend) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb, NewRedisBackend(rdb)
}

func testClaims(uid string) jwt.Claims {
	return jwt.Claims{UID: uid, ExpiresAt: time.Now().Add(time.Hour).Unix(), Data: []byte(`{"plan":"pro"}`)}
}

func TestSetThenGet(t *testing.T) {
	mr, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "42_sig", testClaims("42"))

	if err := sess.Set(ctx, "color", "blue"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := Get[string](ctx, sess, "color")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "blue" {
		t.Fatalf("expected blue, got %q", got)
	}
	if v := mr.HGet("42_sig", "color"); v != "blue" {
		t.Fatalf("expected hash field in store, got %q", v)
	}
}

func TestGetMissingFieldIsNotFound(t *testing.T) {
	_, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "42_sig", testClaims("42"))

	if _, err := Get[string](ctx, sess, "missing_field"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty record, got %v", err)
	}

	if err := sess.Set(ctx, "present", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := Get[int64](ctx, sess, "missing_field"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on existing record, got %v", err)
	}
}

func TestTypedRoundTrip(t *testing.T) {
	_, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "1_sig", testClaims("1"))

	mustSet := func(field string, v any) {
		t.Helper()
		if err := sess.Set(ctx, field, v); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	mustSet("count", 42)
	mustSet("big", uint64(1<<63))
	mustSet("ratio", 0.25)
	mustSet("admin", true)
	mustSet("blob", []byte{0x00, 0xff, 0x10})
	mustSet("ip", net.ParseIP("10.0.0.1"))

	if v, err := Get[int](ctx, sess, "count"); err != nil || v != 42 {
		t.Fatalf("int: %v %v", v, err)
	}
	if v, err := sess.GetInt64(ctx, "count"); err != nil || v != 42 {
		t.Fatalf("int64: %v %v", v, err)
	}
	if v, err := Get[uint64](ctx, sess, "big"); err != nil || v != 1<<63 {
		t.Fatalf("uint64: %v %v", v, err)
	}
	if v, err := Get[float64](ctx, sess, "ratio"); err != nil || v != 0.25 {
		t.Fatalf("float64: %v %v", v, err)
	}
	if v, err := sess.GetBool(ctx, "admin"); err != nil || !v {
		t.Fatalf("bool: %v %v", v, err)
	}
	if v, err := Get[[]byte](ctx, sess, "blob"); err != nil || string(v) != "\x00\xff\x10" {
		t.Fatalf("bytes: %v %v", v, err)
	}
	if v, err := sess.GetString(ctx, "ip"); err != nil || v != "10.0.0.1" {
		t.Fatalf("text marshaler: %v %v", v, err)
	}
}

func TestGetTypeMismatch(t *testing.T) {
	_, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "1_sig", testClaims("1"))

	if err := sess.Set(ctx, "color", "blue"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := Get[int64](ctx, sess, "color"); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
	if _, err := sess.GetBool(ctx, "color"); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
	var target struct{ A int }
	if err := sess.GetJSON(ctx, "color", &target); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType for JSON decode, got %v", err)
	}
}

func TestSetUnsupportedValueIsStoreError(t *testing.T) {
	mr, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "1_sig", testClaims("1"))

	if err := sess.Set(ctx, "bad", struct{ X int }{1}); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if mr.Exists("1_sig") {
		t.Fatal("unsupported value must not reach the store")
	}
}

func TestWrongTypeRecordIsStoreError(t *testing.T) {
	_, rdb, backend := newRedisSessionTest(t)
	ctx := context.Background()
	if err := rdb.Set(ctx, "1_sig", "plain-string", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sess := New(backend, "1_sig", testClaims("1"))

	if err := sess.Set(ctx, "color", "blue"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore on WRONGTYPE write, got %v", err)
	}
	if _, err := sess.GetString(ctx, "color"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore on WRONGTYPE read, got %v", err)
	}
}

func TestUnreachableStoreIsConnectionError(t *testing.T) {
	mr, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "1_sig", testClaims("1"))
	mr.Close()

	if err := sess.Set(ctx, "color", "blue"); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection on set, got %v", err)
	}
	if _, err := sess.GetString(ctx, "color"); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection on get, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	_, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	sess := New(backend, "1_sig", testClaims("1"))

	type cart struct {
		Items []string `json:"items"`
		Total int      `json:"total"`
	}
	if err := sess.SetJSON(ctx, "cart", cart{Items: []string{"a", "b"}, Total: 3}); err != nil {
		t.Fatalf("set json: %v", err)
	}
	var got cart
	if err := sess.GetJSON(ctx, "cart", &got); err != nil {
		t.Fatalf("get json: %v", err)
	}
	if len(got.Items) != 2 || got.Total != 3 {
		t.Fatalf("unexpected cart %+v", got)
	}
}

func TestSessionsWithDifferentKeysAreIsolated(t *testing.T) {
	_, _, backend := newRedisSessionTest(t)
	ctx := context.Background()
	one := New(backend, "1_sigA", testClaims("1"))
	two := New(backend, "2_sigB", testClaims("2"))

	if err := one.Set(ctx, "color", "red"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := two.GetString(ctx, "color"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected write under one key to be invisible under another, got %v", err)
	}
	if one.RequestID() == two.RequestID() {
		t.Fatal("expected distinct request ids")
	}
}

func TestClaimsAreCopied(t *testing.T) {
	claims := testClaims("42")
	sess := New(nil, "k", claims)
	claims.Data[0] = 'X'

	got := sess.Claims()
	if got.UID != "42" || string(got.Data) != `{"plan":"pro"}` {
		t.Fatalf("unexpected claims %+v", got)
	}
	got.Data[0] = 'Y'
	if string(sess.Claims().Data) != `{"plan":"pro"}` {
		t.Fatal("Claims must not expose internal storage")
	}
}

func TestNilBackendIsConnectionError(t *testing.T) {
	sess := New(nil, "k", testClaims("1"))
	if err := sess.Set(context.Background(), "a", "b"); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if _, err := sess.GetRaw(context.Background(), "a"); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}
