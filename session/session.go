package session

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/google/uuid"
)

// Value lists the Go types Get can convert a stored field into.
type Value interface {
	string | []byte | int | int64 | uint64 | float64 | bool
}

// Session is the per-request handle bundling a store backend, the derived session key and
// the decoded claims of the presented token.
//
// A Session is built once per authenticated request and must not be shared with other
// requests. Writes from concurrent requests that present the same token are not ordered;
// only the store's per-field atomicity applies, and a sequence of Set calls is not a
// transaction.
type Session struct {
	backend   Backend
	key       string
	claims    jwt.Claims
	requestID string
}

// New binds backend, key and claims into a Session with a fresh request id.
func New(backend Backend, key string, claims jwt.Claims) *Session {
	return &Session{
		backend:   backend,
		key:       key,
		claims:    claims.Clone(),
		requestID: uuid.NewString(),
	}
}

// Key returns the store key of the session record.
func (s *Session) Key() string {
	return s.key
}

// RequestID identifies the request that owns this Session.
func (s *Session) RequestID() string {
	return s.requestID
}

// Claims returns the decoded claims carried by the request. It performs no I/O.
func (s *Session) Claims() jwt.Claims {
	return s.claims.Clone()
}

// Set writes value under field.
//
// Supported values are strings, byte slices, booleans, integer and float kinds, and
// encoding.TextMarshaler implementations. Other types fail with ErrStore without touching
// the store.
func (s *Session) Set(ctx context.Context, field string, value any) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}
	if s == nil || s.backend == nil {
		return ErrConnection
	}
	return s.backend.SetField(ctx, s.key, field, encoded)
}

// SetJSON stores v as its JSON encoding.
func (s *Session) SetJSON(ctx context.Context, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return s.Set(ctx, field, data)
}

// GetRaw returns the stored textual value of field.
func (s *Session) GetRaw(ctx context.Context, field string) (string, error) {
	if s == nil || s.backend == nil {
		return "", ErrConnection
	}
	return s.backend.GetField(ctx, s.key, field)
}

// GetString is Get[string].
func (s *Session) GetString(ctx context.Context, field string) (string, error) {
	return Get[string](ctx, s, field)
}

// GetInt64 is Get[int64].
func (s *Session) GetInt64(ctx context.Context, field string) (int64, error) {
	return Get[int64](ctx, s, field)
}

// GetBool is Get[bool].
func (s *Session) GetBool(ctx context.Context, field string) (bool, error) {
	return Get[bool](ctx, s, field)
}

// GetJSON decodes the JSON value stored under field into v.
func (s *Session) GetJSON(ctx context.Context, field string, v any) error {
	raw, err := s.GetRaw(ctx, field)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrType, err)
	}
	return nil
}

// Get reads field and converts it to T. A missing field is ErrNotFound, never the zero
// value; a value that does not parse as T is ErrType.
func Get[T Value](ctx context.Context, s *Session, field string) (T, error) {
	var zero T
	raw, err := s.GetRaw(ctx, field)
	if err != nil {
		return zero, err
	}
	return decodeValue[T](raw)
}

func decodeValue[T Value](raw string) (T, error) {
	var out T
	var err error

	switch p := any(&out).(type) {
	case *string:
		*p = raw
	case *[]byte:
		*p = []byte(raw)
	case *int:
		var v int64
		v, err = strconv.ParseInt(raw, 10, strconv.IntSize)
		*p = int(v)
	case *int64:
		*p, err = strconv.ParseInt(raw, 10, 64)
	case *uint64:
		*p, err = strconv.ParseUint(raw, 10, 64)
	case *float64:
		*p, err = strconv.ParseFloat(raw, 64)
	case *bool:
		*p, err = strconv.ParseBool(raw)
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrType, err)
	}
	return out, nil
}

func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStore, err)
		}
		return string(text), nil
	default:
		return "", fmt.Errorf("%w: unsupported value type %T", ErrStore, value)
	}
}
