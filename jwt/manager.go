package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthenticationFailure is the only error returned by Verify.
var ErrAuthenticationFailure = errors.New("authentication failure")

// ErrInvalidClaims is returned by Issue when the claims cannot form a valid token.
var ErrInvalidClaims = errors.New("invalid claims")

// SigningMethod selects the HMAC variant used for the shared secret.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256. It is the default.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 signs with HMAC-SHA384.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 signs with HMAC-SHA512.
	MethodHS512 SigningMethod = "hs512"
)

// Config holds the codec settings. It is copied by NewCodec and never mutated afterwards.
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Claims is the decoded payload of a token.
//
// Data is opaque JSON. Issue stores it compacted (insignificant whitespace removed) and
// otherwise unchanged, so Verify returns exactly the compacted form of what was issued.
type Claims struct {
	UID       string          `json:"uid"`
	ExpiresAt int64           `json:"exp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Expiry returns ExpiresAt as a time.Time.
func (c Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// DataInto decodes the optional data value into v. It is a no-op when no data was carried.
func (c Claims) DataInto(v any) error {
	if len(c.Data) == 0 {
		return nil
	}
	return json.Unmarshal(c.Data, v)
}

// Clone returns a copy of c that shares no memory with it.
func (c Claims) Clone() Claims {
	out := c
	if len(c.Data) > 0 {
		out.Data = append(json.RawMessage(nil), c.Data...)
	}
	return out
}

type wireClaims struct {
	UID  string          `json:"uid"`
	Data json.RawMessage `json:"data,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with one shared secret.
//
// Codec is immutable after NewCodec and safe for concurrent use.
type Codec struct {
	config Config
	method jwt.SigningMethod
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}

	var method jwt.SigningMethod
	switch cfg.SigningMethod {
	case MethodHS256:
		method = jwt.SigningMethodHS256
	case MethodHS384:
		method = jwt.SigningMethodHS384
	case MethodHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.New("unsupported signing method")
	}

	cfg.Secret = append([]byte(nil), cfg.Secret...)
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	return &Codec{config: cfg, method: method}, nil
}

// Issue serializes claims and signs them, returning the compact three-segment token.
func (c *Codec) Issue(claims Claims) (string, error) {
	if c == nil {
		return "", errors.New("codec not initialized")
	}
	if strings.TrimSpace(claims.UID) == "" {
		return "", ErrInvalidClaims
	}
	if claims.ExpiresAt <= 0 {
		return "", ErrInvalidClaims
	}
	var data json.RawMessage
	if len(claims.Data) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, claims.Data); err != nil {
			return "", ErrInvalidClaims
		}
		data = buf.Bytes()
	}

	wire := wireClaims{
		UID:  claims.UID,
		Data: data,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    c.config.Issuer,
		},
	}
	if c.config.Audience != "" {
		wire.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	return c.sign(wire)
}

// sign mirrors jwt.Token.SignedString but encodes the payload without HTML escaping,
// so data strings containing <, > or & verify byte for byte.
func (c *Codec) sign(wire wireClaims) (string, error) {
	header, err := json.Marshal(jwt.NewWithClaims(c.method, wire).Header)
	if err != nil {
		return "", err
	}

	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(wire); err != nil {
		return "", err
	}

	signingString := base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(bytes.TrimSuffix(payload.Bytes(), []byte("\n")))
	sig, err := c.method.Sign(signingString, c.config.Secret)
	if err != nil {
		return "", err
	}
	return signingString + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify parses token, checks its signature against the configured secret and requires
// exp to be strictly after the verification time. Any failure yields
// ErrAuthenticationFailure.
func (c *Codec) Verify(token string) (*Claims, error) {
	if c == nil || token == "" {
		return nil, ErrAuthenticationFailure
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &wireClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, ErrAuthenticationFailure
		}
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, ErrAuthenticationFailure
	}

	wire, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid || wire.ExpiresAt == nil {
		return nil, ErrAuthenticationFailure
	}
	if strings.TrimSpace(wire.UID) == "" {
		return nil, ErrAuthenticationFailure
	}

	claims := Claims{
		UID:       wire.UID,
		ExpiresAt: wire.ExpiresAt.Unix(),
		Data:      wire.Data,
	}
	return &claims, nil
}

// Segments splits a compact token into its header, payload and signature segments.
// ok is false unless there are exactly three segments.
func Segments(token string) (header, payload, signature string, ok bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
