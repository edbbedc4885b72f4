package password

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestHashAndVerify(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("wrong-password", hash)
	if err != nil || ok {
		t.Fatalf("expected wrong password to fail without error, ok=%v err=%v", ok, err)
	}
}

func TestHashUsesPaddedStdEncoding(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	hash, err := hasher.Hash("padded-encoding")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(hash, "$")
	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) != 16 {
		t.Fatalf("salt %q is not 16 bytes of std base64: %v", parts[4], err)
	}
	if !strings.HasSuffix(parts[4], "==") {
		t.Fatalf("expected padded salt, got %q", parts[4])
	}
	if _, err := base64.StdEncoding.DecodeString(parts[5]); err != nil {
		t.Fatalf("key %q is not std base64: %v", parts[5], err)
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	a, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("expected distinct encodings for the same password")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	old := newTestHasher(t, testConfig())
	hash, err := old.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	needs, err := old.NeedsUpgrade(hash)
	if err != nil || needs {
		t.Fatalf("expected current parameters to need no upgrade, needs=%v err=%v", needs, err)
	}

	stronger := newTestHasher(t, DefaultConfig())
	needs, err = stronger.NeedsUpgrade(hash)
	if err != nil || !needs {
		t.Fatalf("expected weaker hash to need upgrade, needs=%v err=%v", needs, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	const salt = "c2FsdHNhbHRzYWx0c2FsdA=="
	cases := []string{
		"",
		"not-a-phc-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$" + salt + "$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$" + salt + "$a2V5",
		"$argon2id$19$m=8192,t=1,p=1$" + salt + "$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$" + salt + "$a2V5",
		"$argon2id$v=19$m=8192,t=0,p=1$" + salt + "$a2V5",
		"$argon2id$v=19$m=8192,m=8192,p=1$" + salt + "$a2V5",
		"$argon2id$v=19$m=8192,t=1$" + salt + "$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA==$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$" + salt + "$",
	}
	for _, c := range cases {
		if _, err := hasher.Verify("password-123", c); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Verify(%q) = %v, want ErrInvalidHash", c, err)
		}
		if err := Validate(c); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("Validate(%q) = %v, want ErrInvalidHash", c, err)
		}
	}
}

func TestPasswordLengthBounds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPasswordBytes = 64
	hasher := newTestHasher(t, cfg)

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrPasswordLength) {
		t.Fatalf("expected short password rejected, got %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordLength) {
		t.Fatalf("expected long password rejected, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	hash, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected max-length password accepted: %v", err)
	}
	if ok, err := hasher.Verify(exact, hash); err != nil || !ok {
		t.Fatalf("Verify failed for max-length password: ok=%v err=%v", ok, err)
	}
	if _, err := hasher.Verify(strings.Repeat("c", 65), hash); !errors.Is(err, ErrPasswordLength) {
		t.Fatalf("expected long password rejected by Verify, got %v", err)
	}
}

func TestDefaultMaxPasswordBytesApplied(t *testing.T) {
	hasher := newTestHasher(t, testConfig())

	if _, err := hasher.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); err == nil {
		t.Fatalf("expected password > %d bytes to be rejected", DefaultMaxPasswordBytes)
	}
	if _, err := hasher.Hash(strings.Repeat("e", DefaultMaxPasswordBytes)); err != nil {
		t.Fatalf("expected password of exactly %d bytes to be accepted: %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	weak := []func(*Config){
		func(c *Config) { c.Memory = 1024 },
		func(c *Config) { c.Time = 0 },
		func(c *Config) { c.Parallelism = 0 },
		func(c *Config) { c.SaltLength = 8 },
		func(c *Config) { c.KeyLength = 8 },
		func(c *Config) { c.MaxPasswordBytes = 4 },
	}
	for i, mutate := range weak {
		cfg := testConfig()
		mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("case %d: expected config %+v to be rejected", i, cfg)
		}
	}
}
