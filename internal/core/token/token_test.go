package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinemabook/authgate/internal/core/domain"
)

var testSecret = []byte(strings.Repeat("k", MinKeyLength))

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newPair(t *testing.T, clock *fakeClock) (*Issuer, *Validator) {
	t.Helper()
	key, err := NewKey(testSecret)
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	iss, err := NewIssuer(key, DefaultLifetime, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	val, err := NewValidator(key, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return iss, val
}

func testUser() *domain.User {
	return &domain.User{
		ID:          "2f1c7c3e-5d6b-4c4e-9a57-6a3bb1e0c1aa",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Role:        domain.RoleCustomer,
	}
}

func TestNewKey_RejectsShortSecret(t *testing.T) {
	_, err := NewKey([]byte(strings.Repeat("k", MinKeyLength-1)))
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	if _, err := NewKey(nil); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError for empty key, got %v", err)
	}
}

func TestNewKey_CopiesSecret(t *testing.T) {
	secret := []byte(strings.Repeat("a", MinKeyLength))
	key, err := NewKey(secret)
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	secret[0] = 'b'
	if key.bytes()[0] != 'a' {
		t.Fatalf("key must not alias caller's buffer")
	}
}

func TestNewIssuer_ZeroKey(t *testing.T) {
	if _, err := NewIssuer(Key{}, time.Hour); err == nil {
		t.Fatalf("expected error for zero key")
	}
	if _, err := NewValidator(Key{}); err == nil {
		t.Fatalf("expected error for zero key")
	}
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss, val := newPair(t, clock)

	for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleAdmin} {
		user := testUser()
		user.Role = role

		signed, err := iss.Issue(user)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		claims, err := val.Validate(signed)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if claims.Subject != user.ID || claims.Email != user.Email || claims.Role != role || claims.Name != user.DisplayName {
			t.Fatalf("claims mismatch: %+v", claims)
		}
		if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultLifetime {
			t.Fatalf("expected lifetime %v, got %v", DefaultLifetime, got)
		}
		if !claims.IssuedAt.Time.Equal(clock.t) {
			t.Fatalf("unexpected iat %v", claims.IssuedAt.Time)
		}
	}
}

func TestIssue_RejectsIncompleteIdentity(t *testing.T) {
	iss, _ := newPair(t, &fakeClock{t: time.Now()})

	if _, err := iss.Issue(nil); err == nil {
		t.Fatalf("expected error for nil user")
	}
	u := testUser()
	u.Role = "SUPERUSER"
	if _, err := iss.Issue(u); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestValidate_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	iss, val := newPair(t, clock)

	signed, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.t = clock.t.Add(DefaultLifetime + time.Second)
	_, err = val.Validate(signed)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected error to wrap ErrInvalidToken")
	}
}

func TestValidate_ExpiredAndForgedIsStillRejected(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	_, val := newPair(t, clock)

	claims := &Claims{
		Email: "mallory@example.com",
		Role:  domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(100 * 24 * time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).
		SignedString([]byte(strings.Repeat("x", MinKeyLength)))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := val.Validate(forged); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestValidate_TamperedPayload(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	iss, val := newPair(t, clock)

	signed, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	// Re-encode the payload with an escalated role.
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	payload["role"] = string(domain.RoleAdmin)
	escalated, _ := json.Marshal(payload)
	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(escalated) + "." + parts[2]

	if _, err := val.Validate(forged); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for escalated role, got %v", err)
	}

	// Flipping any single payload byte must never yield a valid token.
	for i := 0; i < len(parts[1]); i++ {
		b := []byte(parts[1])
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		mutated := parts[0] + "." + string(b) + "." + parts[2]
		if _, err := val.Validate(mutated); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("byte %d: expected rejection, got %v", i, err)
		}
	}
}

func TestValidate_Malformed(t *testing.T) {
	_, val := newPair(t, &fakeClock{t: time.Now()})

	for _, tc := range []string{"", "not-a-token", "a.b", "a.b.c.d", "....."} {
		if _, err := val.Validate(tc); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%q: expected invalid token, got %v", tc, err)
		}
	}
	if _, err := val.Validate("not-a-token"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	_, val := newPair(t, clock)

	claims := &Claims{
		Email: "alice@example.com",
		Role:  domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := val.Validate(hs256); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected HS256 token to be rejected, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := val.Validate(none); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected alg=none token to be rejected, got %v", err)
	}
}

func TestValidate_RequiresExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	_, val := newPair(t, clock)

	claims := &Claims{
		Email: "alice@example.com",
		Role:  domain.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "alice",
			IssuedAt: jwt.NewNumericDate(clock.t),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := val.Validate(signed); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected token without exp to be rejected as malformed, got %v", err)
	}
}

func TestValidate_UnknownRole(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	_, val := newPair(t, clock)

	claims := &Claims{
		Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := val.Validate(signed); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}
