package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenIssuer(t *testing.T) {
	if _, err := NewTokenIssuer(TokenConfig{Secret: []byte("short")}); err == nil {
		t.Error("NewTokenIssuer() accepted a short secret")
	}

	issuer, err := NewTokenIssuer(TokenConfig{Secret: []byte(testSecret)})
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	if issuer.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", issuer.ttl, DefaultTokenTTL)
	}
	if issuer.now == nil {
		t.Error("now not defaulted")
	}
}

func TestIssue_Claims(t *testing.T) {
	clock := newClock()
	issuer := testIssuer(t, clock)

	token, claims, err := issuer.Issue("alice@acme.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a compact JWS", token)
	}
	if claims.Email != "alice@acme.com" {
		t.Errorf("Email = %q, want alice@acme.com", claims.Email)
	}
	if !claims.IssuedAt.Time.Equal(clock.now) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt.Time, clock.now)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 24*time.Hour {
		t.Errorf("exp - iat = %v, want 24h", got)
	}
	if claims.ID == "" {
		t.Error("jti is empty")
	}

	if _, _, err := issuer.Issue(""); err == nil {
		t.Error("Issue(\"\") should fail")
	}
}

func TestIssue_SameSecondTokensDiffer(t *testing.T) {
	issuer := testIssuer(t, newClock())

	t1, _, err := issuer.Issue("alice@acme.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	t2, _, err := issuer.Issue("alice@acme.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if t1 == t2 {
		t.Error("tokens issued in the same second are identical")
	}
}

// Expiry is inclusive: valid at exactly exp, invalid one instant later.
func TestValidate_ExpiryBoundary(t *testing.T) {
	clock := newClock()
	issuer := testIssuer(t, clock)

	token, claims, err := issuer.Issue("alice@acme.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	exp := claims.ExpiresAt.Time

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"at issuance", clock.now, false},
		{"one second before exp", exp.Add(-time.Second), false},
		{"exactly at exp", exp, false},
		{"one nanosecond after exp", exp.Add(time.Nanosecond), true},
		{"one hour after exp", exp.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = tt.at
			got, err := issuer.Validate(token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() at %v error = %v, wantErr %v", tt.at, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Validate() error = %v, want ErrTokenInvalid", err)
			}
			if err == nil && got.Email != "alice@acme.com" {
				t.Errorf("Email = %q", got.Email)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	clock := newClock()
	issuer := testIssuer(t, clock)
	good, _, err := issuer.Issue("alice@acme.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherIssuer, err := NewTokenIssuer(TokenConfig{
		Secret: []byte("a-completely-different-secret-of-32+"),
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	foreign, _, err := otherIssuer.Issue("alice@acme.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	parts := strings.Split(good, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"email":"mallory@acme.com","exp":4102444800}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("signing test token: %v", err)
		}
		return s
	}
	exp := jwt.NewNumericDate(clock.now.Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered payload", tampered},
		{"wrong secret", foreign},
		{"HS512", sign(jwt.SigningMethodHS512, []byte(testSecret),
			&Claims{Email: "alice@acme.com", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
			&Claims{Email: "alice@acme.com", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"missing email", sign(jwt.SigningMethodHS256, []byte(testSecret),
			&Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"missing exp", sign(jwt.SigningMethodHS256, []byte(testSecret),
			&Claims{Email: "alice@acme.com"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Validate(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Validate() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	if len(h) != 64 {
		t.Errorf("HashToken() length = %d, want 64 hex chars", len(h))
	}
	if h != HashToken("abc") {
		t.Error("HashToken() is not deterministic")
	}
	if h == HashToken("abd") {
		t.Error("HashToken() collides on different input")
	}
}
