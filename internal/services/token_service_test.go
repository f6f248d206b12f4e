package services

import (
	"strings"
	"testing"
	"time"
)

func newTestTokens(ttl time.Duration) TokenService {
	return NewTokenService("test-secret", ttl, "ManShanSpace", "ManShanSpaceUsers")
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokens(200 * time.Minute)

	token, err := svc.Issue(1, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UID != 1 || claims.Email != "a@b.com" {
		t.Fatalf("claims = uid=%d email=%q, want uid=1 email=a@b.com", claims.UID, claims.Email)
	}
	if claims.Issuer != "ManShanSpace" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	exp := claims.ExpiresAt.Time
	iat := claims.IssuedAt.Time
	if got := exp.Sub(iat); got != 200*time.Minute {
		t.Fatalf("exp-iat = %s, want 200m", got)
	}
}

func TestTokenTampered(t *testing.T) {
	svc := newTestTokens(time.Hour)

	token, err := svc.Issue(7, "x@y.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// flip one character of the signature
	last := token[len(token)-1]
	flip := byte('A')
	if last == 'A' {
		flip = 'B'
	}
	tampered := token[:len(token)-1] + string(flip)

	if _, err := svc.Validate(tampered); err != ErrTokenSignature && err != ErrTokenMalformed {
		t.Fatalf("Validate(tampered) = %v, want signature or malformed error", err)
	}
}

func TestTokenExpired(t *testing.T) {
	svc := newTestTokens(-time.Minute)

	token, err := svc.Issue(1, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrTokenExpired {
		t.Fatalf("Validate(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	svc := newTestTokens(time.Hour)

	for _, tok := range []string{"", "garbage", "a.b", strings.Repeat("x", 64)} {
		if _, err := svc.Validate(tok); err != ErrTokenMalformed {
			t.Fatalf("Validate(%q) = %v, want ErrTokenMalformed", tok, err)
		}
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := newTestTokens(time.Hour).Issue(1, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenService("other-secret", time.Hour, "ManShanSpace", "ManShanSpaceUsers")
	if _, err := other.Validate(token); err != ErrTokenSignature {
		t.Fatalf("Validate with wrong secret = %v, want ErrTokenSignature", err)
	}
}

func TestTokenRefresh(t *testing.T) {
	svc := newTestTokens(time.Hour)

	token, err := svc.Issue(42, "r@s.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	refreshed, err := svc.Refresh(token)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := svc.Validate(refreshed)
	if err != nil {
		t.Fatalf("Validate(refreshed): %v", err)
	}
	if claims.UID != 42 || claims.Email != "r@s.com" {
		t.Fatalf("refreshed claims = uid=%d email=%q", claims.UID, claims.Email)
	}
}

func TestTokenRefreshRejectsExpired(t *testing.T) {
	svc := newTestTokens(-time.Minute)

	token, err := svc.Issue(1, "a@b.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Refresh(token); err != ErrTokenExpired {
		t.Fatalf("Refresh(expired) = %v, want ErrTokenExpired", err)
	}
}
