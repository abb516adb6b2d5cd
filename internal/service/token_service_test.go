package service

import (
	"errors"
	"testing"
	"time"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := NewTokenService("at-secret", "rt-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := svc.Issue("u1", "user@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected tokens")
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in: %d", pair.ExpiresIn)
	}

	claims, err := svc.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "user@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	claims, err = svc.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("unexpected refresh claims: %+v", claims)
	}
}

func TestTokenService_DistinctSecrets(t *testing.T) {
	svc := NewTokenService("at-secret", "rt-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := svc.Issue("u1", "user@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Un refresh no valida como access ni al reves.
	if _, err := svc.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected refresh token to fail access parse, got %v", err)
	}
	if _, err := svc.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected access token to fail refresh parse, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("at-secret", "rt-secret", 15*time.Minute, 7*24*time.Hour)
	expired, err := svc.signToken("u1", "user@example.com", time.Now().UTC().Add(-time.Hour), time.Minute, svc.accessSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ParseAccess(expired); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestTokenService_RejectsForeignIssuer(t *testing.T) {
	svc := NewTokenService("at-secret", "rt-secret", 15*time.Minute, 7*24*time.Hour)
	other := NewTokenService("at-secret", "rt-secret", 15*time.Minute, 7*24*time.Hour)
	other.issuer = "someone-else"

	pair, err := other.Issue("u1", "user@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ParseAccess(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected foreign issuer to be rejected, got %v", err)
	}
}

func TestTokenService_EmptyToken(t *testing.T) {
	svc := NewTokenService("at-secret", "rt-secret", 15*time.Minute, 7*24*time.Hour)
	if _, err := svc.ParseAccess("  "); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}
