package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// fakeBackend simula la API de auth: /auth/refresh rota tokens y un
// endpoint protegido acepta solo el access token vigente.
type fakeBackend struct {
	accessToken  string
	refreshToken string
	dataHits     atomic.Int64
	refreshHits  atomic.Int64
	refreshFails bool
	// issueBadAccess hace que el refresh devuelva un access token que el
	// endpoint protegido rechaza.
	issueBadAccess bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshHits.Add(1)
		if b.refreshFails || r.Header.Get("Authorization") != "Bearer "+b.refreshToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b.accessToken = b.accessToken + "+"
		b.refreshToken = b.refreshToken + "+"
		issued := b.accessToken
		if b.issueBadAccess {
			issued = "bad-access"
		}
		_ = json.NewEncoder(w).Encode(TokenPair{
			AccessToken:  issued,
			RefreshToken: b.refreshToken,
			ExpiresIn:    900,
		})
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		b.dataHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+b.accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	})
	return mux
}

func TestTransportRefreshRetry(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1"}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	// Access token vencido: el backend solo acepta at1 rotado.
	c.session.SetTokens("stale", "rt1")

	var out map[string]string
	if err := c.get(context.Background(), "/data", &out); err != nil {
		t.Fatalf("expected transparent refresh, got %v", err)
	}
	if out["ok"] != "yes" {
		t.Fatalf("unexpected payload: %v", out)
	}
	if got := backend.dataHits.Load(); got != 2 {
		t.Fatalf("expected 2 data attempts, got %d", got)
	}
	if got := backend.refreshHits.Load(); got != 1 {
		t.Fatalf("expected 1 refresh call, got %d", got)
	}
	if c.session.AccessToken() != backend.accessToken {
		t.Fatalf("expected session to hold rotated access token")
	}
	if c.session.NeedsRefresh() {
		t.Fatalf("expected needsRefresh reset after rotation")
	}
}

func TestTransportRetriesOnlyOnce(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1", issueBadAccess: true}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	c.session.SetTokens("stale", "rt1")

	// El refresh emite un access token invalido: el reintento tambien
	// recibe 401 y ahi termina, sin un segundo ciclo de refresh.
	err := c.get(context.Background(), "/data", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected final 401, got %v", err)
	}
	if got := backend.dataHits.Load(); got != 2 {
		t.Fatalf("expected exactly one retry (2 attempts), got %d", got)
	}
}

func TestTransportClearsSessionWhenRefreshRejected(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1", refreshFails: true}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	c.session.SetTokens("stale", "rt1")

	err := c.get(context.Background(), "/data", nil)
	if err == nil {
		t.Fatalf("expected error after rejected refresh")
	}
	if c.session.AccessToken() != "" || c.session.RefreshToken() != "" {
		t.Fatalf("expected session cleared after rejected refresh")
	}
}

func TestTransportWithoutRefreshToken(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1"}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	c.session.SetTokens("stale", "")

	err := c.get(context.Background(), "/data", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected passthrough 401, got %v", err)
	}
	if got := backend.dataHits.Load(); got != 1 {
		t.Fatalf("expected no retry without refresh token, got %d attempts", got)
	}
	if got := backend.refreshHits.Load(); got != 0 {
		t.Fatalf("expected no refresh call, got %d", got)
	}
}

func TestClientSigninFlow(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1"}
	mux := backend.handler().(*http.ServeMux)
	mux.HandleFunc("/auth/local/signin", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] != "a@x.com" || req["password"] != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(SigninResponse{
			Tokens: &TokenPair{AccessToken: backend.accessToken, RefreshToken: backend.refreshToken},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	result, err := c.SigninLocal(context.Background(), "a@x.com", "p", true)
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if result.Tokens == nil || result.TwoFactorRequired {
		t.Fatalf("expected tokens, got %+v", result)
	}
	if c.session.AccessToken() != "at1" || c.session.RefreshToken() != "rt1" {
		t.Fatalf("expected session to hold issued tokens")
	}

	// Con la sesion activa, las requests salen con el access bearer.
	var out map[string]string
	if err := c.get(context.Background(), "/data", &out); err != nil {
		t.Fatalf("authenticated get: %v", err)
	}
	if got := backend.dataHits.Load(); got != 1 {
		t.Fatalf("expected single attempt with valid token, got %d", got)
	}
}

func TestClientSigninTwoFactorChallenge(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1"}
	mux := backend.handler().(*http.ServeMux)
	mux.HandleFunc("/auth/local/signin", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(SigninResponse{TwoFactorRequired: true, Email: "a@x.com"})
	})
	mux.HandleFunc("/auth/local/signin/2fa", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["verificationCode"] != "AB12CD" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: "at1", RefreshToken: "rt1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	result, err := c.SigninLocal(context.Background(), "a@x.com", "p", true)
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if !result.TwoFactorRequired || result.Tokens != nil {
		t.Fatalf("expected 2fa challenge, got %+v", result)
	}
	if c.session.AccessToken() != "" {
		t.Fatalf("expected no session before 2fa verification")
	}

	tokens, err := c.Verify2FA(context.Background(), "a@x.com", "AB12CD", true)
	if err != nil {
		t.Fatalf("verify 2fa: %v", err)
	}
	if tokens.AccessToken != "at1" || c.session.AccessToken() != "at1" {
		t.Fatalf("expected session established after 2fa")
	}
}

func TestClientLogoutClearsSession(t *testing.T) {
	backend := &fakeBackend{accessToken: "at1", refreshToken: "rt1"}
	mux := backend.handler().(*http.ServeMux)
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	c.session.SetTokens("at1", "rt1")
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.session.AccessToken() != "" || c.session.RefreshToken() != "" {
		t.Fatalf("expected session cleared after logout")
	}
}
