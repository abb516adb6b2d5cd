package oauth42

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newFakeIntra(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.GrantType != "authorization_code" || req.ClientID != "cid" ||
			req.ClientSecret != "secret" || req.RedirectURI != "http://localhost/cb" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if req.Code != "good-code" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "intra-token"})
	})
	mux.HandleFunc("/v2/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer intra-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(Profile{
			Email:    "a@student.42.fr",
			Login:    "alice",
			ImageURL: "https://cdn.intra.42.fr/alice.jpg",
		})
	})
	return httptest.NewServer(mux)
}

func TestExchangeCode(t *testing.T) {
	server := newFakeIntra(t)
	defer server.Close()

	c := NewClient(server.URL, "cid", "secret", "http://localhost/cb", zap.NewNop())
	profile, err := c.ExchangeCode(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if profile.Email != "a@student.42.fr" || profile.Login != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.ImageURL == "" {
		t.Fatalf("expected profile image url")
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	server := newFakeIntra(t)
	defer server.Close()

	c := NewClient(server.URL, "cid", "secret", "http://localhost/cb", zap.NewNop())
	if _, err := c.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatalf("expected error for rejected code")
	}
}

func TestExchangeCodeBadCredentials(t *testing.T) {
	server := newFakeIntra(t)
	defer server.Close()

	c := NewClient(server.URL, "cid", "wrong-secret", "http://localhost/cb", zap.NewNop())
	if _, err := c.ExchangeCode(context.Background(), "good-code"); err == nil {
		t.Fatalf("expected error for bad client credentials")
	}
}

func TestExchangeCodeProfileWithoutEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "intra-token"})
	})
	mux.HandleFunc("/v2/me", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"login": "alice"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(server.URL, "cid", "secret", "http://localhost/cb", zap.NewNop())
	if _, err := c.ExchangeCode(context.Background(), "any"); err == nil {
		t.Fatalf("expected error for profile without email")
	}
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	c := NewClient("", "cid", "secret", "http://localhost/cb", zap.NewNop())
	if c.baseURL != "https://api.intra.42.fr" {
		t.Fatalf("unexpected default base url: %s", c.baseURL)
	}
}
