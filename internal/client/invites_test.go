package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestInviteStoreUpdate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/invites/accepted", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Invite{{ID: "a1", Status: "accepted"}})
	})
	mux.HandleFunc("/invites/waiting", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Invite{{ID: "w1", Status: "waiting"}, {ID: "w2", Status: "waiting"}})
	})
	mux.HandleFunc("/invites/thinking", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Invite{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	c.session.SetTokens("at1", "rt1")
	store := NewInviteStore(c, zap.NewNop())

	if err := store.Update(context.Background()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if accepted := store.Accepted(); len(accepted) != 1 || accepted[0].ID != "a1" {
		t.Fatalf("unexpected accepted list: %+v", accepted)
	}
	if waiting := store.Waiting(); len(waiting) != 2 {
		t.Fatalf("expected 2 waiting invites, got %+v", waiting)
	}
	if thinking := store.Thinking(); len(thinking) != 0 {
		t.Fatalf("expected empty thinking list, got %+v", thinking)
	}
}

func TestInviteStoreUpdateError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/invites/accepted", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	store := NewInviteStore(c, zap.NewNop())
	store.accepted = []Invite{{ID: "keep"}}

	if err := store.Update(context.Background()); err == nil {
		t.Fatalf("expected error from backend")
	}
	// Un fetch fallido no pisa el estado previo.
	if accepted := store.Accepted(); len(accepted) != 1 || accepted[0].ID != "keep" {
		t.Fatalf("expected previous list preserved, got %+v", accepted)
	}
}

func TestInviteStorePollStopsOnCancel(t *testing.T) {
	var hits atomic.Int64
	mux := http.NewServeMux()
	empty := func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Invite{})
	}
	mux.HandleFunc("/invites/accepted", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		empty(w, r)
	})
	mux.HandleFunc("/invites/waiting", empty)
	mux.HandleFunc("/invites/thinking", empty)
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL, zap.NewNop())
	store := NewInviteStore(c, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Poll(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for hits.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("poller never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not stop on cancel")
	}
}
