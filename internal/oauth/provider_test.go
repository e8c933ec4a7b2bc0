package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/kolp/internal/config"
	"github.com/dmitrijs2005/kolp/internal/credentials"
	"github.com/dmitrijs2005/kolp/internal/logging"
)

// fakeProvider serves the token and userinfo endpoints.
type fakeProvider struct {
	srv *httptest.Server

	exchanges atomic.Int32
	refreshes atomic.Int32

	mu          sync.Mutex
	lastForm    map[string]string
	failRefresh bool
	rotate      bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.token)
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-exchanged" {
			http.Error(w, `{"error":{"code":401,"message":"bad token"}}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","email":"user@example.com","verified_email":true}`))
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.mu.Lock()
	p.lastForm = map[string]string{}
	for k := range r.PostForm {
		p.lastForm[k] = r.PostForm.Get(k)
	}
	failRefresh, rotate := p.failRefresh, p.rotate
	p.mu.Unlock()

	writeErr := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}

	resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		p.exchanges.Add(1)
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("client_secret") != "secret" {
			writeErr()
			return
		}
		resp["access_token"] = "at-exchanged"
		resp["refresh_token"] = "rt-exchanged"
	case "refresh_token":
		n := p.refreshes.Add(1)
		if failRefresh {
			writeErr()
			return
		}
		resp["access_token"] = "at-refreshed-" + string(rune('0'+n))
		if rotate {
			resp["refresh_token"] = "rt-rotated"
		}
	default:
		writeErr()
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (p *fakeProvider) form(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastForm[key]
}

func (p *fakeProvider) config(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = t.TempDir()
	cfg.RedirectPort = 0
	cfg.AuthTimeout = 5 * time.Second
	cfg.AuthURL = p.srv.URL + "/auth"
	cfg.TokenURL = p.srv.URL + "/token"
	cfg.APIEndpoint = p.srv.URL + "/"
	return cfg
}

func newStore(t *testing.T, cfg *config.Config) (*credentials.Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return credentials.NewStore(filepath.Join(cfg.DataDir, "auth"), logging.NewTextLogger(&buf, "debug")), &buf
}

// stateRecorder collects flow transitions.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
	seen   chan State
}

func newStateRecorder() *stateRecorder {
	return &stateRecorder{seen: make(chan State, 32)}
}

func (s *stateRecorder) hook(_ context.Context, st State) {
	s.mu.Lock()
	s.states = append(s.states, st)
	s.mu.Unlock()
	s.seen <- st
}

func (s *stateRecorder) all() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.states...)
}

func (s *stateRecorder) waitFor(t *testing.T, want State) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case st := <-s.seen:
			if st == want {
				return
			}
		case <-timeout:
			t.Fatalf("state %q not reached", want)
		}
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
