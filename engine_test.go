package goBanking

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/MrEthical07/goBanking/session"
)

var (
	testKeyOnce sync.Once
	testKeyPEM  []byte
	testKeyErr  error
)

func testPrivateKeyPEM(t *testing.T) []byte {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testKeyErr = err
			return
		}
		testKeyPEM = pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		})
	})
	if testKeyErr != nil {
		t.Fatalf("generate test key: %v", testKeyErr)
	}
	return testKeyPEM
}

// memStore is an in-memory session.Store for engine tests.
type memStore struct {
	mu      sync.Mutex
	state   *session.PersistedState
	saveErr error
	saves   int
	clears  int
}

func (s *memStore) Save(_ context.Context, state *session.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	clone := *state
	s.state = &clone
	return nil
}

func (s *memStore) Load(context.Context) (*session.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	clone := *s.state
	return &clone, nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.state = nil
	return nil
}

func (s *memStore) snapshot() *session.PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return body
}

func newTestEngine(t *testing.T, server *httptest.Server, mutate func(*Builder)) (*Engine, *memStore) {
	t.Helper()

	store := &memStore{}
	b := New().
		WithConfig(Config{
			Credentials: CredentialsConfig{
				AppID:         "11111111-2222-3333-4444-555555555555",
				PrivateKeyPEM: testPrivateKeyPEM(t),
			},
			API:   APIConfig{BaseURL: server.URL},
			Audit: AuditConfig{Enabled: false},
		}).
		WithStore(store)
	if mutate != nil {
		mutate(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, store
}

// exchangeHandler serves the consent and exchange endpoints with canned
// responses, embedding the request's state token into the consent URL so
// tests can echo it back.
func exchangeHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(sessionHeaderForTest) != "" {
			t.Errorf("consent request carried a session header")
		}
		body := decodeBody(t, r)
		state, _ := body["state"].(string)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"url": "https://bank.example/consent?state=" + state,
		})
	})
	mux.HandleFunc("POST /sessions", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if code, _ := body["code"].(string); code == "" {
			writeJSON(t, w, http.StatusBadRequest, map[string]any{"error": "missing code"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"session_id": "sess-1",
			"accounts": []any{
				map[string]any{"uid": "acc-1", "name": "Everyday"},
				map[string]any{"uid": "acc-2", "iban": "FI2112345600000785"},
			},
		})
	})
	return mux
}

const sessionHeaderForTest = "X-EnableBanking-Session"

// authenticate drives a full consent flow against the server and leaves the
// engine holding sess-1 with two accounts.
func authenticate(t *testing.T, engine *Engine, server *httptest.Server) *session.Session {
	t.Helper()

	flow, err := engine.StartConsent(context.Background(), ConsentParams{
		ASPSPName:   "Nordea",
		Country:     "FI",
		RedirectURL: "http://127.0.0.1/callback",
	})
	if err != nil {
		t.Fatalf("start consent: %v", err)
	}
	state := stateFromConsentURL(t, flow.URL())
	sess, err := flow.Exchange(context.Background(), "http://127.0.0.1/callback?code=auth-code&state="+state)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	return sess
}

func stateFromConsentURL(t *testing.T, consentURL string) string {
	t.Helper()
	u, err := url.Parse(consentURL)
	if err != nil {
		t.Fatalf("parse consent url: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatalf("consent url %q carries no state", consentURL)
	}
	return state
}

func wantErrIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("got error %v, want %v", err, target)
	}
}
