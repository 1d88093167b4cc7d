package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type staticTokens string

func (s staticTokens) Token() (string, error) { return string(s), nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, staticTokens("tok-1"), srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestDoAttachesSignedHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	})
	client.SetSession("sess-1")

	resp, err := client.Do(context.Background(), http.MethodGet, "/accounts/a/balances", nil, nil)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp["ok"] != true {
		t.Fatalf("decoded body = %v", resp)
	}

	if got.Get("Authorization") != "Bearer tok-1" {
		t.Fatalf("authorization = %q", got.Get("Authorization"))
	}
	if got.Get("Accept") != "application/json" {
		t.Fatalf("accept = %q", got.Get("Accept"))
	}
	if got.Get(SessionHeader) != "sess-1" {
		t.Fatalf("session header = %q", got.Get(SessionHeader))
	}
	if got.Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
}

func TestWithoutSessionSuppressesHeader(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	})
	client.SetSession("sess-1")

	if _, err := client.Do(context.Background(), http.MethodPost, "/auth", nil, map[string]any{"state": "s"}, WithoutSession()); err != nil {
		t.Fatalf("do: %v", err)
	}
	if got.Get(SessionHeader) != "" {
		t.Fatalf("session header leaked on consent call: %q", got.Get(SessionHeader))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Fatalf("content type = %q", got.Get("Content-Type"))
	}
}

func TestDoEncodesBodyAndQuery(t *testing.T) {
	var (
		gotBody  []byte
		gotQuery url.Values
	)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	query := url.Values{"date_from": {"2024-01-01"}}
	body := map[string]any{"code": "abc", "aspsp": map[string]any{"name": "Bank"}}
	if _, err := client.Do(context.Background(), http.MethodPost, "/sessions", query, body); err != nil {
		t.Fatalf("do: %v", err)
	}

	if gotQuery.Get("date_from") != "2024-01-01" {
		t.Fatalf("query = %v", gotQuery)
	}
	var decoded map[string]any
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("request body not json: %v", err)
	}
	if decoded["code"] != "abc" {
		t.Fatalf("body = %v", decoded)
	}
}

func TestNonSuccessReturnsAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"redirect_url not whitelisted"}`))
	})

	_, err := client.Do(context.Background(), http.MethodPost, "/auth", nil, map[string]any{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", apiErr.Status)
	}
	if len(apiErr.Body) == 0 {
		t.Fatal("error body dropped")
	}
}

func TestUndecodableSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	if _, err := client.Do(context.Background(), http.MethodGet, "/accounts/a/balances", nil, nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("got %v, want ErrDecode", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", staticTokens("t"), nil); err == nil {
		t.Fatal("empty base url accepted")
	}
	if _, err := New("not-a-url", staticTokens("t"), nil); err == nil {
		t.Fatal("relative base url accepted")
	}
	if _, err := New("https://api.enablebanking.com", nil, nil); err == nil {
		t.Fatal("nil token source accepted")
	}
}
