package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), "homefeed-test/1.0", 10, 5*time.Second)

	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "<html><body>ok</body></html>" {
		t.Errorf("Expected page body, got '%s'", string(data))
	}
	if userAgent != "homefeed-test/1.0" {
		t.Errorf("Expected user agent 'homefeed-test/1.0', got '%s'", userAgent)
	}
}

func TestHTTPFetcher_Fetch_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), "homefeed-test", 10, 200*time.Millisecond)

	for _, path := range []string{"/missing", "/json", "/slow"} {
		if _, err := fetcher.Fetch(context.Background(), server.URL+path); err == nil {
			t.Errorf("Expected error for %s, got nil", path)
		}
	}
}

func TestHTTPFetcher_Fetch_CancelledContext(t *testing.T) {
	fetcher := NewHTTPFetcher(http.DefaultClient, "homefeed-test", 0.001, time.Second)

	// Drain the single token so the next call has to wait.
	fetcher.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := fetcher.Fetch(ctx, "http://127.0.0.1:1/"); err == nil {
		t.Errorf("Expected rate limiter error for expiring context")
	}
}
