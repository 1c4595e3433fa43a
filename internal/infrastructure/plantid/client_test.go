package plantid

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plantcare-backend/configs"
	"plantcare-backend/pkg/logger"
)

func testClientConfig(url string) *configs.PlantIDConfig {
	return &configs.PlantIDConfig{
		URL:        url,
		APIKey:     "test-key",
		AuthMode:   "header",
		Details:    "common_names,description",
		Language:   "en",
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func TestIdentifySuccess(t *testing.T) {
	var gotKey string
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Api-Key")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"result": {}}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), logger.Default())
	raw, err := client.Identify(context.Background(), map[string]any{"images": []string{"x"}})
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if string(raw) != `{"result": {}}` {
		t.Errorf("raw = %s", raw)
	}
	if gotKey != "test-key" {
		t.Errorf("Api-Key header = %q, want test-key", gotKey)
	}
	if gotQuery == "" {
		t.Error("expected details/language query parameters")
	}
}

func TestIdentifyRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), logger.Default())
	_, err := client.Identify(context.Background(), map[string]any{})

	if err == nil {
		t.Fatal("Identify() error = nil, want upstream error")
	}
	// MaxRetries=3 意味着总共 4 次请求
	if calls != 4 {
		t.Errorf("upstream calls = %d, want 4", calls)
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *UpstreamError", err)
	}
	if ue.Permanent {
		t.Error("Permanent = true, want false for exhausted retries")
	}
	if ue.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", ue.Attempts)
	}
	if ue.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", ue.StatusCode)
	}
}

func TestIdentifyClientErrorFailsImmediately(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), logger.Default())
	_, err := client.Identify(context.Background(), map[string]any{})

	if err == nil {
		t.Fatal("Identify() error = nil, want upstream error")
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry on 4xx)", calls)
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error type = %T, want *UpstreamError", err)
	}
	if !ue.Permanent {
		t.Error("Permanent = false, want true for client error")
	}
}

func TestIdentifyRecoversAfterTransientFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), logger.Default())
	raw, err := client.Identify(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if string(raw) != `{"ok": true}` {
		t.Errorf("raw = %s", raw)
	}
	if calls != 3 {
		t.Errorf("upstream calls = %d, want 3", calls)
	}
}

func TestIdentifyRejectsNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), logger.Default())
	_, err := client.Identify(context.Background(), map[string]any{})

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if !ue.Permanent {
		t.Error("Permanent = false, want true for malformed body")
	}
}

func TestIdentifyBodyAuthMode(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	config := testClientConfig(server.URL)
	config.AuthMode = "body"

	client := NewClient(config, logger.Default())
	if _, err := client.Identify(context.Background(), map[string]any{"images": []string{"x"}}); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}

	if !strings.Contains(string(gotBody), `"api_key":"test-key"`) {
		t.Errorf("body = %s, want api_key injected", gotBody)
	}
}

func TestIdentifyContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	config := testClientConfig(server.URL)
	config.RetryDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(config, logger.Default())
	start := time.Now()
	_, err := client.Identify(ctx, map[string]any{})

	if err == nil {
		t.Fatal("Identify() error = nil, want context error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not interrupt the backoff sleep")
	}
}
