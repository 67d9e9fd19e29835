package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(logger *zap.Logger) *Client {
	return New(logger, WithBackoffUnit(time.Millisecond))
}

func TestGetJSON_FailsTwiceThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	client := newTestClient(zap.New(core))

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
	if out.Name != "ok" {
		t.Errorf("Got %q, want ok", out.Name)
	}
	if logs.FilterMessage("attempt failed").Len() != 2 {
		t.Errorf("Expected 2 failed attempts logged, got %d", logs.FilterMessage("attempt failed").Len())
	}
}

func TestGetJSON_AlwaysFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(zap.NewNop())

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, &out)
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", statusErr.StatusCode)
	}
	if statusErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", statusErr.Attempts)
	}
}

func TestGetJSON_TransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // Nothing listens any more

	client := newTestClient(zap.NewNop())

	var out map[string]interface{}
	if err := client.GetJSON(context.Background(), url, nil, &out); err == nil {
		t.Fatal("Expected transport error")
	}
}

func TestGetJSON_SendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(nil, WithUserAgent("test-agent"))
	header := http.Header{"Accept": {"application/vnd.github.v3+json"}}

	var out map[string]interface{}
	if err := client.GetJSON(context.Background(), server.URL, header, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
}

func TestGetJSON_TruncatedBodyIsRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Promise more than is sent; the server drops the connection
			w.Header().Set("Content-Length", "100")
			w.Write([]byte(`{"name":`))
			return
		}
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	client := newTestClient(zap.New(core))

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), server.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
	if out.Name != "ok" {
		t.Errorf("Got %q, want ok", out.Name)
	}
	if logs.FilterMessage("attempt failed").Len() != 1 {
		t.Errorf("Expected the truncated attempt to be logged, got %d", logs.FilterMessage("attempt failed").Len())
	}
}

func TestGetJSON_MalformedBody(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(zap.NewNop())

	var out map[string]interface{}
	err := client.GetJSON(context.Background(), server.URL, nil, &out)
	if !errors.Is(err, errMalformedBody) {
		t.Fatalf("Expected errMalformedBody, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Error("A 200 with a bad body is not a status error")
	}
}

func TestGetJSON_SchemaMismatchNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"name":42}`))
	}))
	defer server.Close()

	client := newTestClient(zap.NewNop())

	var out struct {
		Name string `json:"name"`
	}
	if err := client.GetJSON(context.Background(), server.URL, nil, &out); err == nil {
		t.Fatal("Expected decode error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Well-formed JSON of the wrong shape should not be retried, got %d calls", got)
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := linearBackoff(time.Second)
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
		if got := backoff(0, 0, attempt, nil); got != want {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}
