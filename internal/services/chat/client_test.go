package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ticketdesk/internal/services"
)

func TestStreamRelaysDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload completionRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !payload.Stream || payload.Temperature != DefaultTemperature || payload.MaxTokens != DefaultMaxTokens {
			t.Errorf("unexpected payload %+v", payload)
		}
		if payload.Model != "custom-model" {
			t.Errorf("model = %q, want custom-model", payload.Model)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/v1"})
	var chunks []string
	full, err := client.Stream(context.Background(), "custom-model", []Message{{Role: "user", Content: "hi"}}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if full != "Hello" {
		t.Fatalf("full = %q, want Hello", full)
	}
	if strings.Join(chunks, "|") != "Hel|lo" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestStreamUsesConfiguredModelByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload completionRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Model != DefaultModel {
			t.Errorf("model = %q, want %q", payload.Model, DefaultModel)
		}
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Stream(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, nil); err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
}

func TestStreamRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n")
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := NewClient(Config{BaseURL: server.URL},
		WithRetryBackoff(10*time.Millisecond, 15*time.Millisecond),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	full, err := client.Stream(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	if full != "ok" {
		t.Fatalf("full = %q", full)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(sleeps) != 2 || sleeps[0] != 10*time.Millisecond || sleeps[1] != 15*time.Millisecond {
		t.Fatalf("unexpected backoff sequence %v", sleeps)
	}
}

func TestStreamDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.Stream(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream marker, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestStreamStopsOnCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n")
	}))
	defer server.Close()

	stop := errors.New("client went away")
	client := NewClient(Config{BaseURL: server.URL})
	full, err := client.Stream(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, func(string) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if full != "a" {
		t.Fatalf("full = %q, want a", full)
	}
}

func TestStreamRequiresMessages(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Stream(context.Background(), "", nil, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	if err := NewClient(Config{BaseURL: server.URL + "/v1/"}).Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if err := NewClient(Config{BaseURL: server.URL + "/other"}).Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure for missing endpoint")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("parseRetryAfter(3) = %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Fatal("negative values should be rejected")
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("empty value should be rejected")
	}
}
