package daemonctl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","documents":["/d/tickets.json","/d/incidents.json"]}`))
	}))
	defer srv.Close()

	health := Probe(context.Background(), srv.URL+"/", nil)
	if !health.Running || len(health.Documents) != 2 {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestProbeNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	health := Probe(context.Background(), url, nil)
	if health.Running || health.Detail != "not reachable" {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestProbeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if health := Probe(context.Background(), srv.URL, nil); health.Running {
		t.Fatalf("expected not running, got %+v", health)
	}
}
