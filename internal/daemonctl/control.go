package daemonctl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const probeTimeout = 2 * time.Second

// Health is what a running server reports about itself.
type Health struct {
	Running   bool
	URL       string
	Documents []string
	Detail    string
}

type healthResponse struct {
	Status    string   `json:"status"`
	Documents []string `json:"documents"`
}

// Probe asks the server at serverURL for /api/health. A server that cannot
// be reached is reported as not running rather than as an error.
func Probe(ctx context.Context, serverURL string, client *http.Client) Health {
	base := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	health := Health{URL: base}
	if base == "" {
		health.Detail = "no server url"
		return health
	}
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/health", nil)
	if err != nil {
		health.Detail = fmt.Sprintf("invalid url (%v)", err)
		return health
	}
	resp, err := client.Do(req)
	if err != nil {
		health.Detail = "not reachable"
		return health
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		health.Detail = fmt.Sprintf("health check failed (%d)", resp.StatusCode)
		return health
	}
	var payload healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Status != "ok" {
		health.Detail = "unexpected health response"
		return health
	}
	health.Running = true
	health.Documents = payload.Documents
	health.Detail = "running"
	return health
}
