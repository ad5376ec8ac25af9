package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/services"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPBackend reads and writes one document through the ticketdesk API.
type HTTPBackend struct {
	BaseURL string
	Layout  desk.Layout
	Client  *http.Client
}

// NewHTTPBackend returns a backend for layout served from baseURL.
func NewHTTPBackend(baseURL string, layout desk.Layout) *HTTPBackend {
	return &HTTPBackend{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Layout:  layout,
		Client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Fetch loads the document. The server seeds missing documents, so a
// successful response always carries categories.
func (b *HTTPBackend) Fetch(ctx context.Context) (desk.Document, error) {
	req, err := b.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return desk.Document{}, err
	}
	data, err := b.do(req, "fetch")
	if err != nil {
		return desk.Document{}, err
	}
	doc, err := b.Layout.Decode(data)
	if err != nil {
		return desk.Document{}, services.Wrap(services.ErrUpstream, "client", "fetch", "decode "+b.Layout.Name, err)
	}
	return doc, nil
}

// Replace sends doc as the complete new document.
func (b *HTTPBackend) Replace(ctx context.Context, doc desk.Document) error {
	payload, err := b.Layout.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.Layout.Name, err)
	}
	req, err := b.newRequest(ctx, http.MethodPost, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = b.do(req, "replace")
	return err
}

func (b *HTTPBackend) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	endpoint, err := url.JoinPath(b.BaseURL, "api", b.Layout.Name)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "client", "build url", b.BaseURL, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "client", "new request", endpoint, err)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	return req, nil
}

func (b *HTTPBackend) do(req *http.Request, op string) ([]byte, error) {
	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, services.Wrap(services.ErrTransient, "client", op, b.Layout.Name, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "client", op, "read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrUpstream, "client", op,
			fmt.Sprintf("http %d: %s", resp.StatusCode, serverMessage(data)), nil)
	}
	return data, nil
}

func serverMessage(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}
