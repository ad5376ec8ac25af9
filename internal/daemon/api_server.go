package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"ticketdesk/internal/config"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/logging"
	"ticketdesk/internal/services/chat"
	"ticketdesk/internal/services/transcribe"
)

// Transcription uploads are audio files, so they get their own ceiling.
const maxAudioBytes = 512 << 20

type documentStore interface {
	Layout() desk.Layout
	Path() string
	Load(ctx context.Context) (desk.Document, error)
	Replace(ctx context.Context, doc desk.Document) error
}

type chatStreamer interface {
	Model() string
	Stream(ctx context.Context, model string, messages []chat.Message, onChunk func(string) error) (string, error)
}

type transcriber interface {
	Transcribe(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

type apiServer struct {
	bind        string
	logger      *slog.Logger
	maxBody     int64
	staticDir   string
	stores      []documentStore
	chat        chatStreamer
	transcriber transcriber

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, stores []documentStore, chatClient chatStreamer, tr transcriber, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:        strings.TrimSpace(cfg.Server.Bind),
		logger:      logging.NewComponentLogger(logger, "api-server"),
		maxBody:     cfg.Server.MaxBodyBytes,
		staticDir:   cfg.Paths.StaticDir,
		stores:      stores,
		chat:        chatClient,
		transcriber: tr,
	}
	return srv
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	for _, st := range s.stores {
		mux.HandleFunc("/api/"+st.Layout().Name, s.handleDocument(st))
	}
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/transcribe-assembly", s.handleTranscribe)
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return requestIDMiddleware(loggingMiddleware(s.logger, mux))
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	// No WriteTimeout: chat streams and transcription polls outlive any
	// fixed response deadline.
	server := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
		}
	}
	if listener != nil {
		_ = listener.Close()
	}
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

type healthResponse struct {
	Status    string   `json:"status"`
	Documents []string `json:"documents"`
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	docs := make([]string, 0, len(s.stores))
	for _, st := range s.stores {
		docs = append(docs, st.Path())
	}
	s.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Documents: docs})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.ErrorWithContext(s.log(r), "failed to encode response", "api_encode_failed", logging.Error(err))
	}
}

func (s *apiServer) writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, r, status, map[string]string{"error": message})
}

func (s *apiServer) log(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), s.logger)
}
