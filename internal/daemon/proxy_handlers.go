package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"ticketdesk/internal/logging"
	"ticketdesk/internal/services"
	"ticketdesk/internal/services/chat"
	"ticketdesk/internal/services/transcribe"
)

const multipartMemory = 32 << 20

type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
	Model    string          `json:"model"`
}

// handleChat relays an upstream completion as a plain-text stream. Errors
// before the first chunk are answered with JSON; after that the connection
// is aborted so the client sees a truncated stream rather than a clean end.
func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	logger := s.log(r)
	const failure = "Failed to process chat request"

	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		logging.ErrorWithContext(logger, "chat request unreadable", "chat_decode_failed", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, failure)
		return
	}
	messages, ok := parseMessages(req.Messages)
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, "Invalid messages array")
		return
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.chat.Model()
	}

	rc := http.NewResponseController(w)
	started := false
	_, err := s.chat.Stream(r.Context(), model, messages, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err == nil {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
		}
		return
	}
	if errors.Is(r.Context().Err(), context.Canceled) {
		logger.Debug("chat client disconnected", logging.String("model", model))
		return
	}
	logging.ErrorWithContext(logger, "chat stream failed", "chat_stream_failed",
		logging.Error(err),
		logging.String("model", model),
		logging.Bool("streaming", started),
		logging.String(logging.FieldErrorHint, "check that the chat server is running and the model is loaded"),
	)
	if !started {
		s.writeError(w, r, http.StatusInternalServerError, failure)
		return
	}
	panic(http.ErrAbortHandler)
}

// parseMessages accepts only a JSON array of {role, content} objects.
func parseMessages(raw json.RawMessage) ([]chat.Message, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var messages []chat.Message
	if err := json.Unmarshal(trimmed, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

// handleTranscribe forwards an uploaded recording to AssemblyAI and waits
// for the transcript.
func (s *apiServer) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	logger := s.log(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		logging.ErrorWithContext(logger, "transcription form unreadable", "transcribe_form_failed", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	audio, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer audio.Close()

	apiKey := strings.TrimSpace(r.FormValue("apiKey"))
	if apiKey == "" {
		s.writeError(w, r, http.StatusBadRequest, "No API key provided")
		return
	}

	req := transcribe.Request{
		APIKey:        apiKey,
		Audio:         audio,
		SpeakerLabels: r.FormValue("speakerLabels") == "true",
		Summarization: r.FormValue("summarization") == "true",
	}
	result, err := s.transcriber.Transcribe(r.Context(), req)
	if err != nil {
		message := err.Error()
		var jobErr *transcribe.JobError
		if errors.As(err, &jobErr) && jobErr.Message != "" {
			message = jobErr.Message
		}
		if message == "" {
			message = "Transcription failed"
		}
		logging.ErrorWithContext(logger, "transcription failed", "transcribe_failed",
			logging.Error(err),
			logging.String("file", header.Filename),
			logging.Int64("bytes", header.Size),
			logging.String(logging.FieldErrorHint, "check the AssemblyAI key and account status"),
		)
		s.writeError(w, r, services.HTTPStatus(err), message)
		return
	}

	logger.Info("transcription completed",
		logging.String("file", header.Filename),
		logging.Int("utterances", len(result.Utterances)),
		logging.Bool("summary", result.Summary != ""),
		logging.String(logging.FieldEventType, "transcribe_completed"),
	)
	s.writeJSON(w, r, http.StatusOK, result)
}
