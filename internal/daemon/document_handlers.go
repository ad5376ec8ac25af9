package daemon

import (
	"errors"
	"io"
	"net/http"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/logging"
)

type saveResponse struct {
	Success bool `json:"success"`
}

func (s *apiServer) handleDocument(st documentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.getDocument(w, r, st)
		case http.MethodPost:
			s.postDocument(w, r, st)
		default:
			s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// getDocument always answers 200. When loading or seeding fails the
// hardcoded default is served and the failure is only logged.
func (s *apiServer) getDocument(w http.ResponseWriter, r *http.Request, st documentStore) {
	layout := st.Layout()
	logger := s.log(r).With(logging.String(logging.FieldDocument, layout.Name))

	doc, err := st.Load(r.Context())
	if err != nil {
		logging.ErrorWithContext(logger, "failed to load document; serving defaults", "document_load_failed",
			logging.Error(err),
			logging.String("path", st.Path()),
			logging.String(logging.FieldErrorHint, "check that the data directory is writable"),
		)
		doc = desk.Default()
	}

	data, err := layout.Marshal(doc)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to encode document", "document_encode_failed", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "Failed to load "+layout.Name+" data")
		return
	}
	s.writeRaw(w, http.StatusOK, data)
}

// postDocument replaces the whole document with the request body. The body
// is laid over the default document, so omitted top-level fields are reset
// to their defaults and unknown ones are kept.
func (s *apiServer) postDocument(w http.ResponseWriter, r *http.Request, st documentStore) {
	layout := st.Layout()
	logger := s.log(r).With(logging.String(logging.FieldDocument, layout.Name))
	failure := "Failed to save " + layout.Name + " data"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		logging.ErrorWithContext(logger, "failed to read request body", "document_read_body_failed", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, failure)
		return
	}

	doc, err := layout.Decode(body)
	if err != nil {
		logging.ErrorWithContext(logger, "rejected malformed document", "document_decode_failed",
			logging.Error(err),
			logging.Int("bytes", len(body)),
			logging.String(logging.FieldErrorHint, "the client sent a body that is not a state document"),
		)
		s.writeError(w, r, http.StatusInternalServerError, failure)
		return
	}

	if err := st.Replace(r.Context(), doc); err != nil {
		logging.ErrorWithContext(logger, "failed to persist document", "document_persist_failed",
			logging.Error(err),
			logging.String("path", st.Path()),
			logging.String(logging.FieldErrorHint, "check disk space and permissions on the data directory"),
		)
		s.writeError(w, r, http.StatusInternalServerError, failure)
		return
	}
	s.writeJSON(w, r, http.StatusOK, saveResponse{Success: true})
}
