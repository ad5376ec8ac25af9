package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/fileutil"
	"ticketdesk/internal/logging"
)

// Writer persists whole files. fileutil.AtomicWriter is the production implementation.
type Writer interface {
	Write(ctx context.Context, path string, data []byte) error
}

// Store loads and replaces one document.
type Store struct {
	layout       desk.Layout
	path         string
	templatePath string
	writer       Writer
	logger       *slog.Logger
}

// New returns a store for <dir>/<layout.Name>.json.
func New(dir string, layout desk.Layout, writer Writer, logger *slog.Logger) *Store {
	path := filepath.Join(dir, layout.Name+".json")
	return &Store{
		layout:       layout,
		path:         path,
		templatePath: path + ".template",
		writer:       writer,
		logger:       logging.NewComponentLogger(logger, "store").With(logging.String(logging.FieldDocument, layout.Name)),
	}
}

// Layout reports which document this store manages.
func (s *Store) Layout() desk.Layout { return s.layout }

// Path is the live document file.
func (s *Store) Path() string { return s.path }

// TemplatePath is the optional first-run seed file.
func (s *Store) TemplatePath() string { return s.templatePath }

// Load returns the current document. A missing, empty or unparsable file,
// or a document without categories, is seeded from the template (or the
// default document) and persisted before returning. If that write fails the
// seeded document is returned with the error.
func (s *Store) Load(ctx context.Context) (desk.Document, error) {
	logger := logging.WithContext(ctx, s.logger)
	doc, ok := s.readDocument(logger)
	if ok && len(doc.Categories) > 0 {
		return doc, nil
	}

	seeded, source := s.seed(logger)
	if err := s.Replace(ctx, seeded); err != nil {
		return seeded, fmt.Errorf("persist seeded %s document: %w", s.layout.Name, err)
	}
	logger.Info("document seeded",
		logging.String("source", source),
		logging.Int("categories", len(seeded.Categories)),
		logging.String(logging.FieldEventType, "document_seeded"),
	)
	return seeded, nil
}

// Replace encodes doc with the store's layout and writes it atomically.
func (s *Store) Replace(ctx context.Context, doc desk.Document) error {
	data, err := s.layout.MarshalIndent(doc)
	if err != nil {
		return err
	}
	if err := s.writer.Write(ctx, s.path, data); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Debug("document saved",
		logging.Int("students", len(doc.Students)),
		logging.Int("tickets", len(doc.Tickets)),
		logging.Int("bytes", len(data)),
	)
	return nil
}

// readDocument reports false when the file has to be seeded.
func (s *Store) readDocument(logger *slog.Logger) (desk.Document, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "document unreadable; seeding", "document_read_failed",
				logging.String("path", s.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
				logging.String(logging.FieldImpact, "the file is replaced by the seed document"),
			)
		}
		return desk.Document{}, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return desk.Document{}, false
	}
	doc, err := s.layout.Decode(data)
	if err != nil {
		kept := s.quarantine()
		logging.WarnWithContext(logger, "document unparsable; seeding", "document_parse_failed",
			logging.String("path", s.path),
			logging.String("copy", kept),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "recover entries from the kept copy by hand"),
			logging.String(logging.FieldImpact, "the file is replaced by the seed document"),
		)
		return desk.Document{}, false
	}
	return doc, true
}

// quarantine copies an unparsable document aside before seeding overwrites it.
func (s *Store) quarantine() string {
	target := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102T150405Z"))
	if err := fileutil.CopyFileVerified(s.path, target); err != nil {
		return ""
	}
	return target
}

func (s *Store) seed(logger *slog.Logger) (desk.Document, string) {
	data, err := os.ReadFile(s.templatePath)
	if err != nil {
		return desk.Default(), "default"
	}
	doc, err := s.layout.Decode(jsonc.ToJSON(data))
	if err != nil {
		logging.WarnWithContext(logger, "template unparsable; seeding defaults", "template_parse_failed",
			logging.String("path", s.templatePath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "default categories used instead of the template"),
		)
		return desk.Default(), "default"
	}
	if len(doc.Categories) == 0 {
		logging.WarnWithContext(logger, "template has no categories; seeding defaults", "template_without_categories",
			logging.String("path", s.templatePath),
			logging.String(logging.FieldErrorHint, "add at least one category to the template"),
			logging.String(logging.FieldImpact, "default categories used instead of the template"),
		)
		return desk.Default(), "default"
	}
	return doc, "template"
}
