package testsupport

import (
	"testing"

	"ticketdesk/internal/config"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/fileutil"
	"ticketdesk/internal/logging"
	"ticketdesk/internal/store"
)

// NewStore returns a store over cfg's data directory backed by a real
// AtomicWriter and a silent logger.
func NewStore(t testing.TB, cfg *config.Config, layout desk.Layout) *store.Store {
	t.Helper()

	writer := fileutil.NewAtomicWriter(fileutil.WithWriterLogger(logging.NewNop()))
	return store.New(cfg.Paths.DataDir, layout, writer, logging.NewNop())
}
