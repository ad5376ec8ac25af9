package fileutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"ticketdesk/internal/logging"
)

// ErrPersist marks a write that could not be completed by either the atomic
// path or the direct fallback.
var ErrPersist = errors.New("persist failed")

// AtomicWriter replaces whole files so concurrent readers observe either the
// previous or the new content. Writes to the same path are applied one at a
// time in the order Write was called.
type AtomicWriter struct {
	mu    sync.Mutex
	tails map[string]chan struct{}

	logger *slog.Logger
	perm   os.FileMode
	now    func() time.Time

	// Swappable for tests.
	writeFile func(name string, data []byte, perm os.FileMode) error
	rename    func(oldpath, newpath string) error
}

// AtomicOption customizes an AtomicWriter.
type AtomicOption func(*AtomicWriter)

// WithWriterLogger routes fallback warnings to logger.
func WithWriterLogger(logger *slog.Logger) AtomicOption {
	return func(w *AtomicWriter) {
		w.logger = logger
	}
}

// WithFileMode sets the permissions of written files.
func WithFileMode(perm os.FileMode) AtomicOption {
	return func(w *AtomicWriter) {
		w.perm = perm
	}
}

// NewAtomicWriter returns a writer shared by every store in the process.
func NewAtomicWriter(opts ...AtomicOption) *AtomicWriter {
	w := &AtomicWriter{
		tails:     make(map[string]chan struct{}),
		perm:      0o644,
		now:       time.Now,
		writeFile: writeSynced,
		rename:    os.Rename,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "fileutil")
	return w
}

// Write stores data at path. It waits for earlier writes to the same path to
// finish first. If ctx ends while waiting, Write returns ctx.Err() without
// touching the file; later writers still wait for the earlier ones.
func (w *AtomicWriter) Write(ctx context.Context, path string, data []byte) error {
	key, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrPersist, path, err)
	}
	release, err := w.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return w.persist(ctx, key, data)
}

// acquire joins the per-path queue. Each writer holds a channel closed on
// release and waits on its predecessor's channel.
func (w *AtomicWriter) acquire(ctx context.Context, key string) (func(), error) {
	done := make(chan struct{})

	w.mu.Lock()
	prev := w.tails[key]
	w.tails[key] = done
	w.mu.Unlock()

	release := func() {
		w.mu.Lock()
		if w.tails[key] == done {
			delete(w.tails, key)
		}
		w.mu.Unlock()
		close(done)
	}

	if prev == nil {
		return release, nil
	}
	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}

func (w *AtomicWriter) persist(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", ErrPersist, dir, err)
	}

	tmp := w.tempName(path)
	err := w.writeFile(tmp, data, w.perm)
	if err == nil {
		if err = w.rename(tmp, path); err == nil {
			return nil
		}
	}

	_ = os.Remove(tmp)
	logging.WarnWithContext(logging.WithContext(ctx, w.logger), "atomic replace failed; writing in place", "persist_fallback",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldImpact, "a reader may briefly observe a partially written file"),
		logging.String(logging.FieldErrorHint, "check free space and permissions in "+dir),
	)
	if ferr := w.writeFile(path, data, w.perm); ferr != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersist, path, errors.Join(err, ferr))
	}
	return nil
}

// tempName builds <dir>/<base>-<unixmillis>-<8 hex>.tmp beside the target so
// the rename never crosses filesystems.
func (w *AtomicWriter) tempName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	name := base + "-" + strconv.FormatInt(w.now().UnixMilli(), 10) + "-" + hex.EncodeToString(suffix[:]) + ".tmp"
	return filepath.Join(filepath.Dir(path), name)
}

func writeSynced(name string, data []byte, perm os.FileMode) error {
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
