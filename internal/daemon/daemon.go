package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"ticketdesk/internal/config"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/fileutil"
	"ticketdesk/internal/logging"
	"ticketdesk/internal/services/chat"
	"ticketdesk/internal/services/transcribe"
	"ticketdesk/internal/store"
)

// Daemon serves the ticketdesk API and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	api    *apiServer
	stores []*store.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	DataDir      string
	LockFilePath string
	Documents    []string
}

// New constructs a daemon with initialized dependencies. The tickets and
// incidents stores share one AtomicWriter so every write in the process
// goes through the same per-path queue.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	// Documents carry the saved AssemblyAI key.
	writer := fileutil.NewAtomicWriter(
		fileutil.WithWriterLogger(logging.NewComponentLogger(logger, "atomic-writer")),
		fileutil.WithFileMode(0o600),
	)
	var stores []*store.Store
	var handlers []documentStore
	for _, layout := range desk.Layouts() {
		st := store.New(cfg.Paths.DataDir, layout, writer, logger)
		stores = append(stores, st)
		handlers = append(handlers, st)
	}

	chatClient := chat.NewClient(chat.Config{
		BaseURL:        cfg.Chat.BaseURL,
		Model:          cfg.Chat.Model,
		Temperature:    cfg.Chat.Temperature,
		MaxTokens:      cfg.Chat.MaxTokens,
		TimeoutSeconds: cfg.Chat.TimeoutSeconds,
	})
	transcriber := transcribe.NewClient(transcribe.Config{
		BaseURL:             cfg.Transcription.BaseURL,
		PollIntervalSeconds: cfg.Transcription.PollIntervalSeconds,
		TimeoutSeconds:      cfg.Transcription.TimeoutSeconds,
	})

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		api:      newAPIServer(cfg, handlers, chatClient, transcriber, logger),
		stores:   stores,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the data directory lock and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another ticketdesk server already owns %s", d.cfg.Paths.DataDir)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("ticketdesk server started",
		logging.String("address", d.api.addr()),
		logging.String("data_dir", d.cfg.Paths.DataDir),
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop shuts the HTTP server down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop(d.cfg.ShutdownTimeout())
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldErrorHint, "remove the lock file if no server is running"),
			logging.String(logging.FieldImpact, "the next start may report the data directory as busy"),
		)
	}
	d.running.Store(false)
	d.logger.Info("ticketdesk server stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Addr is the address the API server is listening on, or "" when stopped.
func (d *Daemon) Addr() string {
	if !d.running.Load() {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	docs := make([]string, 0, len(d.stores))
	for _, st := range d.stores {
		docs = append(docs, st.Path())
	}
	return Status{
		Running:      d.running.Load(),
		Address:      d.Addr(),
		DataDir:      d.cfg.Paths.DataDir,
		LockFilePath: d.lockPath,
		Documents:    docs,
	}
}
