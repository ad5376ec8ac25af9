package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/logging"
)

// DefaultDebounce is the quiet period before a snapshot is saved.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by operations on a closed container.
var ErrClosed = errors.New("container closed")

// Backend fetches and replaces the persisted document.
type Backend interface {
	Fetch(ctx context.Context) (desk.Document, error)
	Replace(ctx context.Context, doc desk.Document) error
}

// Option customizes a Container.
type Option func(*Container)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Container) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithLogger routes container diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the source of createdAt/updatedAt/timestamp values.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides how entity ids are minted. kind is one of
// "ticket", "student", "category" or "note".
func WithIDGenerator(gen func(kind string) string) Option {
	return func(c *Container) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithSaveErrorHandler is called, from the saving goroutine, with every
// failed background save.
func WithSaveErrorHandler(fn func(error)) Option {
	return func(c *Container) {
		c.onSaveError = fn
	}
}

// Container is safe for concurrent use.
type Container struct {
	backend     Backend
	logger      *slog.Logger
	debounce    time.Duration
	now         func() time.Time
	newID       func(kind string) string
	onSaveError func(error)

	mu          sync.Mutex
	doc         desk.Document
	loadStarted bool
	loaded      bool
	closed      bool
	timer       *time.Timer
	generation  uint64
	firing      int
	idle        *sync.Cond

	saveMu        sync.Mutex
	lastAttempted uint64
	saveCtx       context.Context
	cancelSaves   context.CancelFunc
	inflight      sync.WaitGroup
}

// New returns a container holding the default document. Call Load before
// relying on its contents.
func New(backend Backend, opts ...Option) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Container{
		backend:     backend,
		logger:      logging.NewNop(),
		debounce:    DefaultDebounce,
		now:         time.Now,
		newID:       func(kind string) string { return kind + "-" + uuid.NewString() },
		doc:         desk.Default(),
		saveCtx:     ctx,
		cancelSaves: cancel,
	}
	c.idle = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "client")
	return c
}

// Load fetches the document once. A failed fetch leaves the default
// document in place; either way the container counts as loaded afterwards
// and later mutations are saved. Edits made while the fetch was in flight
// are replaced by the fetched document. Load itself never triggers a save.
func (c *Container) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.loadStarted {
		c.mu.Unlock()
		return nil
	}
	c.loadStarted = true
	c.mu.Unlock()

	doc, err := c.backend.Fetch(ctx)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "initial load failed; using defaults", "client_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the ticketdesk server is running"),
			logging.String(logging.FieldImpact, "the next save will overwrite the server copy with this session's state"),
		)
		doc = desk.Default()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.doc = doc
	c.loaded = true
	c.logger.Debug("document loaded",
		logging.Int("students", len(doc.Students)),
		logging.Int("tickets", len(doc.Tickets)),
		logging.Int("categories", len(doc.Categories)),
	)
	return err
}

// Loaded reports whether Load has completed.
func (c *Container) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// State returns a copy of the current snapshot.
func (c *Container) State() desk.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Clone()
}

// Pending reports whether a debounced save is armed.
func (c *Container) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Flush cancels the debounce timer and saves the current snapshot now if a
// save was pending. It also waits for a save already in progress.
func (c *Container) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer == nil {
		for c.firing > 0 {
			c.idle.Wait()
		}
		c.mu.Unlock()
		c.saveMu.Lock()
		c.saveMu.Unlock()
		return nil
	}
	c.timer.Stop()
	c.timer = nil
	c.generation++
	gen := c.generation
	doc := c.doc.Clone()
	c.mu.Unlock()

	return c.save(ctx, gen, doc)
}

// Close cancels any pending save and aborts one in progress. Mutations
// after Close still update the snapshot but are never sent.
func (c *Container) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.mu.Unlock()

	c.cancelSaves()
	c.inflight.Wait()
}

// mutate applies fn to a private copy of the snapshot and swaps the result
// in. A save is scheduled once the container is loaded.
func (c *Container) mutate(fn func(doc *desk.Document)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.doc.Clone()
	fn(&next)
	c.doc = next
	c.scheduleSaveLocked()
}

func (c *Container) scheduleSaveLocked() {
	if !c.loaded || c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
}

// fire runs on the timer goroutine. A timer that was superseded after it
// had already fired sees a newer generation and does nothing.
func (c *Container) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	doc := c.doc.Clone()
	c.firing++
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()
	defer func() {
		c.mu.Lock()
		c.firing--
		if c.firing == 0 {
			c.idle.Broadcast()
		}
		c.mu.Unlock()
	}()

	err := c.save(c.saveCtx, gen, doc)
	if err != nil && !errors.Is(err, context.Canceled) && c.onSaveError != nil {
		c.onSaveError(err)
	}
}

// save sends doc unless a newer snapshot has already been sent.
func (c *Container) save(ctx context.Context, gen uint64, doc desk.Document) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if gen < c.lastAttempted {
		return nil
	}
	c.lastAttempted = gen

	err := c.backend.Replace(ctx, doc)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logging.WarnWithContext(c.logger, "save failed; will retry on next change", "client_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the ticketdesk server is running"),
			logging.String(logging.FieldImpact, "recent edits exist only in memory"),
		)
		return err
	}
	c.logger.Debug("document saved",
		logging.Int("students", len(doc.Students)),
		logging.Int("tickets", len(doc.Tickets)),
	)
	return nil
}
