package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ticketdesk/internal/desk"
)

type fakeBackend struct {
	mu         sync.Mutex
	doc        desk.Document
	fetchErr   error
	replaceErr error
	replaced   []desk.Document
	started    chan struct{}
	block      bool
	gate       chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{doc: desk.Default(), started: make(chan struct{}, 16)}
}

func (f *fakeBackend) Fetch(context.Context) (desk.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return desk.Document{}, f.fetchErr
	}
	return f.doc.Clone(), nil
}

func (f *fakeBackend) Replace(ctx context.Context, doc desk.Document) error {
	select {
	case f.started <- struct{}{}:
	default:
	}
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = append(f.replaced, doc.Clone())
	f.doc = doc.Clone()
	return nil
}

func (f *fakeBackend) saves() []desk.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]desk.Document(nil), f.replaced...)
}

func loadedContainer(t *testing.T, backend *fakeBackend, opts ...Option) *Container {
	t.Helper()
	c := New(backend, append([]Option{WithDebounce(time.Hour)}, opts...)...)
	t.Cleanup(c.Close)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func waitForSaves(t *testing.T, backend *fakeBackend, n int) []desk.Document {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if saves := backend.saves(); len(saves) >= n {
			return saves
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d saves, got %d", n, len(backend.saves()))
	return nil
}

func TestMutationsBeforeLoadAreNotSaved(t *testing.T) {
	backend := newFakeBackend()
	c := New(backend, WithDebounce(time.Millisecond))
	t.Cleanup(c.Close)

	c.AddStudent("Ana")
	time.Sleep(30 * time.Millisecond)
	if c.Pending() {
		t.Fatal("no save may be armed before load")
	}
	if got := len(backend.saves()); got != 0 {
		t.Fatalf("expected no saves before load, got %d", got)
	}
	if c.Loaded() {
		t.Fatal("container should not report loaded")
	}
}

func TestLoadReplacesPreLoadEditsAndDoesNotSave(t *testing.T) {
	backend := newFakeBackend()
	backend.doc.Students = []desk.Student{{ID: "s1", Name: "Ana"}}
	c := New(backend, WithDebounce(time.Millisecond))
	t.Cleanup(c.Close)

	c.AddStudent("Ben")
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	state := c.State()
	if len(state.Students) != 1 || state.Students[0].ID != "s1" {
		t.Fatalf("expected fetched students, got %+v", state.Students)
	}
	if got := len(backend.saves()); got != 0 {
		t.Fatalf("load must not save, got %d saves", got)
	}
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
}

func TestFailedFetchFallsBackToDefault(t *testing.T) {
	backend := newFakeBackend()
	backend.fetchErr = errors.New("connection refused")
	c := New(backend, WithDebounce(time.Hour))
	t.Cleanup(c.Close)

	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected fetch error to be returned")
	}
	if !c.Loaded() {
		t.Fatal("a failed fetch still completes loading")
	}
	if len(c.State().Categories) != 3 {
		t.Fatalf("expected default categories, got %+v", c.State().Categories)
	}

	c.AddCategory("Attendance")
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	saves := backend.saves()
	if len(saves) != 1 || len(saves[0].Categories) != 4 {
		t.Fatalf("expected one save with four categories, got %+v", saves)
	}
}

func TestRapidMutationsCoalesceIntoOneSave(t *testing.T) {
	backend := newFakeBackend()
	c := loadedContainer(t, backend)

	for _, name := range []string{"Ana", "Ben", "Cam", "Dee", "Eli"} {
		c.AddStudent(name)
	}
	if !c.Pending() {
		t.Fatal("expected a pending save")
	}
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	saves := backend.saves()
	if len(saves) != 1 {
		t.Fatalf("expected one save, got %d", len(saves))
	}
	if len(saves[0].Students) != 5 || saves[0].Students[4].Name != "Eli" {
		t.Fatalf("save should carry the final state, got %+v", saves[0].Students)
	}
	if c.Pending() {
		t.Fatal("flush should clear the pending save")
	}
}

func TestDebouncedSaveFiresAfterQuietPeriod(t *testing.T) {
	backend := newFakeBackend()
	c := loadedContainer(t, backend, WithDebounce(20*time.Millisecond))

	c.AddStudent("Ana")
	c.AddStudent("Ben")
	waitForSaves(t, backend, 1)
	time.Sleep(60 * time.Millisecond)
	saves := backend.saves()
	if len(saves) != 1 || len(saves[0].Students) != 2 {
		t.Fatalf("expected one save with both students, got %d saves", len(saves))
	}
}

func TestClosePreventsPendingSave(t *testing.T) {
	backend := newFakeBackend()
	c := loadedContainer(t, backend, WithDebounce(20*time.Millisecond))

	c.AddStudent("Ana")
	c.Close()
	c.AddStudent("Ben")
	time.Sleep(60 * time.Millisecond)
	if got := len(backend.saves()); got != 0 {
		t.Fatalf("expected no saves after close, got %d", got)
	}
	if err := c.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCloseAbortsSaveInProgress(t *testing.T) {
	backend := newFakeBackend()
	backend.block = true
	var reported []error
	var mu sync.Mutex
	c := loadedContainer(t, backend,
		WithDebounce(time.Millisecond),
		WithSaveErrorHandler(func(err error) {
			mu.Lock()
			reported = append(reported, err)
			mu.Unlock()
		}),
	)

	c.AddStudent("Ana")
	select {
	case <-backend.started:
	case <-time.After(2 * time.Second):
		t.Fatal("save never started")
	}

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not abort the in-flight save")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 0 {
		t.Fatalf("cancelled saves are not reported, got %v", reported)
	}
}

func TestSaveFailureIsReportedAndRetriedOnNextChange(t *testing.T) {
	backend := newFakeBackend()
	backend.replaceErr = errors.New("disk full")
	errs := make(chan error, 4)
	c := loadedContainer(t, backend,
		WithDebounce(time.Millisecond),
		WithSaveErrorHandler(func(err error) { errs <- err }),
	)

	c.AddStudent("Ana")
	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "disk full") {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("save failure was not reported")
	}
	if len(c.State().Students) != 1 {
		t.Fatal("a failed save must keep the in-memory state")
	}

	backend.mu.Lock()
	backend.replaceErr = nil
	backend.mu.Unlock()
	c.AddStudent("Ben")
	saves := waitForSaves(t, backend, 1)
	if len(saves[0].Students) != 2 {
		t.Fatalf("expected retry to carry both students, got %+v", saves[0].Students)
	}
}

func TestIDsCarryEntityKind(t *testing.T) {
	c := loadedContainer(t, newFakeBackend())

	studentID := c.AddStudent("Ana")
	ticketID := c.AddTicket(TicketInput{Date: "2025-05-01", StudentIDs: []string{studentID}, Category: "academic"})
	noteID := c.AddNote(ticketID, "called home", desk.SourceManual)
	categoryID := c.AddCategory("Attendance")

	for prefix, id := range map[string]string{"student-": studentID, "ticket-": ticketID, "note-": noteID, "category-": categoryID} {
		if !strings.HasPrefix(id, prefix) {
			t.Fatalf("expected %q prefix, got %q", prefix, id)
		}
	}
}

func TestTicketLifecycleStampsTimes(t *testing.T) {
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	c := loadedContainer(t, newFakeBackend(), WithClock(func() time.Time { return clock }))

	id := c.AddTicket(TicketInput{Date: "2025-05-01", Category: "sel", Details: "first"})
	ticket := c.State().Tickets[0]
	if ticket.Status != desk.StatusNew || !ticket.CreatedAt.Equal(clock) || !ticket.UpdatedAt.Equal(clock) {
		t.Fatalf("unexpected new ticket %+v", ticket)
	}

	clock = clock.Add(time.Hour)
	status := desk.StatusInProgress
	c.UpdateTicket(id, TicketPatch{Status: &status})
	ticket = c.State().Tickets[0]
	if ticket.Status != desk.StatusInProgress || ticket.Details != "first" {
		t.Fatalf("patch should only change status, got %+v", ticket)
	}
	if !ticket.UpdatedAt.Equal(clock) || ticket.CreatedAt.Equal(clock) {
		t.Fatalf("expected updatedAt refresh only, got %+v", ticket)
	}

	clock = clock.Add(time.Hour)
	noteID := c.AddNote(id, "  spoke with family  ", "")
	ticket = c.State().Tickets[0]
	if len(ticket.Notes) != 1 {
		t.Fatalf("expected one note, got %+v", ticket.Notes)
	}
	note := ticket.Notes[0]
	if note.Content != "spoke with family" || note.Author != NoteAuthor || note.Source != desk.SourceManual {
		t.Fatalf("unexpected note %+v", note)
	}
	if !ticket.UpdatedAt.Equal(clock) {
		t.Fatal("adding a note refreshes updatedAt")
	}

	c.UpdateNote(id, noteID, "edited")
	c.DeleteNote(id, "missing")
	if got := c.State().Tickets[0].Notes[0].Content; got != "edited" {
		t.Fatalf("expected edited note, got %q", got)
	}
	c.DeleteNote(id, noteID)
	if len(c.State().Tickets[0].Notes) != 0 {
		t.Fatal("note should be deleted")
	}

	c.DeleteTicket(id)
	if len(c.State().Tickets) != 0 {
		t.Fatal("ticket should be deleted")
	}
}

func TestTranscriptionNoteKeepsMetadata(t *testing.T) {
	c := loadedContainer(t, newFakeBackend())
	id := c.AddTicket(TicketInput{Category: "academic"})
	c.AddNoteWithMetadata(id, NoteInput{
		Content:    "Speaker A: hello",
		Source:     desk.SourceAssemblyTranscription,
		Utterances: []desk.Utterance{{Speaker: "A", Text: "hello", Start: 0, End: 900, Confidence: 0.9}},
		Summary:    "- greeting",
	})
	note := c.State().Tickets[0].Notes[0]
	if note.Source != desk.SourceAssemblyTranscription || len(note.Utterances) != 1 || note.Summary != "- greeting" {
		t.Fatalf("metadata lost: %+v", note)
	}
}

func TestDeleteCategoryReassignsTickets(t *testing.T) {
	c := loadedContainer(t, newFakeBackend())
	sel := c.AddTicket(TicketInput{Category: "sel"})
	academic := c.AddTicket(TicketInput{Category: "academic"})

	c.DeleteCategory("sel")

	state := c.State()
	if _, ok := desk.CategoryByID(state, "sel"); ok {
		t.Fatal("category should be removed")
	}
	for _, ticket := range state.Tickets {
		if ticket.ID == sel && ticket.Category != desk.FallbackCategoryID {
			t.Fatalf("expected reassignment to %s, got %s", desk.FallbackCategoryID, ticket.Category)
		}
		if ticket.ID == academic && ticket.Category != "academic" {
			t.Fatalf("unrelated ticket moved to %s", ticket.Category)
		}
	}
	if got := len(c.TicketsByCategory(desk.FallbackCategoryID)); got != 1 {
		t.Fatalf("expected one ticket under the fallback category, got %d", got)
	}
}

func TestSettingsPatchAndReset(t *testing.T) {
	c := loadedContainer(t, newFakeBackend())
	dark := desk.ThemeDark
	c.UpdateSettings(SettingsPatch{Theme: &dark})
	settings := c.State().Settings
	if settings.Theme != desk.ThemeDark || settings.LMStudioModel != desk.DefaultLMStudioModel {
		t.Fatalf("unexpected settings %+v", settings)
	}

	c.AddStudent("Ana")
	c.Reset()
	state := c.State()
	if len(state.Students) != 0 || state.Settings.Theme != desk.ThemeLight {
		t.Fatalf("expected default document after reset, got %+v", state)
	}
}

func TestFlushWaitsForTimerSaveAlreadyFiring(t *testing.T) {
	backend := newFakeBackend()
	backend.gate = make(chan struct{})
	c := New(backend, WithDebounce(time.Millisecond))
	t.Cleanup(c.Close)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.AddStudent("Ana")
	deadline := time.Now().Add(2 * time.Second)
	for c.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("debounced save never fired")
		}
		time.Sleep(time.Millisecond)
	}

	flushed := make(chan error, 1)
	go func() { flushed <- c.Flush(context.Background()) }()

	select {
	case err := <-flushed:
		t.Fatalf("Flush returned before the save finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(backend.gate)
	select {
	case err := <-flushed:
		if err != nil {
			t.Fatalf("Flush: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Flush did not return after the save finished")
	}
	if saves := backend.saves(); len(saves) != 1 || len(saves[0].Students) != 1 {
		t.Fatalf("expected the fired save to be recorded, got %d saves", len(saves))
	}
}

func TestUnknownNoteSourceIsRecordedAsManual(t *testing.T) {
	backend := newFakeBackend()
	c := loadedContainer(t, backend)
	ticketID := c.AddTicket(TicketInput{Date: "2025-05-01", Category: "academic"})

	c.AddNoteWithMetadata(ticketID, NoteInput{Content: "called home", Source: desk.NoteSource("fax")})

	ticket := c.State().Tickets[0]
	if len(ticket.Notes) != 1 || ticket.Notes[0].Source != desk.SourceManual {
		t.Fatalf("expected manual note, got %+v", ticket.Notes)
	}
}
