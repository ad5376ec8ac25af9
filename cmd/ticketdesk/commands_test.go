package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/logging"
	"ticketdesk/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env.configPath, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.DataDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out = mustRunCLI(t, env.configPath, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env.configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowMasksAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Transcription.APIKey = "secret-key-1234"
	writeTestConfig(t, env.configPath, env.cfg)

	out := mustRunCLI(t, env.configPath, "config", "show")
	if strings.Contains(out, "secret-key") {
		t.Fatalf("api key leaked: %s", out)
	}
	requireContains(t, out, "****1234")
	requireContains(t, out, env.cfg.Paths.DataDir)
}

func TestStudentTicketNoteWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	cfgPath := env.configPath

	mustRunCLI(t, cfgPath, "students", "add", "Ana", "Lopez")
	mustRunCLI(t, cfgPath, "students", "add", "Ben")
	ticketID := createdID(t, mustRunCLI(t, cfgPath, "tickets", "add",
		"--date", "2025-05-01", "--category", "sel", "--student", "ana lopez", "--student", "Ben", "--details", "missed class"))

	mustRunCLI(t, cfgPath, "notes", "add", ticketID, "called", "home")
	mustRunCLI(t, cfgPath, "tickets", "status", shortID(ticketID), "in-progress")

	out := mustRunCLI(t, cfgPath, "tickets", "list", "--json", "--status", "in-progress")
	var tickets []desk.Ticket
	if err := json.Unmarshal([]byte(out), &tickets); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(tickets) != 1 || tickets[0].ID != ticketID || len(tickets[0].StudentIDs) != 2 {
		t.Fatalf("unexpected tickets %+v", tickets)
	}
	if len(tickets[0].Notes) != 1 || tickets[0].Notes[0].Content != "called home" || tickets[0].Notes[0].Author != "You" {
		t.Fatalf("unexpected notes %+v", tickets[0].Notes)
	}

	out = mustRunCLI(t, cfgPath, "tickets", "show", ticketID)
	requireContains(t, out, "Ana Lopez, Ben")
	requireContains(t, out, "missed class")

	out = mustRunCLI(t, cfgPath, "students", "delete", "Ana Lopez")
	requireContains(t, out, "detached from 1 ticket(s)")

	doc := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	if len(doc.Students) != 1 || doc.Students[0].Name != "Ben" {
		t.Fatalf("unexpected students on disk %+v", doc.Students)
	}
	if len(doc.Tickets) != 1 || len(doc.Tickets[0].StudentIDs) != 1 || doc.Tickets[0].StudentIDs[0] != doc.Students[0].ID {
		t.Fatalf("ticket should only reference Ben, got %+v", doc.Tickets)
	}
	if doc.Tickets[0].Status != desk.StatusInProgress {
		t.Fatalf("status not persisted: %s", doc.Tickets[0].Status)
	}

	mustRunCLI(t, cfgPath, "tickets", "delete", ticketID)
	doc = testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	if len(doc.Tickets) != 0 {
		t.Fatalf("ticket should be deleted, got %+v", doc.Tickets)
	}
}

func TestTicketsAddRejectsUnknownStudent(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "tickets", "add", "--student", "Nobody")
	if err == nil || !strings.Contains(err.Error(), "no student matches") {
		t.Fatalf("expected unknown student error, got %v", err)
	}
	doc := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	if len(doc.Tickets) != 0 {
		t.Fatalf("no ticket should be created, got %+v", doc.Tickets)
	}
}

func TestCategoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	cfgPath := env.configPath

	out := mustRunCLI(t, cfgPath, "categories", "add", "attendance", "issues")
	requireContains(t, out, "Attendance Issues")
	ticketID := createdID(t, mustRunCLI(t, cfgPath, "tickets", "add", "--category", "Attendance Issues"))

	out = mustRunCLI(t, cfgPath, "categories", "delete", "attendance issues")
	requireContains(t, out, "reassigned 1 ticket(s)")

	doc := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	if len(doc.Categories) != 3 {
		t.Fatalf("expected the seeded categories only, got %+v", doc.Categories)
	}
	if doc.Tickets[0].ID != ticketID || doc.Tickets[0].Category != desk.FallbackCategoryID {
		t.Fatalf("ticket should move to the fallback category, got %+v", doc.Tickets[0])
	}

	mustRunCLI(t, cfgPath, "categories", "rename", "sel", "social", "emotional")
	out = mustRunCLI(t, cfgPath, "categories", "list")
	requireContains(t, out, "Social Emotional")
}

func TestIncidentsDocumentFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env.configPath, "--document", "incidents", "tickets", "add", "--details", "hallway")

	incidents := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.IncidentsLayout)
	if len(incidents.Tickets) != 1 || incidents.Tickets[0].Details != "hallway" {
		t.Fatalf("unexpected incidents %+v", incidents.Tickets)
	}
	if _, _, err := runCLI(t, env.configPath, "--document", "reports", "tickets", "list"); err == nil {
		t.Fatal("expected unknown document error")
	}
}

func TestSummaryJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env.configPath, "tickets", "add", "--category", "academic")
	mustRunCLI(t, env.configPath, "tickets", "add", "--category", "academic", "--status", "resolved")

	out := mustRunCLI(t, env.configPath, "summary", "--json")
	var summary struct {
		Categories map[string]int `json:"categories"`
		Statuses   map[string]int `json:"statuses"`
		Tickets    int            `json:"tickets"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Tickets != 2 || summary.Categories["academic"] != 2 || summary.Categories["sel"] != 0 {
		t.Fatalf("unexpected category counts %+v", summary)
	}
	if summary.Statuses["new"] != 1 || summary.Statuses["resolved"] != 1 || summary.Statuses["in-progress"] != 0 {
		t.Fatalf("unexpected status counts %+v", summary.Statuses)
	}

	out = mustRunCLI(t, env.configPath, "summary")
	requireContains(t, out, "Academic")
	requireContains(t, out, "in-progress")
}

func TestStatusReportsServer(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	upstream.Close()
	env := setupCLITestEnv(t, testsupport.WithChatURL(upstream.URL))

	out := mustRunCLI(t, env.configPath, "status")
	requireContains(t, out, "== Server ==")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "tickets, incidents")
	requireContains(t, out, "Chat upstream")
	requireContains(t, out, "== Documents ==")
}

func TestDataCommandsNeedServer(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env.configPath, "students", "list")
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	_, _, err := runCLI(t, env.configPath, "--server", closed.URL, "students", "add", "Ana")
	if err == nil || !strings.Contains(err.Error(), "ticketdesk serve") {
		t.Fatalf("expected server hint, got %v", err)
	}
	doc := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	if len(doc.Students) != 0 {
		t.Fatalf("nothing should be written, got %+v", doc.Students)
	}
}

func TestServerErrorIsReportedWithoutStartHint(t *testing.T) {
	env := setupCLITestEnv(t)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"disk full"}`))
	}))
	t.Cleanup(broken.Close)

	_, _, err := runCLI(t, env.configPath, "--server", broken.URL, "students", "list")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected server error message, got %v", err)
	}
	if strings.Contains(err.Error(), "ticketdesk serve") {
		t.Fatalf("a running server should not get the start hint: %v", err)
	}
}

func TestRestoreReplacesDocumentFromSnapshot(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env.configPath, "students", "add", "Ana")
	out := mustRunCLI(t, env.configPath, "backup")
	requireContains(t, out, "Saved")
	snapshots, err := filepath.Glob(filepath.Join(env.cfg.Paths.BackupDir, "tickets-*.json"))
	if err != nil || len(snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %v (%v)", snapshots, err)
	}

	mustRunCLI(t, env.configPath, "students", "add", "Ben")
	out = mustRunCLI(t, env.configPath, "restore", snapshots[0])
	requireContains(t, out, "1 students")

	doc := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	if len(doc.Students) != 1 || doc.Students[0].Name != "Ana" {
		t.Fatalf("expected restored students, got %+v", doc.Students)
	}

	empty := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "empty.json"), []byte(`{"categories":[]}`))
	if _, _, err := runCLI(t, env.configPath, "restore", empty); err == nil {
		t.Fatal("expected a snapshot without categories to be refused")
	}
}

func TestBackupCopiesAndPrunes(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env.configPath, "students", "add", "Ana")

	backupDir := env.cfg.Paths.BackupDir
	stale := testsupport.WriteFile(t, filepath.Join(backupDir, "tickets-20200101T000000Z.json"), []byte("{}"))
	old := time.Now().AddDate(0, 0, -90)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	unrelated := testsupport.WriteFile(t, filepath.Join(backupDir, "notes.txt"), []byte("keep"))
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatal(err)
	}

	out := mustRunCLI(t, env.configPath, "backup", "--retention-days", "30")
	requireContains(t, out, "Pruned 1 snapshot(s)")

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale snapshot should be pruned, stat err %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("unrelated file should be kept: %v", err)
	}
	snapshots, err := filepath.Glob(filepath.Join(backupDir, "tickets-*.json"))
	if err != nil || len(snapshots) != 1 {
		t.Fatalf("expected one fresh tickets snapshot, got %v (%v)", snapshots, err)
	}
	copied, err := os.ReadFile(snapshots[0])
	if err != nil {
		t.Fatal(err)
	}
	original, err := os.ReadFile(filepath.Join(env.cfg.Paths.DataDir, "tickets.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(copied) != string(original) {
		t.Fatal("snapshot differs from the live document")
	}
}

func TestAskStreamsAnswer(t *testing.T) {
	systemPrompts := make(chan string, 1)
	chatServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		if len(payload.Messages) > 0 {
			select {
			case systemPrompts <- payload.Messages[0].Content:
			default:
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Ana ", "needs follow-up."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer chatServer.Close()

	env := setupCLITestEnv(t, testsupport.WithChatURL(chatServer.URL))
	mustRunCLI(t, env.configPath, "students", "add", "Ana")

	out := mustRunCLI(t, env.configPath, "ask", "who", "needs", "help?")
	requireContains(t, out, "Ana needs follow-up.")
	gotSystem := <-systemPrompts
	if !strings.Contains(gotSystem, "- Ana - 0 ticket(s)") {
		t.Fatalf("system prompt should carry the digest, got %q", gotSystem)
	}
}

func TestTranscribeAttachesNote(t *testing.T) {
	assembly := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/upload":
			fmt.Fprint(w, `{"upload_url":"https://cdn.example/audio"}`)
		case "/v2/transcript":
			fmt.Fprint(w, `{"id":"job-1","status":"completed","text":"hello there","utterances":[{"speaker":"A","text":"hello there","start":0,"end":800,"confidence":0.9}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer assembly.Close()

	env := setupCLITestEnv(t, testsupport.WithTranscriptionURL(assembly.URL))
	ticketID := createdID(t, mustRunCLI(t, env.configPath, "tickets", "add"))
	audio := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "note.webm"), []byte("audio-bytes"))

	out := mustRunCLI(t, env.configPath, "transcribe", "--api-key", "test-key", ticketID, audio)
	requireContains(t, out, "Added transcript note")

	doc := testsupport.ReadDocument(t, env.cfg.Paths.DataDir, desk.TicketsLayout)
	notes := doc.Tickets[0].Notes
	if len(notes) != 1 || notes[0].Content != "hello there" || notes[0].Source != desk.SourceAssemblyTranscription {
		t.Fatalf("unexpected notes %+v", notes)
	}
	if len(notes[0].Utterances) != 1 || notes[0].Utterances[0].Speaker != "A" {
		t.Fatalf("utterances not kept: %+v", notes[0].Utterances)
	}
}

func TestTranscribeRequiresKey(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	env := setupCLITestEnv(t)
	ticketID := createdID(t, mustRunCLI(t, env.configPath, "tickets", "add"))
	audio := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "note.webm"), []byte("audio"))

	_, _, err := runCLI(t, env.configPath, "transcribe", ticketID, audio)
	if err == nil || !strings.Contains(err.Error(), "no AssemblyAI key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestLogsPrintsTailAndFilters(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	testsupport.WriteFile(t, logPath, []byte("INFO store: document saved\nWARN store: document unparsable\nINFO daemon: listening\n"))

	out := mustRunCLI(t, env.configPath, "logs", "-n", "2")
	if strings.Contains(out, "document saved") {
		t.Fatalf("expected only the last two lines, got %q", out)
	}
	requireContains(t, out, "listening")

	out = mustRunCLI(t, env.configPath, "logs", "--grep", "unparsable")
	if strings.TrimSpace(out) != "WARN store: document unparsable" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}
