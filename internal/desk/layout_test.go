package desk

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecodeEmptyObjectYieldsDefault(t *testing.T) {
	doc, err := TicketsLayout.Decode([]byte(`{}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Categories) != 3 {
		t.Fatalf("expected 3 default categories, got %d", len(doc.Categories))
	}
	if doc.Settings.Theme != ThemeLight || doc.Settings.LMStudioModel != DefaultLMStudioModel {
		t.Fatalf("unexpected settings %+v", doc.Settings)
	}
	if doc.Students == nil || doc.Tickets == nil {
		t.Fatal("expected non-nil collections")
	}
}

func TestMergePresentFieldsWin(t *testing.T) {
	data := []byte(`{"students":[{"id":"s1","name":"Ana","createdAt":"2025-02-01T10:00:00.000Z"}],"categories":[]}`)
	doc, err := TicketsLayout.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Students) != 1 || doc.Students[0].Name != "Ana" {
		t.Fatalf("students not taken from data: %+v", doc.Students)
	}
	if len(doc.Categories) != 0 {
		t.Fatalf("explicit empty categories should win, got %d", len(doc.Categories))
	}
	if len(doc.Tickets) != 0 {
		t.Fatalf("absent tickets should fall back to default, got %d", len(doc.Tickets))
	}
}

func TestMergeSettingsOneLevelDeep(t *testing.T) {
	doc, err := TicketsLayout.Decode([]byte(`{"settings":{"theme":"dark"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Settings.Theme != ThemeDark {
		t.Fatalf("theme = %q, want dark", doc.Settings.Theme)
	}
	if doc.Settings.LMStudioModel != DefaultLMStudioModel {
		t.Fatalf("model should fall back to default, got %q", doc.Settings.LMStudioModel)
	}
}

func TestMergeKeepsUnknownFields(t *testing.T) {
	data := []byte(`{"version":2,"categories":[{"id":"c","name":"C","createdAt":null}]}`)
	doc, err := TicketsLayout.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	encoded, err := TicketsLayout.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Contains(encoded, []byte(`"version":2`)) {
		t.Fatalf("unknown field dropped: %s", encoded)
	}
}

func TestMergeInvalidDataLeavesBase(t *testing.T) {
	base := Default()
	base.Students = append(base.Students, Student{ID: "s1", Name: "Ana"})
	doc, err := TicketsLayout.Merge(base, []byte(`{"students":"nope"}`))
	if err == nil {
		t.Fatal("expected error for mistyped field")
	}
	if len(doc.Students) != 1 || doc.Students[0].ID != "s1" {
		t.Fatalf("expected base students, got %+v", doc.Students)
	}
	if _, err := TicketsLayout.Merge(base, []byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestIncidentsLayoutUsesIncidentsKey(t *testing.T) {
	doc := Default()
	doc.Tickets = []Ticket{{ID: "t1", Date: "2025-03-01", Category: "academic", Status: StatusNew}}

	encoded, err := IncidentsLayout.MarshalIndent(doc)
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["incidents"]; !ok {
		t.Fatalf("expected incidents key in %s", encoded)
	}
	if _, ok := raw["tickets"]; ok {
		t.Fatalf("unexpected tickets key in %s", encoded)
	}

	decoded, err := IncidentsLayout.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Tickets) != 1 || decoded.Tickets[0].ID != "t1" {
		t.Fatalf("tickets not decoded: %+v", decoded.Tickets)
	}
}

func TestRoundTripIsByteStable(t *testing.T) {
	created := NewTimestamp(time.Date(2025, 4, 2, 9, 30, 15, 123456789, time.UTC))
	doc := Default()
	doc.Students = []Student{{ID: "s1", Name: "Ana", CreatedAt: created}}
	doc.Tickets = []Ticket{{
		ID:         "t1",
		Date:       "2025-04-02",
		StudentIDs: []string{"s1"},
		Category:   "sel",
		Status:     StatusInProgress,
		Details:    "Missed class",
		Notes: []Note{{
			ID:        "n1",
			Content:   "Called home",
			Timestamp: created,
			Author:    "You",
			Source:    SourceAssemblyTranscription,
			Utterances: []Utterance{
				{Speaker: "A", Text: "hello", Start: 0, End: 1200, Confidence: 0.93},
			},
			Summary: "- called home",
		}},
		CreatedAt: created,
		UpdatedAt: created,
	}}

	first, err := TicketsLayout.MarshalIndent(doc)
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	decoded, err := TicketsLayout.Decode(first)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	second, err := TicketsLayout.MarshalIndent(decoded)
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("round trip changed bytes:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(string(first), `"createdAt": "2025-04-02T09:30:15.123Z"`) {
		t.Fatalf("expected millisecond timestamp in %s", first)
	}
}

func TestMarshalNormalizesNilCollections(t *testing.T) {
	doc := Document{Tickets: []Ticket{{ID: "t1"}}}
	encoded, err := TicketsLayout.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"students":[]`, `"categories":[]`, `"studentIds":[]`, `"notes":[]`} {
		if !bytes.Contains(encoded, []byte(want)) {
			t.Fatalf("expected %s in %s", want, encoded)
		}
	}
}

func TestTimestampNullAndEmpty(t *testing.T) {
	var ts Timestamp
	for _, input := range []string{`null`, `""`} {
		if err := json.Unmarshal([]byte(input), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", input, err)
		}
		if !ts.IsZero() {
			t.Fatalf("expected zero time for %s", input)
		}
	}
	encoded, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != "null" {
		t.Fatalf("zero timestamp encoded as %s", encoded)
	}
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatal("expected error for invalid timestamp")
	}
}

func TestTimestampAcceptsUnixMillis(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`1735689600000`), &ts); err != nil {
		t.Fatalf("unmarshal millis: %v", err)
	}
	if !ts.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", ts.Time)
	}
	if err := json.Unmarshal([]byte(`1.5`), &ts); err == nil {
		t.Fatal("expected error for fractional millis")
	}

	doc, err := TicketsLayout.Decode([]byte(`{"students":[{"id":"s1","name":"Ana","createdAt":1735689600000}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Students) != 1 || doc.Students[0].CreatedAt.Year() != 2025 {
		t.Fatalf("unexpected students %+v", doc.Students)
	}
	encoded, err := json.Marshal(doc.Students[0].CreatedAt)
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) != `"2025-01-01T00:00:00.000Z"` {
		t.Fatalf("millis should re-encode as RFC3339, got %s", encoded)
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	doc := Default()
	doc.Tickets = []Ticket{{ID: "t1", StudentIDs: []string{"s1"}, Notes: []Note{{ID: "n1"}}}}
	clone := doc.Clone()
	clone.Tickets[0].StudentIDs[0] = "changed"
	clone.Tickets[0].Notes[0].Content = "changed"
	clone.Categories[0].Name = "changed"

	if doc.Tickets[0].StudentIDs[0] != "s1" || doc.Tickets[0].Notes[0].Content != "" || doc.Categories[0].Name != "Academic" {
		t.Fatal("clone shares memory with original")
	}
	if Default().Students == nil || doc.Clone().Students == nil {
		t.Fatal("clone should preserve empty non-nil slices")
	}
}
