package desk

import "encoding/json"

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// Valid reports whether s is one of the known ticket states.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved:
		return true
	default:
		return false
	}
}

// Statuses lists ticket states in workflow order.
func Statuses() []Status {
	return []Status{StatusNew, StatusInProgress, StatusResolved}
}

// NoteSource records how a note was captured.
type NoteSource string

const (
	SourceManual                NoteSource = "manual"
	SourceAudioTranscription    NoteSource = "audio-transcription"
	SourceAssemblyTranscription NoteSource = "assembly-transcription"
)

// Valid reports whether s is a known note source.
func (s NoteSource) Valid() bool {
	switch s {
	case SourceManual, SourceAudioTranscription, SourceAssemblyTranscription:
		return true
	default:
		return false
	}
}

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"createdAt"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Utterance is one speaker-attributed segment of a transcription. Start and
// End are offsets in milliseconds.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Note is owned by exactly one ticket.
type Note struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	Timestamp  Timestamp   `json:"timestamp"`
	Author     string      `json:"author"`
	Source     NoteSource  `json:"source"`
	Utterances []Utterance `json:"utterances,omitempty"`
	Summary    string      `json:"summary,omitempty"`
}

// Ticket references students and a category by id. Date is a calendar day
// (YYYY-MM-DD) chosen by the operator, not a creation timestamp.
type Ticket struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	StudentIDs []string  `json:"studentIds"`
	Category   string    `json:"category"`
	Status     Status    `json:"status"`
	Details    string    `json:"details"`
	Notes      []Note    `json:"notes"`
	CreatedAt  Timestamp `json:"createdAt"`
	UpdatedAt  Timestamp `json:"updatedAt"`
}

type Settings struct {
	Theme         Theme  `json:"theme"`
	LMStudioModel string `json:"lmStudioModel"`
	AssemblyAIKey string `json:"assemblyAIKey,omitempty"`
}

// Document is the aggregate root persisted per layout. Extra carries
// top-level fields this version does not model so they survive a load/save
// cycle.
type Document struct {
	Students   []Student
	Tickets    []Ticket
	Categories []Category
	Settings   Settings
	Extra      map[string]json.RawMessage
}

// Clone returns a deep copy; documents are treated as immutable snapshots.
func (d Document) Clone() Document {
	out := Document{
		Students:   cloneSlice(d.Students),
		Categories: cloneSlice(d.Categories),
		Settings:   d.Settings,
	}
	if d.Tickets != nil {
		out.Tickets = make([]Ticket, len(d.Tickets))
		for i, ticket := range d.Tickets {
			out.Tickets[i] = ticket.Clone()
		}
	}
	if d.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for key, value := range d.Extra {
			out.Extra[key] = append(json.RawMessage(nil), value...)
		}
	}
	return out
}

// Clone returns a copy of t that shares no slices with it.
func (t Ticket) Clone() Ticket {
	out := t
	out.StudentIDs = cloneSlice(t.StudentIDs)
	if t.Notes != nil {
		out.Notes = make([]Note, len(t.Notes))
		for i, note := range t.Notes {
			out.Notes[i] = note
			out.Notes[i].Utterances = cloneSlice(note.Utterances)
		}
	}
	return out
}

// HasStudent reports whether id is in the ticket's student list.
func (t Ticket) HasStudent(id string) bool {
	for _, sid := range t.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
