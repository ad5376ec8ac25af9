package desk

import (
	"fmt"
	"strings"
	"time"
)

const digestNoteLimit = 200

// Digest renders the document as Markdown for use as chat-assistant
// context. Student and category references are resolved to names; dangling
// references render as "Unknown".
func Digest(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# STUDENT SUPPORT TICKET DATABASE\n\n")
	fmt.Fprintf(&b, "## STUDENTS (%d total)\n", len(doc.Students))
	for _, student := range doc.Students {
		fmt.Fprintf(&b, "- %s - %d ticket(s)\n", student.Name, len(TicketsByStudent(doc, student.ID)))
	}

	fmt.Fprintf(&b, "\n## CATEGORIES (%d total)\n", len(doc.Categories))
	for _, category := range doc.Categories {
		fmt.Fprintf(&b, "- %s\n", category.Name)
	}

	fmt.Fprintf(&b, "\n## TICKETS (%d total)\n", len(doc.Tickets))
	for _, ticket := range doc.Tickets {
		names := make([]string, 0, len(ticket.StudentIDs))
		for _, id := range ticket.StudentIDs {
			if student, ok := StudentByID(doc, id); ok {
				names = append(names, student.Name)
			} else {
				names = append(names, "Unknown")
			}
		}
		category := "Unknown"
		if c, ok := CategoryByID(doc, ticket.Category); ok {
			category = c.Name
		}

		fmt.Fprintf(&b, "\n### Ticket ID: %s\n", ticket.ID)
		fmt.Fprintf(&b, "- **Date**: %s\n", digestDate(ticket.Date))
		fmt.Fprintf(&b, "- **Students**: %s\n", strings.Join(names, ", "))
		fmt.Fprintf(&b, "- **Category**: %s\n", category)
		fmt.Fprintf(&b, "- **Status**: %s\n", ticket.Status)
		fmt.Fprintf(&b, "- **Details**: %s\n", ticket.Details)
		fmt.Fprintf(&b, "- **Notes (%d total)**:\n", len(ticket.Notes))
		for _, note := range ticket.Notes {
			b.WriteString(digestNote(note))
		}
	}
	return b.String()
}

func digestDate(value string) string {
	parsed, ok := ParseDate(value)
	if !ok {
		return value
	}
	return parsed.Format("Jan 2, 2006")
}

func digestNote(note Note) string {
	var b strings.Builder
	b.WriteString("  - [")
	if note.Timestamp.IsZero() {
		b.WriteString("undated")
	} else {
		b.WriteString(note.Timestamp.In(time.Local).Format("Jan 2, 2006 3:04 PM"))
	}
	b.WriteString("] ")
	switch note.Source {
	case SourceAssemblyTranscription, SourceAudioTranscription:
		b.WriteString("(transcript) ")
	}
	if note.Summary != "" {
		b.WriteString("SUMMARY: ")
		b.WriteString(note.Summary)
		b.WriteByte(' ')
	}
	content := []rune(note.Content)
	if len(content) > digestNoteLimit {
		b.WriteString(string(content[:digestNoteLimit]))
		b.WriteString("...")
	} else {
		b.WriteString(note.Content)
	}
	if speakers := noteSpeakers(note); len(speakers) > 0 {
		b.WriteString(" (Speakers: ")
		b.WriteString(strings.Join(speakers, ", "))
		b.WriteByte(')')
	}
	b.WriteByte('\n')
	return b.String()
}

// noteSpeakers lists distinct utterance speakers in first-seen order.
func noteSpeakers(note Note) []string {
	var speakers []string
	seen := make(map[string]bool)
	for _, u := range note.Utterances {
		if u.Speaker == "" || seen[u.Speaker] {
			continue
		}
		seen[u.Speaker] = true
		speakers = append(speakers, u.Speaker)
	}
	return speakers
}
