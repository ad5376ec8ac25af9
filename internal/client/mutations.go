package client

import (
	"strings"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/logging"
)

// NoteAuthor is recorded on every note created through the container.
const NoteAuthor = "You"

// TicketInput describes a new ticket. Status defaults to new.
type TicketInput struct {
	Date       string
	StudentIDs []string
	Category   string
	Status     desk.Status
	Details    string
	Notes      []desk.Note
}

// TicketPatch changes only the fields that are set.
type TicketPatch struct {
	Date       *string
	StudentIDs *[]string
	Category   *string
	Status     *desk.Status
	Details    *string
}

// NoteInput describes a note carrying transcription metadata.
type NoteInput struct {
	Content    string
	Source     desk.NoteSource
	Utterances []desk.Utterance
	Summary    string
}

// SettingsPatch changes only the settings that are set.
type SettingsPatch struct {
	Theme         *desk.Theme
	LMStudioModel *string
	AssemblyAIKey *string
}

func (c *Container) stamp() desk.Timestamp {
	return desk.NewTimestamp(c.now())
}

// AddTicket appends a ticket and returns its id. Student ids that do not
// match a student are kept and logged.
func (c *Container) AddTicket(in TicketInput) string {
	id := c.newID("ticket")
	c.mutate(func(doc *desk.Document) {
		now := c.stamp()
		status := in.Status
		if status == "" {
			status = desk.StatusNew
		}
		ticket := desk.Ticket{
			ID:         id,
			Date:       in.Date,
			StudentIDs: append([]string{}, in.StudentIDs...),
			Category:   in.Category,
			Status:     status,
			Details:    in.Details,
			Notes:      append([]desk.Note{}, in.Notes...),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for _, sid := range ticket.StudentIDs {
			if _, ok := desk.StudentByID(*doc, sid); !ok {
				logging.WarnWithContext(c.logger, "ticket references unknown student", "dangling_student_reference",
					logging.String("ticket_id", id),
					logging.String("student_id", sid),
					logging.String(logging.FieldErrorHint, "the student may have been deleted in another view"),
					logging.String(logging.FieldImpact, "the id is kept but omitted from student name lists"),
				)
			}
		}
		doc.Tickets = append(doc.Tickets, ticket)
	})
	return id
}

// UpdateTicket applies patch and refreshes updatedAt. Unknown ids are ignored.
func (c *Container) UpdateTicket(id string, patch TicketPatch) {
	c.mutate(func(doc *desk.Document) {
		c.withTicket(doc, id, func(t *desk.Ticket) {
			if patch.Date != nil {
				t.Date = *patch.Date
			}
			if patch.StudentIDs != nil {
				t.StudentIDs = append([]string{}, (*patch.StudentIDs)...)
			}
			if patch.Category != nil {
				t.Category = *patch.Category
			}
			if patch.Status != nil {
				t.Status = *patch.Status
			}
			if patch.Details != nil {
				t.Details = *patch.Details
			}
		})
	})
}

// DeleteTicket removes a ticket and its notes.
func (c *Container) DeleteTicket(id string) {
	c.mutate(func(doc *desk.Document) {
		kept := doc.Tickets[:0]
		for _, t := range doc.Tickets {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		doc.Tickets = kept
	})
}

// AddStudent appends a student and returns its id.
func (c *Container) AddStudent(name string) string {
	id := c.newID("student")
	c.mutate(func(doc *desk.Document) {
		doc.Students = append(doc.Students, desk.Student{
			ID:        id,
			Name:      strings.TrimSpace(name),
			CreatedAt: c.stamp(),
		})
	})
	return id
}

// UpdateStudent renames a student.
func (c *Container) UpdateStudent(id, name string) {
	c.mutate(func(doc *desk.Document) {
		for i := range doc.Students {
			if doc.Students[i].ID == id {
				doc.Students[i].Name = strings.TrimSpace(name)
			}
		}
	})
}

// DeleteStudent removes a student and strips its id from every ticket in
// the same snapshot.
func (c *Container) DeleteStudent(id string) {
	c.mutate(func(doc *desk.Document) {
		*doc = desk.DeleteStudent(*doc, id)
	})
}

// AddCategory appends a category and returns its id.
func (c *Container) AddCategory(name string) string {
	id := c.newID("category")
	c.mutate(func(doc *desk.Document) {
		doc.Categories = append(doc.Categories, desk.Category{
			ID:        id,
			Name:      strings.TrimSpace(name),
			CreatedAt: c.stamp(),
		})
	})
	return id
}

// UpdateCategory renames a category.
func (c *Container) UpdateCategory(id, name string) {
	c.mutate(func(doc *desk.Document) {
		for i := range doc.Categories {
			if doc.Categories[i].ID == id {
				doc.Categories[i].Name = strings.TrimSpace(name)
			}
		}
	})
}

// DeleteCategory removes a category and moves its tickets to the fallback
// category in the same snapshot.
func (c *Container) DeleteCategory(id string) {
	c.mutate(func(doc *desk.Document) {
		*doc = desk.DeleteCategory(*doc, id)
	})
}

// AddNote appends a note to a ticket and returns the note id.
func (c *Container) AddNote(ticketID, content string, source desk.NoteSource) string {
	return c.AddNoteWithMetadata(ticketID, NoteInput{Content: content, Source: source})
}

// AddNoteWithMetadata appends a note that may carry utterances and a summary.
func (c *Container) AddNoteWithMetadata(ticketID string, in NoteInput) string {
	id := c.newID("note")
	source := in.Source
	if source == "" {
		source = desk.SourceManual
	}
	if !source.Valid() {
		logging.WarnWithContext(c.logger, "unknown note source; recording as manual", "note_source_invalid",
			logging.String("source", string(source)),
			logging.String(logging.FieldImpact, "the note is labelled as a manual note"),
		)
		source = desk.SourceManual
	}
	c.mutate(func(doc *desk.Document) {
		c.withTicket(doc, ticketID, func(t *desk.Ticket) {
			t.Notes = append(t.Notes, desk.Note{
				ID:         id,
				Content:    strings.TrimSpace(in.Content),
				Timestamp:  c.stamp(),
				Author:     NoteAuthor,
				Source:     source,
				Utterances: append([]desk.Utterance(nil), in.Utterances...),
				Summary:    in.Summary,
			})
		})
	})
	return id
}

// UpdateNote replaces a note's content.
func (c *Container) UpdateNote(ticketID, noteID, content string) {
	c.mutate(func(doc *desk.Document) {
		c.withTicket(doc, ticketID, func(t *desk.Ticket) {
			for i := range t.Notes {
				if t.Notes[i].ID == noteID {
					t.Notes[i].Content = strings.TrimSpace(content)
				}
			}
		})
	})
}

// DeleteNote removes a note from its ticket.
func (c *Container) DeleteNote(ticketID, noteID string) {
	c.mutate(func(doc *desk.Document) {
		c.withTicket(doc, ticketID, func(t *desk.Ticket) {
			kept := t.Notes[:0]
			for _, n := range t.Notes {
				if n.ID != noteID {
					kept = append(kept, n)
				}
			}
			t.Notes = kept
		})
	})
}

// UpdateSettings merges patch into the settings.
func (c *Container) UpdateSettings(patch SettingsPatch) {
	c.mutate(func(doc *desk.Document) {
		if patch.Theme != nil {
			doc.Settings.Theme = *patch.Theme
		}
		if patch.LMStudioModel != nil {
			doc.Settings.LMStudioModel = *patch.LMStudioModel
		}
		if patch.AssemblyAIKey != nil {
			doc.Settings.AssemblyAIKey = *patch.AssemblyAIKey
		}
	})
}

// ReplaceState swaps in a whole document, for example a restored backup.
func (c *Container) ReplaceState(next desk.Document) {
	c.mutate(func(doc *desk.Document) {
		*doc = next.Clone()
	})
}

// Reset restores the default document.
func (c *Container) Reset() {
	c.mutate(func(doc *desk.Document) {
		*doc = desk.Default()
	})
}

// withTicket runs fn on the ticket with id and refreshes its updatedAt.
func (c *Container) withTicket(doc *desk.Document, id string, fn func(t *desk.Ticket)) {
	for i := range doc.Tickets {
		if doc.Tickets[i].ID != id {
			continue
		}
		fn(&doc.Tickets[i])
		doc.Tickets[i].UpdatedAt = c.stamp()
	}
}
