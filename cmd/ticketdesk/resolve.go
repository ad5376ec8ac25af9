package main

import (
	"fmt"
	"strings"

	"ticketdesk/internal/desk"
)

// shortID trims generated ids ("ticket-<uuid>") to a prefix that is still
// unique in practice. Any unique prefix is accepted back by the resolvers.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 && len(id) > i+9 {
		return id[:i+9]
	}
	return id
}

func resolveTicket(doc desk.Document, ref string) (desk.Ticket, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return desk.Ticket{}, fmt.Errorf("ticket id is required")
	}
	var matches []desk.Ticket
	for _, ticket := range doc.Tickets {
		if ticket.ID == ref {
			return ticket, nil
		}
		if strings.HasPrefix(ticket.ID, ref) {
			matches = append(matches, ticket)
		}
	}
	switch len(matches) {
	case 0:
		return desk.Ticket{}, fmt.Errorf("no ticket matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return desk.Ticket{}, fmt.Errorf("%q matches %d tickets; use a longer id", ref, len(matches))
	}
}

func resolveNote(ticket desk.Ticket, ref string) (desk.Note, error) {
	ref = strings.TrimSpace(ref)
	var matches []desk.Note
	for _, note := range ticket.Notes {
		if note.ID == ref {
			return note, nil
		}
		if ref != "" && strings.HasPrefix(note.ID, ref) {
			matches = append(matches, note)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return desk.Note{}, fmt.Errorf("%q matches %d notes; use a longer id", ref, len(matches))
	}
	return desk.Note{}, fmt.Errorf("ticket %s has no note %q", shortID(ticket.ID), ref)
}

// resolveStudent accepts an id, a unique id prefix or an exact name
// (case-insensitive).
func resolveStudent(doc desk.Document, ref string) (desk.Student, error) {
	ref = strings.TrimSpace(ref)
	var byPrefix, byName []desk.Student
	for _, student := range doc.Students {
		if student.ID == ref {
			return student, nil
		}
		if ref != "" && strings.HasPrefix(student.ID, ref) {
			byPrefix = append(byPrefix, student)
		}
		if strings.EqualFold(strings.TrimSpace(student.Name), ref) {
			byName = append(byName, student)
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return desk.Student{}, fmt.Errorf("%d students are named %q; use an id", len(byName), ref)
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	return desk.Student{}, fmt.Errorf("no student matches %q", ref)
}

// resolveCategory accepts an id or a name (case-insensitive).
func resolveCategory(doc desk.Document, ref string) (desk.Category, error) {
	ref = strings.TrimSpace(ref)
	for _, category := range doc.Categories {
		if category.ID == ref {
			return category, nil
		}
	}
	for _, category := range doc.Categories {
		if strings.EqualFold(strings.TrimSpace(category.Name), ref) {
			return category, nil
		}
	}
	return desk.Category{}, fmt.Errorf("no category matches %q", ref)
}

func resolveStudents(doc desk.Document, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		student, err := resolveStudent(doc, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, student.ID)
	}
	return ids, nil
}

func parseStatus(value string) (desk.Status, error) {
	status := desk.Status(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q (expected one of %s)", value, joinStatuses())
	}
	return status, nil
}

func joinStatuses() string {
	statuses := desk.Statuses()
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}

// categoryLabel renders a ticket's category, marking ids whose category was deleted.
func categoryLabel(doc desk.Document, id string) string {
	if name := desk.CategoryName(doc, id); name != "" {
		return name
	}
	return "(unknown " + id + ")"
}
