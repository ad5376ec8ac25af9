package desk

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TicketFilter selects tickets for a view. Zero fields match everything.
type TicketFilter struct {
	Status     Status
	CategoryID string
	StudentID  string
}

func (f TicketFilter) matches(t Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.CategoryID != "" && t.Category != f.CategoryID {
		return false
	}
	if f.StudentID != "" && !t.HasStudent(f.StudentID) {
		return false
	}
	return true
}

// FilterTickets returns the matching tickets, newest date first.
func FilterTickets(doc Document, filter TicketFilter) []Ticket {
	var out []Ticket
	for _, ticket := range doc.Tickets {
		if filter.matches(ticket) {
			out = append(out, ticket)
		}
	}
	return SortByDateDesc(out)
}

// TicketsByCategory returns the category's tickets, newest date first.
func TicketsByCategory(doc Document, categoryID string) []Ticket {
	return FilterTickets(doc, TicketFilter{CategoryID: categoryID})
}

// TicketsByStudent returns tickets that reference the student, newest date first.
func TicketsByStudent(doc Document, studentID string) []Ticket {
	return FilterTickets(doc, TicketFilter{StudentID: studentID})
}

// SortByDateDesc returns a copy of tickets ordered by calendar date, newest
// first. Tickets with equal dates keep their relative order; unparsable
// dates sort last.
func SortByDateDesc(tickets []Ticket) []Ticket {
	out := slices.Clone(tickets)
	slices.SortStableFunc(out, func(a, b Ticket) int {
		da, okA := ParseDate(a.Date)
		db, okB := ParseDate(b.Date)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return db.Compare(da)
	})
	return out
}

// ParseDate interprets a bare YYYY-MM-DD value as a local calendar day so it
// does not shift across time zones. Values with a time part are parsed as
// RFC3339.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if strings.Contains(value, "T") {
		parsed, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	parsed, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// CountByCategory counts tickets per category id. Every known category is
// present, and ids referenced by tickets but missing from the document are
// counted too.
func CountByCategory(doc Document) map[string]int {
	counts := make(map[string]int, len(doc.Categories))
	for _, category := range doc.Categories {
		counts[category.ID] = 0
	}
	for _, ticket := range doc.Tickets {
		counts[ticket.Category]++
	}
	return counts
}

// CountByStatus counts tickets per status; every known status is present.
func CountByStatus(doc Document) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, status := range Statuses() {
		counts[status] = 0
	}
	for _, ticket := range doc.Tickets {
		counts[ticket.Status]++
	}
	return counts
}

// StudentByID looks up a student.
func StudentByID(doc Document, id string) (Student, bool) {
	for _, student := range doc.Students {
		if student.ID == id {
			return student, true
		}
	}
	return Student{}, false
}

// CategoryByID looks up a category.
func CategoryByID(doc Document, id string) (Category, bool) {
	for _, category := range doc.Categories {
		if category.ID == id {
			return category, true
		}
	}
	return Category{}, false
}

// StudentsByIDs resolves ids in order, skipping ids with no student.
func StudentsByIDs(doc Document, ids []string) []Student {
	out := make([]Student, 0, len(ids))
	for _, id := range ids {
		if student, ok := StudentByID(doc, id); ok {
			out = append(out, student)
		}
	}
	return out
}

// StudentNames joins ids to display names, skipping dangling ids.
func StudentNames(doc Document, ids []string) []string {
	students := StudentsByIDs(doc, ids)
	names := make([]string, len(students))
	for i, student := range students {
		names[i] = student.Name
	}
	return names
}

// CategoryName returns the category's display name, or "" for a dangling id.
func CategoryName(doc Document, id string) string {
	if category, ok := CategoryByID(doc, id); ok {
		return category.Name
	}
	return ""
}

// SortedStudents returns the students ordered by name using
// language-aware, case-insensitive collation.
func SortedStudents(doc Document) []Student {
	out := slices.Clone(doc.Students)
	collator := collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics)
	slices.SortStableFunc(out, func(a, b Student) int {
		return collator.CompareString(a.Name, b.Name)
	})
	return out
}
