package desk

import (
	"encoding/json"
	"fmt"
)

const (
	keyStudents   = "students"
	keyCategories = "categories"
	keySettings   = "settings"
)

// Layout names one document type and the key its ticket collection is
// stored under. The legacy incidents document is the same protocol with the
// collection keyed "incidents".
type Layout struct {
	Name       string
	TicketsKey string
}

var (
	TicketsLayout   = Layout{Name: "tickets", TicketsKey: "tickets"}
	IncidentsLayout = Layout{Name: "incidents", TicketsKey: "incidents"}
)

// Layouts returns every supported layout.
func Layouts() []Layout {
	return []Layout{TicketsLayout, IncidentsLayout}
}

func (l Layout) ticketsKey() string {
	if l.TicketsKey == "" {
		return TicketsLayout.TicketsKey
	}
	return l.TicketsKey
}

func (l Layout) known(key string) bool {
	switch key {
	case keyStudents, keyCategories, keySettings, l.ticketsKey():
		return true
	default:
		return false
	}
}

// Marshal encodes doc compactly.
func (l Layout) Marshal(doc Document) ([]byte, error) {
	data, err := json.Marshal(l.fields(doc))
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", l.Name, err)
	}
	return data, nil
}

// MarshalIndent encodes doc the way it is written to disk. Keys are emitted
// in sorted order so identical documents always produce identical bytes.
func (l Layout) MarshalIndent(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(l.fields(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", l.Name, err)
	}
	return data, nil
}

func (l Layout) fields(doc Document) map[string]any {
	fields := make(map[string]any, 4+len(doc.Extra))
	for key, value := range doc.Extra {
		if l.known(key) {
			continue
		}
		fields[key] = value
	}
	fields[keyStudents] = nonNil(doc.Students)
	fields[l.ticketsKey()] = normalizeTickets(doc.Tickets)
	fields[keyCategories] = nonNil(doc.Categories)
	fields[keySettings] = doc.Settings
	return fields
}

// Decode parses data and merges it over the default document.
func (l Layout) Decode(data []byte) (Document, error) {
	return l.Merge(Default(), data)
}

// Merge lays the top-level fields present in data over base. Fields absent
// from data keep base's value; settings merge one level deep; unrecognised
// keys are kept in Extra. base is not modified.
func (l Layout) Merge(base Document, data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return base.Clone(), fmt.Errorf("decode %s document: %w", l.Name, err)
	}
	doc := base.Clone()
	for key, value := range raw {
		var err error
		switch key {
		case keyStudents:
			var students []Student
			err = json.Unmarshal(value, &students)
			doc.Students = students
		case l.ticketsKey():
			var tickets []Ticket
			err = json.Unmarshal(value, &tickets)
			doc.Tickets = tickets
		case keyCategories:
			var categories []Category
			err = json.Unmarshal(value, &categories)
			doc.Categories = categories
		case keySettings:
			settings := doc.Settings
			err = json.Unmarshal(value, &settings)
			doc.Settings = settings
		default:
			if doc.Extra == nil {
				doc.Extra = make(map[string]json.RawMessage)
			}
			doc.Extra[key] = append(json.RawMessage(nil), value...)
		}
		if err != nil {
			return base.Clone(), fmt.Errorf("decode %s document field %q: %w", l.Name, key, err)
		}
	}
	return doc, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func normalizeTickets(tickets []Ticket) []Ticket {
	out := make([]Ticket, len(tickets))
	for i, ticket := range tickets {
		ticket.StudentIDs = nonNil(ticket.StudentIDs)
		ticket.Notes = nonNil(ticket.Notes)
		out[i] = ticket
	}
	return out
}
