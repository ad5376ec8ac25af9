package desk

import "time"

const (
	// FallbackCategoryID receives tickets whose category is deleted.
	FallbackCategoryID = "behavioral"
	// DefaultLMStudioModel is the chat model used when settings carry none.
	DefaultLMStudioModel = "llama-3.2-3b"
)

var seedCreatedAt = NewTimestamp(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))

// Default returns the hardcoded document used for first runs and whenever
// persisted data is absent or unreadable. Each call returns fresh slices.
func Default() Document {
	return Document{
		Students: []Student{},
		Tickets:  []Ticket{},
		Categories: []Category{
			{ID: "academic", Name: "Academic", CreatedAt: seedCreatedAt},
			{ID: "behavioral", Name: "Behavioral", CreatedAt: seedCreatedAt},
			{ID: "sel", Name: "SEL", CreatedAt: seedCreatedAt},
		},
		Settings: Settings{
			Theme:         ThemeLight,
			LMStudioModel: DefaultLMStudioModel,
		},
	}
}
