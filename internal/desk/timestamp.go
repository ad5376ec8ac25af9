package desk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout mirrors what browsers emit from Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant encoded as RFC3339 with millisecond precision.
// The zero value encodes as null. Decoding also accepts Unix milliseconds
// (Date.now() values).
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds so values survive a JSON round trip unchanged.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] != '"' {
		var millis int64
		if err := json.Unmarshal(trimmed, &millis); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		t.Time = time.UnixMilli(millis).UTC()
		return nil
	}
	var value string
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if value == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", value, err)
	}
	t.Time = parsed.UTC()
	return nil
}
