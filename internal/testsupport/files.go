package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ticketdesk/internal/desk"
)

// WriteDocument encodes doc with layout into <dir>/<layout>.json.
func WriteDocument(t testing.TB, dir string, layout desk.Layout, doc desk.Document) string {
	t.Helper()

	data, err := layout.MarshalIndent(doc)
	if err != nil {
		t.Fatalf("encode %s: %v", layout.Name, err)
	}
	return WriteFile(t, filepath.Join(dir, layout.Name+".json"), data)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadDocument decodes <dir>/<layout>.json.
func ReadDocument(t testing.TB, dir string, layout desk.Layout) desk.Document {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, layout.Name+".json"))
	if err != nil {
		t.Fatalf("read %s: %v", layout.Name, err)
	}
	doc, err := layout.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", layout.Name, err)
	}
	return doc
}
