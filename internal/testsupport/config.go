package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ticketdesk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The data and log directories exist on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.BackupDir = filepath.Join(base, "backups")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Transcription.APIKey = ""
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.DataDir, cfgVal.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithChatURL points the chat upstream at a test server.
func WithChatURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Chat.BaseURL = url
	}
}

// WithTranscriptionURL points AssemblyAI calls at a test server.
func WithTranscriptionURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.BaseURL = url
		b.cfg.Transcription.PollIntervalSeconds = 1
	}
}

// WithStaticDir creates a static UI directory holding index.html.
func WithStaticDir(index string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "static")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir static dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644); err != nil {
			b.t.Fatalf("write index.html: %v", err)
		}
		b.cfg.Paths.StaticDir = dir
	}
}

// WithDebounceMS overrides the client save debounce.
func WithDebounceMS(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.DebounceMS = ms
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
