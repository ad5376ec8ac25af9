package preflight

import (
	"context"

	"ticketdesk/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Required results block startup when they fail.
	Required bool
}

const (
	NameDataDir       = "Data directory"
	NameLogDir        = "Log directory"
	NameStaticDir     = "Static UI directory"
	NameChat          = "Chat upstream"
	NameTranscription = "Transcription"
)

// RunAll executes every preflight check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	dataDir := CheckDirectoryAccess(NameDataDir, cfg.Paths.DataDir)
	dataDir.Required = true
	results = append(results, dataDir)

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess(NameLogDir, cfg.Paths.LogDir))
	}

	// The static bundle is only read.
	if cfg.Paths.StaticDir != "" {
		results = append(results, CheckReadableDirectory(NameStaticDir, cfg.Paths.StaticDir))
	}

	results = append(results, CheckChatUpstream(ctx, cfg.Chat))
	results = append(results, CheckTranscriptionKey(cfg.Transcription))

	return results
}

// FirstRequiredFailure returns the first failed required result, if any.
func FirstRequiredFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Required && !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}
