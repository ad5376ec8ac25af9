package fileutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ticketdesk/internal/logging"
)

// PruneOlderThan removes regular files in dir whose names match pattern and
// whose modification time is before cutoff. It returns the removed paths.
// Failures are logged and skipped.
func PruneOlderThan(logger *slog.Logger, dir, pattern string, cutoff time.Time) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if matched, err := filepath.Match(pattern, name); err != nil || !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		fullPath := filepath.Join(dir, name)
		if err := os.Remove(fullPath); err != nil {
			logging.WarnWithContext(logger, "snapshot prune failed; file remains", "backup_prune_failed",
				logging.String("path", fullPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check file permissions in the backup directory"),
				logging.String(logging.FieldImpact, "old snapshot remains on disk"),
			)
			continue
		}
		if logger != nil {
			logger.Info("snapshot pruned",
				logging.String("path", fullPath),
				logging.String(logging.FieldEventType, "backup_pruned"),
			)
		}
		removed = append(removed, fullPath)
	}
	return removed
}
