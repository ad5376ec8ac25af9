package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ticketdesk/internal/desk"
	"ticketdesk/internal/fileutil"
)

const backupStampLayout = "20060102T150405Z"

func newBackupCommand(ctx *commandContext) *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the document files into the backup directory",
		Long: "Copies tickets.json and incidents.json into paths.backup_dir with a UTC timestamp " +
			"suffix and removes snapshots older than backup.retention_days. Works whether or not the server is running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			days := cfg.Backup.RetentionDays
			if cmd.Flags().Changed("retention-days") {
				days = retentionDays
			}
			stdout := cmd.OutOrStdout()
			now := time.Now().UTC()
			stamp := now.Format(backupStampLayout)

			copied := 0
			for _, layout := range desk.Layouts() {
				src := filepath.Join(cfg.Paths.DataDir, layout.Name+".json")
				if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintf(stdout, "Skipped %s (not created yet)\n", layout.Name)
					continue
				}
				dst := filepath.Join(cfg.Paths.BackupDir, fmt.Sprintf("%s-%s.json", layout.Name, stamp))
				if err := fileutil.CopyFileVerified(src, dst); err != nil {
					return fmt.Errorf("back up %s: %w", layout.Name, err)
				}
				copied++
				fmt.Fprintf(stdout, "Saved %s\n", dst)
			}

			if days > 0 {
				cutoff := now.AddDate(0, 0, -days)
				removed := 0
				for _, layout := range desk.Layouts() {
					removed += len(fileutil.PruneOlderThan(ctx.cliLogger(), cfg.Paths.BackupDir, layout.Name+"-*.json", cutoff))
				}
				if removed > 0 {
					fmt.Fprintf(stdout, "Pruned %d snapshot(s) older than %d day(s)\n", removed, days)
				}
			}
			if copied == 0 {
				fmt.Fprintln(stdout, "Nothing to back up")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Override backup.retention_days (0 keeps everything)")
	return cmd
}
