package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Replace the selected document with a backup snapshot",
		Long: "Reads a snapshot written by `ticketdesk backup` (or any document file) and sends it " +
			"to the server as the new --document. The current server copy is overwritten.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := ctx.layout()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			doc, err := layout.Decode(data)
			if err != nil {
				return fmt.Errorf("decode snapshot as %s document: %w", layout.Name, err)
			}
			if len(doc.Categories) == 0 {
				return fmt.Errorf("snapshot %s has no categories", args[0])
			}
			if err := ctx.withContainer(cmd, func(c *client.Container) error {
				c.ReplaceState(doc)
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s (%d students, %d tickets)\n",
				layout.Name, args[0], len(doc.Students), len(doc.Tickets))
			return nil
		},
	}
}
