package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note"},
		Short:   "Add, edit and delete ticket notes",
	}
	notesCmd.AddCommand(newNotesAddCommand(ctx))
	notesCmd.AddCommand(newNotesEditCommand(ctx))
	notesCmd.AddCommand(newNotesDeleteCommand(ctx))
	return notesCmd
}

func newNotesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ticket> <text>",
		Short: "Append a note to a ticket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return fmt.Errorf("note text is required")
			}
			return ctx.withContainer(cmd, func(c *client.Container) error {
				ticket, err := resolveTicket(c.State(), args[0])
				if err != nil {
					return err
				}
				id := c.AddNote(ticket.ID, content, desk.SourceManual)
				fmt.Fprintf(cmd.OutOrStdout(), "Added note %s to ticket %s\n", shortID(id), shortID(ticket.ID))
				return nil
			})
		},
	}
}

func newNotesEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <ticket> <note> <text>",
		Short: "Replace a note's text",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.TrimSpace(strings.Join(args[2:], " "))
			if content == "" {
				return fmt.Errorf("note text is required")
			}
			return ctx.withContainer(cmd, func(c *client.Container) error {
				ticket, err := resolveTicket(c.State(), args[0])
				if err != nil {
					return err
				}
				note, err := resolveNote(ticket, args[1])
				if err != nil {
					return err
				}
				c.UpdateNote(ticket.ID, note.ID, content)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", shortID(note.ID))
				return nil
			})
		},
	}
}

func newNotesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ticket> <note>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				ticket, err := resolveTicket(c.State(), args[0])
				if err != nil {
					return err
				}
				note, err := resolveNote(ticket, args[1])
				if err != nil {
					return err
				}
				c.DeleteNote(ticket.ID, note.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", shortID(note.ID))
				return nil
			})
		},
	}
}
