package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	categoriesCmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage ticket categories",
	}
	categoriesCmd.AddCommand(newCategoriesListCommand(ctx))
	categoriesCmd.AddCommand(newCategoriesAddCommand(ctx))
	categoriesCmd.AddCommand(newCategoriesRenameCommand(ctx))
	categoriesCmd.AddCommand(newCategoriesDeleteCommand(ctx))
	return categoriesCmd
}

// categoryName title-cases names typed on the command line so they match
// the seeded "Academic"/"Behavioral" style.
func categoryName(args []string) string {
	name := strings.TrimSpace(strings.Join(args, " "))
	return cases.Title(language.English, cases.NoLower).String(name)
}

func newCategoriesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with ticket counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				if jsonOutput {
					return writeJSON(cmd, doc.Categories)
				}
				counts := desk.CountByCategory(doc)
				rows := make([][]string, 0, len(doc.Categories))
				for _, category := range doc.Categories {
					marker := ""
					if category.ID == desk.FallbackCategoryID {
						marker = "fallback"
					}
					rows = append(rows, []string{category.ID, category.Name, strconv.Itoa(counts[category.ID]), marker})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
					Headers: []string{"ID", "Name", "Tickets", ""},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCategoriesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := categoryName(args)
			if name == "" {
				return fmt.Errorf("category name is required")
			}
			return ctx.withContainer(cmd, func(c *client.Container) error {
				if existing, err := resolveCategory(c.State(), name); err == nil {
					return fmt.Errorf("category %q already exists (%s)", existing.Name, existing.ID)
				}
				id := c.AddCategory(name)
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %s (%s)\n", name, id)
				return nil
			})
		},
	}
}

func newCategoriesRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <category> <new name>",
		Short: "Rename a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := categoryName(args[1:])
			return ctx.withContainer(cmd, func(c *client.Container) error {
				category, err := resolveCategory(c.State(), args[0])
				if err != nil {
					return err
				}
				c.UpdateCategory(category.ID, name)
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", category.Name, name)
				return nil
			})
		},
	}
}

func newCategoriesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete a category; its tickets move to the fallback category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				category, err := resolveCategory(doc, args[0])
				if err != nil {
					return err
				}
				moved := len(desk.TicketsByCategory(doc, category.ID))
				c.DeleteCategory(category.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s; reassigned %d ticket(s)\n", category.Name, moved)
				return nil
			})
		},
	}
}
