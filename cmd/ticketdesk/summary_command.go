package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count tickets by category and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				byCategory := desk.CountByCategory(doc)
				byStatus := desk.CountByStatus(doc)
				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"categories": byCategory,
						"statuses":   byStatus,
						"students":   len(doc.Students),
						"tickets":    len(doc.Tickets),
					})
				}

				var categoryRows [][]string
				seen := make(map[string]bool, len(doc.Categories))
				for _, category := range doc.Categories {
					seen[category.ID] = true
					categoryRows = append(categoryRows, []string{category.Name, strconv.Itoa(byCategory[category.ID])})
				}
				for _, id := range slices.Sorted(maps.Keys(byCategory)) {
					if !seen[id] {
						categoryRows = append(categoryRows, []string{id + " (missing)", strconv.Itoa(byCategory[id])})
					}
				}
				statusRows := make([][]string, 0, len(desk.Statuses()))
				for _, status := range desk.Statuses() {
					statusRows = append(statusRows, []string{string(status), strconv.Itoa(byStatus[status])})
				}

				stdout := cmd.OutOrStdout()
				aligns := []columnAlignment{alignLeft, alignRight}
				total := []string{"Total", strconv.Itoa(len(doc.Tickets))}
				fmt.Fprintln(stdout, renderTable(tableSpec{Title: "By category", Headers: []string{"Category", "Tickets"}, Rows: categoryRows, Aligns: aligns, Footer: total}))
				fmt.Fprintln(stdout, renderTable(tableSpec{Title: "By status", Headers: []string{"Status", "Tickets"}, Rows: statusRows, Aligns: aligns, Footer: total}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
