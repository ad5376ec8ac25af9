package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
)

const dateLayout = "2006-01-02"

func newTicketsCommand(ctx *commandContext) *cobra.Command {
	ticketsCmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket"},
		Short:   "List and edit tickets",
	}
	ticketsCmd.AddCommand(newTicketsListCommand(ctx))
	ticketsCmd.AddCommand(newTicketsShowCommand(ctx))
	ticketsCmd.AddCommand(newTicketsAddCommand(ctx))
	ticketsCmd.AddCommand(newTicketsEditCommand(ctx))
	ticketsCmd.AddCommand(newTicketsStatusCommand(ctx))
	ticketsCmd.AddCommand(newTicketsDeleteCommand(ctx))
	return ticketsCmd
}

func newTicketsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag, categoryFlag, studentFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets, newest date first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				filter := desk.TicketFilter{}
				if statusFlag != "" {
					status, err := parseStatus(statusFlag)
					if err != nil {
						return err
					}
					filter.Status = status
				}
				if categoryFlag != "" {
					category, err := resolveCategory(doc, categoryFlag)
					if err != nil {
						return err
					}
					filter.CategoryID = category.ID
				}
				if studentFlag != "" {
					student, err := resolveStudent(doc, studentFlag)
					if err != nil {
						return err
					}
					filter.StudentID = student.ID
				}
				tickets := desk.FilterTickets(doc, filter)
				if jsonOutput {
					if tickets == nil {
						tickets = []desk.Ticket{}
					}
					return writeJSON(cmd, tickets)
				}
				stdout := cmd.OutOrStdout()
				if len(tickets) == 0 {
					fmt.Fprintln(stdout, "No tickets")
					return nil
				}
				out := newPrinter(stdout)
				rows := make([][]string, 0, len(tickets))
				for _, ticket := range tickets {
					rows = append(rows, []string{
						shortID(ticket.ID),
						ticket.Date,
						out.status(ticket.Status),
						categoryLabel(doc, ticket.Category),
						strings.Join(desk.StudentNames(doc, ticket.StudentIDs), ", "),
						fmt.Sprintf("%d", len(ticket.Notes)),
						truncate(ticket.Details, 48),
					})
				}
				fmt.Fprintln(stdout, renderTable(tableSpec{
					Headers: []string{"ID", "Date", "Status", "Category", "Students", "Notes", "Details"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only tickets with this status")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Only tickets in this category (id or name)")
	cmd.Flags().StringVar(&studentFlag, "student", "", "Only tickets for this student (id or name)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTicketsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <ticket>",
		Short: "Show one ticket with its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				ticket, err := resolveTicket(doc, args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, ticket)
				}
				stdout := cmd.OutOrStdout()
				out := newPrinter(stdout)
				out.section("Ticket " + shortID(ticket.ID))
				fmt.Fprintf(stdout, "Date:     %s\n", ticket.Date)
				fmt.Fprintf(stdout, "Status:   %s\n", out.status(ticket.Status))
				fmt.Fprintf(stdout, "Category: %s\n", categoryLabel(doc, ticket.Category))
				fmt.Fprintf(stdout, "Students: %s\n", strings.Join(desk.StudentNames(doc, ticket.StudentIDs), ", "))
				fmt.Fprintf(stdout, "Updated:  %s\n", formatStamp(ticket.UpdatedAt))
				if details := strings.TrimSpace(ticket.Details); details != "" {
					fmt.Fprintf(stdout, "\n%s\n", details)
				}
				if len(ticket.Notes) == 0 {
					return nil
				}
				fmt.Fprintln(stdout)
				rows := make([][]string, 0, len(ticket.Notes))
				for _, note := range ticket.Notes {
					rows = append(rows, []string{
						shortID(note.ID),
						formatStamp(note.Timestamp),
						string(note.Source),
						truncate(note.Content, 56),
					})
				}
				fmt.Fprintln(stdout, renderTable(tableSpec{
					Title:   "Notes",
					Headers: []string{"ID", "When", "Source", "Content"},
					Rows:    rows,
				}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTicketsAddCommand(ctx *commandContext) *cobra.Command {
	var dateFlag, categoryFlag, statusFlag, detailsFlag string
	var studentFlags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a ticket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				input := client.TicketInput{Details: strings.TrimSpace(detailsFlag)}

				date, err := normalizeDate(dateFlag)
				if err != nil {
					return err
				}
				input.Date = date

				if categoryFlag == "" && len(doc.Categories) > 0 {
					input.Category = doc.Categories[0].ID
				} else {
					category, err := resolveCategory(doc, categoryFlag)
					if err != nil {
						return err
					}
					input.Category = category.ID
				}
				if statusFlag != "" {
					if input.Status, err = parseStatus(statusFlag); err != nil {
						return err
					}
				}
				if input.StudentIDs, err = resolveStudents(doc, studentFlags); err != nil {
					return err
				}

				id := c.AddTicket(input)
				fmt.Fprintf(cmd.OutOrStdout(), "Created ticket %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Ticket date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Category id or name (default first category)")
	cmd.Flags().StringVar(&statusFlag, "status", "", "Initial status (default new)")
	cmd.Flags().StringVar(&detailsFlag, "details", "", "Ticket details")
	cmd.Flags().StringArrayVar(&studentFlags, "student", nil, "Student id or name (repeatable)")
	return cmd
}

func newTicketsEditCommand(ctx *commandContext) *cobra.Command {
	var dateFlag, categoryFlag, detailsFlag string
	var studentFlags []string

	cmd := &cobra.Command{
		Use:   "edit <ticket>",
		Short: "Change a ticket's date, category, students or details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				ticket, err := resolveTicket(doc, args[0])
				if err != nil {
					return err
				}
				var patch client.TicketPatch
				flags := cmd.Flags()
				if flags.Changed("date") {
					date, err := normalizeDate(dateFlag)
					if err != nil {
						return err
					}
					patch.Date = &date
				}
				if flags.Changed("category") {
					category, err := resolveCategory(doc, categoryFlag)
					if err != nil {
						return err
					}
					patch.Category = &category.ID
				}
				if flags.Changed("student") {
					ids, err := resolveStudents(doc, studentFlags)
					if err != nil {
						return err
					}
					patch.StudentIDs = &ids
				}
				if flags.Changed("details") {
					details := strings.TrimSpace(detailsFlag)
					patch.Details = &details
				}
				if patch == (client.TicketPatch{}) {
					return fmt.Errorf("nothing to change; pass --date, --category, --student or --details")
				}
				c.UpdateTicket(ticket.ID, patch)
				fmt.Fprintf(cmd.OutOrStdout(), "Updated ticket %s\n", shortID(ticket.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Ticket date as YYYY-MM-DD")
	cmd.Flags().StringVar(&categoryFlag, "category", "", "Category id or name")
	cmd.Flags().StringVar(&detailsFlag, "details", "", "Ticket details")
	cmd.Flags().StringArrayVar(&studentFlags, "student", nil, "Student id or name (repeatable; replaces the list)")
	return cmd
}

func newTicketsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <ticket> <new|in-progress|resolved>",
		Short: "Move a ticket to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			return ctx.withContainer(cmd, func(c *client.Container) error {
				ticket, err := resolveTicket(c.State(), args[0])
				if err != nil {
					return err
				}
				c.UpdateTicket(ticket.ID, client.TicketPatch{Status: &status})
				fmt.Fprintf(cmd.OutOrStdout(), "Ticket %s is now %s\n", shortID(ticket.ID), status)
				return nil
			})
		},
	}
}

func newTicketsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ticket>",
		Short: "Delete a ticket and its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				ticket, err := resolveTicket(c.State(), args[0])
				if err != nil {
					return err
				}
				c.DeleteTicket(ticket.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted ticket %s\n", shortID(ticket.ID))
				return nil
			})
		},
	}
}

func normalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now().Format(dateLayout), nil
	}
	parsed, ok := desk.ParseDate(value)
	if !ok {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return parsed.Format(dateLayout), nil
}

func formatStamp(ts desk.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
