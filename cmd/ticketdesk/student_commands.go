package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
)

func newStudentsCommand(ctx *commandContext) *cobra.Command {
	studentsCmd := &cobra.Command{
		Use:     "students",
		Aliases: []string{"student"},
		Short:   "Manage students",
	}
	studentsCmd.AddCommand(newStudentsListCommand(ctx))
	studentsCmd.AddCommand(newStudentsAddCommand(ctx))
	studentsCmd.AddCommand(newStudentsRenameCommand(ctx))
	studentsCmd.AddCommand(newStudentsDeleteCommand(ctx))
	return studentsCmd
}

func newStudentsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				students := desk.SortedStudents(doc)
				if jsonOutput {
					if students == nil {
						students = []desk.Student{}
					}
					return writeJSON(cmd, students)
				}
				stdout := cmd.OutOrStdout()
				if len(students) == 0 {
					fmt.Fprintln(stdout, "No students")
					return nil
				}
				rows := make([][]string, 0, len(students))
				for _, student := range students {
					tickets := desk.TicketsByStudent(doc, student.ID)
					open := 0
					for _, ticket := range tickets {
						if ticket.Status != desk.StatusResolved {
							open++
						}
					}
					rows = append(rows, []string{
						shortID(student.ID),
						student.Name,
						strconv.Itoa(len(tickets)),
						strconv.Itoa(open),
					})
				}
				fmt.Fprintln(stdout, renderTable(tableSpec{
					Headers: []string{"ID", "Name", "Tickets", "Open"},
					Rows:    rows,
					Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStudentsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a student",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("student name is required")
			}
			return ctx.withContainer(cmd, func(c *client.Container) error {
				id := c.AddStudent(name)
				fmt.Fprintf(cmd.OutOrStdout(), "Added student %s (%s)\n", name, id)
				return nil
			})
		},
	}
}

func newStudentsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <student> <new name>",
		Short: "Rename a student",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if name == "" {
				return fmt.Errorf("student name is required")
			}
			return ctx.withContainer(cmd, func(c *client.Container) error {
				student, err := resolveStudent(c.State(), args[0])
				if err != nil {
					return err
				}
				c.UpdateStudent(student.ID, name)
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", student.Name, name)
				return nil
			})
		},
	}
}

func newStudentsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <student>",
		Short: "Delete a student; their tickets are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				student, err := resolveStudent(doc, args[0])
				if err != nil {
					return err
				}
				affected := len(desk.TicketsByStudent(doc, student.ID))
				c.DeleteStudent(student.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %s; detached from %d ticket(s)\n", student.Name, affected)
				return nil
			})
		},
	}
}
