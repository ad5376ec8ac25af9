package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/daemonctl"
	"ticketdesk/internal/daemonrun"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server, environment and document status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			out := newPrinter(stdout)
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}

			health := daemonctl.Probe(runCtx, ctx.serverURL(), nil)
			out.section("Server")
			level := levelError
			if health.Running {
				level = levelOK
			}
			out.check("Server", level, health.URL+" ("+health.Detail+")")
			if pid, ok := daemonrun.ReadPID(cfg); ok {
				out.check("PID file", levelInfo, strconv.Itoa(pid))
			}
			if len(health.Documents) > 0 {
				out.check("Documents", levelInfo, strings.Join(health.Documents, ", "))
			}
			fmt.Fprintln(stdout)

			out.section("Environment")
			for _, result := range preflight.RunAll(runCtx, cfg) {
				out.check(result.Name, preflightLevel(result), result.Detail)
			}

			if !health.Running {
				return nil
			}
			fmt.Fprintln(stdout)
			out.section("Documents")
			var rows [][]string
			for _, layout := range desk.Layouts() {
				doc, err := client.NewHTTPBackend(health.URL, layout).Fetch(runCtx)
				if err != nil {
					rows = append(rows, []string{layout.Name, "-", "-", "-", err.Error()})
					continue
				}
				open := len(doc.Tickets) - desk.CountByStatus(doc)[desk.StatusResolved]
				rows = append(rows, []string{
					layout.Name,
					strconv.Itoa(len(doc.Students)),
					strconv.Itoa(len(doc.Tickets)),
					strconv.Itoa(open),
					"",
				})
			}
			fmt.Fprintln(stdout, renderTable(tableSpec{
				Headers: []string{"Document", "Students", "Tickets", "Open", "Error"},
				Rows:    rows,
				Aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			}))
			return nil
		},
	}
}

func preflightLevel(result preflight.Result) checkLevel {
	switch {
	case result.Passed:
		return levelOK
	case result.Required:
		return levelError
	default:
		return levelWarn
	}
}
