package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/i18n"
)

const defaultHistoryLimit = 20

type historyOutput struct {
	OK      bool            `json:"ok"`
	Records []engine.Record `json:"records"`
}

func newHistoryCommand(app *App) *cobra.Command {
	var (
		limit      int
		engineName string
		details    bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent engine calls, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runHistory(limit, engineName, details)
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of calls to show (0 for all)")
	flags.StringVarP(&engineName, "engine", "e", "", "only show calls to this engine")
	flags.BoolVarP(&details, "details", "d", false, "include commands and diagnostics")
	return cmd
}

func (a *App) runHistory(limit int, engineName string, details bool) error {
	var records []engine.Record
	if a.journal != nil {
		var err error
		if records, err = a.journal.Recent(limit, engineName); err != nil {
			return a.fail(i18n.ErrorUnknown, err)
		}
	}
	if records == nil {
		records = []engine.Record{}
	}

	if a.opts.JSON {
		a.writeJSON(historyOutput{OK: true, Records: records})
		return nil
	}
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, a.catalog.T(i18n.HistoryEmpty))
		return nil
	}
	for _, rec := range records {
		fmt.Fprintln(a.stdout, historyLine(rec))
		if !details {
			continue
		}
		if rec.Command != "" {
			fmt.Fprintf(a.stdout, "    $ %s\n", rec.Command)
		}
		for _, line := range strings.Split(strings.TrimSpace(rec.Diagnostic), "\n") {
			if line != "" {
				fmt.Fprintf(a.stdout, "    %s\n", mutedStyle.Render(line))
			}
		}
	}
	return nil
}

func historyLine(rec engine.Record) string {
	status := foundStyle.Render("ok")
	if !rec.OK {
		status = missingStyle.Render(string(rec.Kind))
		if rec.Kind == "" {
			status = missingStyle.Render("failed")
		}
	}
	line := fmt.Sprintf("%-14s %-13s %-18s %-8s %s",
		humanize.Time(rec.At),
		rec.Engine,
		rec.Action,
		rec.Duration.Round(time.Millisecond),
		status,
	)
	if !rec.OK && rec.Error != "" {
		line += "  " + firstLine(rec.Error)
	}
	return line
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
