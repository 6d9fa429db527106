package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/runtime"
)

const resolveConcurrency = 4

var (
	foundStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

type engineReport struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Found       bool   `json:"found"`
	Command     string `json:"command,omitempty"`
	Error       string `json:"error,omitempty"`
	Interpreter string `json:"interpreter_error,omitempty"`
}

type enginesOutput struct {
	OK      bool           `json:"ok"`
	Engines []engineReport `json:"engines"`
	BaseDir string         `json:"base_dir,omitempty"`
	Roots   []string       `json:"roots,omitempty"`
}

func newEnginesCommand(app *App) *cobra.Command {
	var showRoots bool
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "Check that every engine can be found and launched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runEngines(showRoots)
		},
	}
	cmd.Flags().BoolVar(&showRoots, "roots", false, "also print the folders searched for local engines")
	return cmd
}

func (a *App) runEngines(showRoots bool) error {
	reports := a.resolveAll()

	out := enginesOutput{OK: true, Engines: reports}
	for _, r := range reports {
		if !r.Found {
			out.OK = false
		}
	}
	if showRoots {
		base, roots, err := a.locator.Roots()
		if err != nil {
			return a.fail(i18n.ErrorUnknown, err)
		}
		out.BaseDir, out.Roots = base, roots
	}

	if a.opts.JSON {
		a.writeJSON(out)
	} else {
		a.printEngines(out, showRoots)
	}
	if !out.OK {
		return &ExitError{Code: exitMissing, reported: true}
	}
	return nil
}

// resolveAll resolves every catalogued engine concurrently. Reports keep the
// catalog's name order.
func (a *App) resolveAll() []engineReport {
	descriptors := a.engines.All()
	reports := make([]engineReport, len(descriptors))

	var g errgroup.Group
	g.SetLimit(resolveConcurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			reports[i] = a.resolveOne(d)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (a *App) resolveOne(d engine.Descriptor) engineReport {
	report := engineReport{Name: d.Name, DisplayName: d.Label()}
	cmd, err := a.locator.Resolve(d)
	if err != nil {
		report.Error = strings.TrimSpace(err.Error())
		a.logger.Debug("engine missing", "engine", d.Name, "kind", engine.KindOf(err))
		return report
	}
	report.Found = true
	report.Command = cmd.String()
	if len(a.interpreter) > 0 && cmd.Path == a.interpreter[0] {
		if err := runtime.InterpreterAvailable(a.interpreter); err != nil {
			report.Interpreter = a.catalog.T(i18n.InterpreterMissing, a.interpreter[0])
		}
	}
	return report
}

func (a *App) printEngines(out enginesOutput, showRoots bool) {
	width := 0
	for _, r := range out.Engines {
		width = max(width, len(r.Name))
	}
	for _, r := range out.Engines {
		name := fmt.Sprintf("%-*s", width, r.Name)
		if !r.Found {
			fmt.Fprintf(a.stdout, "%s  %s\n", name, missingStyle.Render(a.catalog.T(i18n.EnginesMissing)))
			for _, line := range strings.Split(r.Error, "\n") {
				fmt.Fprintf(a.stdout, "    %s\n", mutedStyle.Render(line))
			}
			continue
		}
		fmt.Fprintf(a.stdout, "%s  %s  %s\n", name, foundStyle.Render(a.catalog.T(i18n.EnginesFound)), r.Command)
		if r.Interpreter != "" {
			fmt.Fprintf(a.stdout, "    %s\n", missingStyle.Render(r.Interpreter))
		}
	}
	if !showRoots {
		return
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, a.catalog.T(i18n.EnginesRoots))
	fmt.Fprintf(a.stdout, "  %s\n", out.BaseDir)
	for _, root := range out.Roots {
		if root == out.BaseDir {
			continue
		}
		fmt.Fprintf(a.stdout, "  %s\n", root)
	}
}
