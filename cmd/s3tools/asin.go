package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/tools"
	"github.com/ashwch/s3tools/internal/tools/asinbatcher"
	"github.com/ashwch/s3tools/internal/ui"
	"github.com/ashwch/s3tools/internal/watch"
)

type previewOutput struct {
	OK bool `json:"ok"`
	asinbatcher.Summary
}

type asinResultOutput struct {
	OK bool `json:"ok"`
	asinbatcher.Result
}

func newAsinCommand(app *App) *cobra.Command {
	asinCmd := &cobra.Command{
		Use:   "asin",
		Short: "Count, deduplicate and batch ASIN lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	asinCmd.AddCommand(
		newAsinPreviewCommand(app),
		newAsinDuplicatesCommand(app),
		newAsinProcessCommand(app),
		newAsinWatchCommand(app),
	)
	return asinCmd
}

func newAsinPreviewCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file>",
		Short: "Show total, unique and duplicate ASIN counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.asinClient().Preview(cmd.Context(), args[0])
			if err != nil {
				return app.fail(i18n.ErrorReadFile, err)
			}
			app.emit(previewOutput{OK: true, Summary: summary}, ui.SummaryLines(app.catalog, summary)...)
			return nil
		},
	}
}

func newAsinDuplicatesCommand(app *App) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "duplicates <file>",
		Short: "Write the duplicated ASINs to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.asinClient().ExportDuplicates(cmd.Context(), args[0], app.outputDir(outputDir))
			if err != nil {
				return app.fail(i18n.ErrorExport, err)
			}
			line := app.catalog.T(i18n.DuplicatesNone)
			if result.CSVPath != "" {
				line = app.catalog.T(i18n.DuplicatesCreated, result.CSVPath)
			}
			app.emit(asinResultOutput{OK: true, Result: result}, line)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output folder (default from config, else Downloads)")
	return cmd
}

type processFlags struct {
	outputDir    string
	market       string
	store        string
	order        string
	batches      int
	zip          bool
	label        string
	prefix1      string
	prefix2      string
	clampBatches bool
}

func newAsinProcessCommand(app *App) *cobra.Command {
	var f processFlags
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Split the unique ASINs into URL batch files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := app.processRequest(cmd, args[0], f)
			if err != nil {
				return app.fail(i18n.ErrorProcess, err)
			}
			return app.runProcess(cmd.Context(), req, f.clampBatches)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.outputDir, "output", "o", "", "output folder (default from config, else Downloads)")
	flags.StringVar(&f.market, "market", "", "market: "+strings.Join(asinbatcher.Markets, ", "))
	flags.StringVar(&f.store, "store", "", "store name; prompts when omitted on a terminal")
	flags.StringVar(&f.order, "order", "", "order: "+strings.Join(asinbatcher.Orders, ", "))
	flags.IntVarP(&f.batches, "batches", "b", 0, "number of batch files")
	flags.BoolVar(&f.zip, "zip", false, "pack the batches into a ZIP file")
	flags.StringVar(&f.label, "label", "", "label added to every file name")
	flags.StringVar(&f.prefix1, "prefix1", "", "first name prefix: "+optionList(tools.Prefix1Options))
	flags.StringVar(&f.prefix2, "prefix2", "", "second name prefix: "+optionList(tools.Prefix2Options))
	flags.BoolVar(&f.clampBatches, "clamp-batches", false, "lower the batch count to the unique ASIN count without asking")
	return cmd
}

// processRequest merges flags over config defaults and remembered prefixes.
func (a *App) processRequest(cmd *cobra.Command, input string, f processFlags) (asinbatcher.ProcessRequest, error) {
	defaults := a.cfg.Defaults
	req := asinbatcher.ProcessRequest{
		InputPath: input,
		OutputDir: a.outputDir(f.outputDir),
		Market:    firstNonEmpty(f.market, defaults.Market),
		Order:     firstNonEmpty(f.order, defaults.Order),
		Batches:   defaults.Batches,
		ZipOutput: defaults.Zip,
		FileLabel: strings.TrimSpace(f.label),
		Prefixes:  a.prefixes(cmd, f.prefix1, f.prefix2),
	}
	if cmd.Flags().Changed("batches") {
		req.Batches = f.batches
	}
	if cmd.Flags().Changed("zip") {
		req.ZipOutput = f.zip
	}

	store, err := a.pickStore(f.store)
	if err != nil {
		return asinbatcher.ProcessRequest{}, err
	}
	req.Store = store
	return req, nil
}

func (a *App) runProcess(ctx context.Context, req asinbatcher.ProcessRequest, clamp bool) error {
	client := a.asinClient()
	result, err := client.Process(ctx, req)

	var overflow *asinbatcher.BatchOverflowError
	if errors.As(err, &overflow) && a.acceptUniqueBatches(overflow, clamp) {
		a.logger.Info("lowering batch count", "requested", overflow.Batches, "unique", overflow.Unique)
		req.Batches = overflow.Unique
		result, err = client.ProcessWithUnique(ctx, req, overflow.Unique)
	}
	if err != nil {
		return a.fail(i18n.ErrorProcess, err)
	}

	folder := firstNonEmpty(result.OutputFolder, req.OutputDir)
	a.state.SetLastAsinOutputDir(folder)
	a.state.SetPrefixes(req.Prefixes)

	lines := []string{a.catalog.T(i18n.ResultDone)}
	if result.ZipPath != "" {
		lines = append(lines, a.catalog.T(i18n.ResultZip, result.ZipPath))
	} else if result.OutputFolder != "" {
		lines = append(lines, a.catalog.T(i18n.ResultFolder, result.OutputFolder))
	}
	a.emit(asinResultOutput{OK: true, Result: result}, lines...)
	return nil
}

func (a *App) acceptUniqueBatches(overflow *asinbatcher.BatchOverflowError, clamp bool) bool {
	if overflow.Unique < 1 {
		return false
	}
	if clamp {
		return true
	}
	if !a.interactive() {
		return false
	}
	approved, used, err := ui.Confirm(a.backend(), ui.Confirmation{
		Title: a.catalog.T(i18n.BatchesUseUnique, overflow.Unique),
		Body:  a.catalog.T(i18n.BatchesOverflow, overflow.Unique, overflow.Batches),
	})
	if err != nil {
		a.logger.Warn("confirm prompt failed", "err", err)
	}
	return used && approved
}

// pickStore returns the --store value, else asks on a terminal, else the
// default store.
func (a *App) pickStore(flagValue string) (string, error) {
	if store := strings.TrimSpace(flagValue); store != "" {
		return store, nil
	}
	if !a.interactive() {
		return tools.DefaultStore, nil
	}
	value, used, err := ui.Choose(a.backend(), ui.Choice{
		Title:      a.catalog.T(i18n.StorePick),
		Options:    tools.Stores,
		Initial:    tools.DefaultStore,
		OtherLabel: a.catalog.T(i18n.StoreOther),
	})
	if err != nil {
		a.logger.Warn("store prompt failed", "err", err)
	}
	if !used {
		return tools.DefaultStore, nil
	}
	if value == "" {
		return "", errors.New(a.catalog.T(i18n.ErrorNoStore))
	}
	return value, nil
}

// prefixes uses the flags that were given and the remembered prefixes for the
// rest.
func (a *App) prefixes(cmd *cobra.Command, first, second string) tools.Prefixes {
	p := a.state.Prefixes()
	if cmd.Flags().Changed("prefix1") {
		p.First = first
	}
	if cmd.Flags().Changed("prefix2") {
		p.Second = second
	}
	return p
}

func newAsinWatchCommand(app *App) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-run the preview every time the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWatch(cmd.Context(), args[0], debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before a change triggers a preview (default 400ms)")
	return cmd
}

func (a *App) runWatch(parent context.Context, path string, debounce time.Duration) error {
	if err := tools.RequireFile(path); err != nil {
		return a.fail(i18n.ErrorReadFile, err)
	}
	w, err := watch.New(watch.Config{Path: path, Debounce: debounce, Logger: a.logger})
	if err != nil {
		return a.fail(i18n.ErrorReadFile, err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Run(ctx)
	}()

	client := a.asinClient()
	err = ui.RunLivePreview(ctx, a.backend(), ui.LivePreview{
		Path:    path,
		Changes: w.Changes(),
		Run: func(ctx context.Context) (asinbatcher.Summary, error) {
			return client.Preview(ctx, path)
		},
		Catalog: a.catalog,
		Out:     a.stdout,
	})
	cancel()
	if runErr := <-watchErr; runErr != nil && err == nil {
		err = runErr
	}
	if err != nil {
		return a.fail(i18n.ErrorReadFile, err)
	}
	return nil
}

func (a *App) outputDir(flagValue string) string {
	return firstNonEmpty(flagValue, a.cfg.Defaults.OutputDir, tools.DefaultOutputDir())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func optionList(options []string) string {
	quoted := make([]string, 0, len(options))
	for _, option := range options {
		quoted = append(quoted, fmt.Sprintf("%q", option))
	}
	return strings.Join(quoted, ", ")
}
