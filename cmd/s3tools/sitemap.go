package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/tools"
	"github.com/ashwch/s3tools/internal/tools/sitemap"
)

type sitemapOutput struct {
	OK bool `json:"ok"`
	sitemap.Result
}

func newSitemapCommand(app *App) *cobra.Command {
	var (
		inputDir  string
		outputDir string
		baseName  string
		store     string
		zip       bool
		prefix1   string
		prefix2   string
	)
	cmd := &cobra.Command{
		Use:   "sitemap [files...]",
		Short: "Build sitemap files from URL batch files",
		Long: `Build sitemap files from URL batch files.

Without files or --input-dir the folder written by the last "asin process"
run is used, as long as it still exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := app.sitemapInputs(args, inputDir)
			if err != nil {
				return app.fail(i18n.ErrorSitemap, err)
			}
			if !app.opts.JSON {
				urls := 0
				for _, file := range files {
					urls += tools.CountURLs(file)
				}
				fmt.Fprintln(app.stdout, app.catalog.T(i18n.SitemapInputCount, len(files), urls))
			}

			name, err := app.pickStore(store)
			if err != nil {
				return app.fail(i18n.ErrorSitemap, err)
			}
			req := sitemap.Request{
				InputFiles: files,
				OutputDir:  app.outputDir(outputDir),
				BaseName:   baseName,
				Store:      name,
				ZipOutput:  app.cfg.Defaults.Zip,
				Prefixes:   app.prefixes(cmd, prefix1, prefix2),
			}
			if cmd.Flags().Changed("zip") {
				req.ZipOutput = zip
			}

			result, err := app.sitemapClient().Process(cmd.Context(), req)
			if err != nil {
				return app.fail(i18n.ErrorSitemap, err)
			}
			app.state.SetPrefixes(req.Prefixes)

			lines := []string{app.catalog.T(i18n.ResultDone)}
			if result.ZipPath != "" {
				lines = append(lines, app.catalog.T(i18n.ResultZip, result.ZipPath))
			} else if result.OutputFolder != "" {
				lines = append(lines, app.catalog.T(i18n.ResultFolder, result.OutputFolder))
			}
			lines = append(lines, app.catalog.T(i18n.ResultFiles, len(result.OutputFiles)))
			app.emit(sitemapOutput{OK: true, Result: result}, lines...)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputDir, "input-dir", "i", "", "read every batch file in this folder")
	flags.StringVarP(&outputDir, "output", "o", "", "output folder (default from config, else Downloads)")
	flags.StringVar(&baseName, "base-name", "", "base name for the sitemap files")
	flags.StringVar(&store, "store", "", "store name; prompts when omitted on a terminal")
	flags.BoolVar(&zip, "zip", false, "pack the sitemaps into a ZIP file")
	flags.StringVar(&prefix1, "prefix1", "", "first name prefix: "+optionList(tools.Prefix1Options))
	flags.StringVar(&prefix2, "prefix2", "", "second name prefix: "+optionList(tools.Prefix2Options))
	return cmd
}

// sitemapInputs picks the explicit files, else the files of dir, else the
// files of the remembered ASIN output folder.
func (a *App) sitemapInputs(args []string, dir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if dir == "" {
		remembered, ok := a.state.LastAsinOutputDir()
		if !ok {
			return nil, errors.New(a.catalog.T(i18n.ErrorNoFiles))
		}
		a.logger.Debug("using last ASIN output folder", "dir", remembered)
		dir = remembered
	}
	files, err := tools.InputFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New(a.catalog.T(i18n.ErrorNoFiles))
	}
	return files, nil
}
