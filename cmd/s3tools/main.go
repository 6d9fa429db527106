// Command s3tools runs the ASIN batcher, sitemap and formato engines from the
// terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Set via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	root := newRootCommand(app)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return exitCode(app, root.ExecuteContext(ctx))
}

func exitCode(app *App, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.reported && exitErr.Err != nil {
			app.reportError(exitErr.Err)
		}
		return exitErr.Code
	}
	app.reportError(err)
	return exitFailure
}

func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "s3tools",
		Short: "Run the s3tools engines from the terminal",
		Long: `s3tools prepares ASIN batches, sitemaps and spreadsheet formats by
handing each request to a bundled engine process.

Engines are looked up in this order:
  1. The engine's environment variable or engines.<name>.path in config
  2. The copy packaged inside this binary
  3. Engines/<Engine>/ next to the executable, its build folders and up to
     three parent folders`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&app.opts.JSON, "json", false, "print machine-readable JSON")
	flags.StringVar(&app.opts.UI, "ui", "", "prompt backend: auto, bubbletea, huh, tview or plain")
	flags.StringVar(&app.opts.Locale, "locale", "", "message language (en, es)")
	flags.StringVar(&app.opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&app.opts.ConfigPath, "config", "", "config file (default is the OS config dir)")

	root.AddCommand(
		newAsinCommand(app),
		newSitemapCommand(app),
		newFormatoCommand(app),
		newEnginesCommand(app),
		newConfigCommand(app),
		newHistoryCommand(app),
	)
	return root
}

func (a *App) reportError(err error) {
	if a.opts.JSON {
		a.writeJSON(failure{Error: err.Error()})
		return
	}
	fmt.Fprintln(a.stderr, "error:", err)
}
