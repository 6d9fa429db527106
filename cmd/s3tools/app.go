package main

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ashwch/s3tools/internal/appstate"
	"github.com/ashwch/s3tools/internal/bundle"
	"github.com/ashwch/s3tools/internal/config"
	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/history"
	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/locate"
	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/runtime"
	"github.com/ashwch/s3tools/internal/tools/asinbatcher"
	"github.com/ashwch/s3tools/internal/tools/formato"
	"github.com/ashwch/s3tools/internal/tools/sitemap"
	"github.com/ashwch/s3tools/internal/ui"
)

type globalOptions struct {
	JSON       bool
	UI         string
	Locale     string
	LogLevel   string
	ConfigPath string
}

// App carries the services every command shares. setup fills it from the
// loaded configuration before any subcommand runs.
type App struct {
	opts   globalOptions
	stdout io.Writer
	stderr io.Writer

	// Nil fields get production defaults in setup.
	transport engine.Transport
	bundle    fs.FS

	cfg         config.Config
	cfgPath     string
	logger      *log.Logger
	catalog     i18n.Catalog
	engines     *engine.Catalog
	interpreter []string
	locator     *locate.Locator
	client      *engine.Client
	journal     *history.Journal
	state       *appstate.Store
}

func newApp(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

func engineCatalog() (*engine.Catalog, error) {
	return engine.NewCatalog(asinbatcher.Descriptor, sitemap.Descriptor, formato.Descriptor)
}

func (a *App) setup(_ *cobra.Command) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	level := a.opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = a.cfg.ResolvedLogLevel()
	}
	a.logger = logging.New(a.stderr, level)

	locale := a.opts.Locale
	if strings.TrimSpace(locale) == "" {
		locale = a.cfg.Locale
	}
	a.catalog = i18n.LoadCatalog(locale)

	engines, err := engineCatalog()
	if err != nil {
		return err
	}
	a.engines = engines

	interpreter, err := runtime.Interpreter(a.cfg.Engine.Python)
	if err != nil {
		return fmt.Errorf("invalid engine.python: %w", err)
	}
	a.interpreter = interpreter

	packaged := a.bundle
	if packaged == nil {
		packaged = bundle.FS()
	}
	a.locator = locate.New(
		locate.WithLayout(a.cfg.Layout()),
		locate.WithInterpreter(interpreter),
		locate.WithOverrides(a.cfg.EnginePaths()),
		locate.WithBundle(packaged, a.cfg.Engine.CacheRoot),
		locate.WithLogger(a.logger),
	)

	transport := a.transport
	if transport == nil {
		base, _, err := a.locator.Roots()
		if err != nil {
			return err
		}
		transport = engine.ProcessTransport{Dir: base, Logger: a.logger}
	}

	opts := []engine.Option{
		engine.WithLogger(a.logger),
		engine.WithTimeout(a.cfg.TimeoutDuration()),
	}
	if journal, err := history.Open(a.logger); err != nil {
		a.logger.Warn("invocation history disabled", "err", err)
	} else {
		a.journal = journal
		opts = append(opts, engine.WithRecorder(journal))
	}
	a.client = engine.NewClient(a.locator, transport, opts...)

	state, err := appstate.Open(a.logger)
	if err != nil {
		a.logger.Warn("application state disabled", "err", err)
	}
	a.state = state
	return nil
}

func (a *App) loadConfig() error {
	if path := strings.TrimSpace(a.opts.ConfigPath); path != "" {
		cfg, err := config.LoadOrCreateAt(path)
		if err != nil {
			return err
		}
		a.cfg, a.cfgPath = cfg, path
		return nil
	}
	cfg, path, err := config.LoadOrCreate()
	if err != nil {
		return err
	}
	a.cfg, a.cfgPath = cfg, path
	return nil
}

// backend is the UI backend prompts run on after flag, config and terminal
// checks.
func (a *App) backend() string {
	backend := a.opts.UI
	if strings.TrimSpace(backend) == "" {
		backend = a.cfg.UI.Backend
	}
	return ui.Effective(backend, a.opts.JSON)
}

func (a *App) interactive() bool {
	return ui.IsInteractiveBackend(a.backend())
}

func (a *App) asinClient() *asinbatcher.Client { return asinbatcher.New(a.client) }

func (a *App) sitemapClient() *sitemap.Client { return sitemap.New(a.client) }

func (a *App) formatoClient() *formato.Client { return formato.New(a.client) }
