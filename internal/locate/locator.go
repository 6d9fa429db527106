package locate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ashwch/s3tools/internal/appdirs"
	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/runtime"
)

// Strategy is one way of finding an engine. It reports the resolved path, or
// ok=false to let the next strategy try.
type Strategy struct {
	Name string
	Find func(d engine.Descriptor, roots []string) (path string, ok bool)
}

type Locator struct {
	// BaseDir is the application base directory. Empty means appdirs.BaseDir.
	BaseDir     string
	Layout      Layout
	Convention  Convention
	Interpreter []string
	// Overrides maps engine names to configured paths. Environment variables
	// win over these.
	Overrides map[string]string
	Extractor *Extractor
	Logger    *log.Logger

	strategies []Strategy
}

type Option func(*Locator)

func WithBaseDir(dir string) Option {
	return func(l *Locator) { l.BaseDir = dir }
}

func WithLayout(layout Layout) Option {
	return func(l *Locator) { l.Layout = layout }
}

func WithInterpreter(interpreter []string) Option {
	return func(l *Locator) { l.Interpreter = interpreter }
}

func WithOverrides(overrides map[string]string) Option {
	return func(l *Locator) { l.Overrides = overrides }
}

// WithBundle enables extraction of packaged engines from bundle into
// cacheRoot. An empty cacheRoot means the per-user cache dir.
func WithBundle(bundle fs.FS, cacheRoot string) Option {
	return func(l *Locator) {
		if bundle == nil {
			l.Extractor = nil
			return
		}
		l.Extractor = &Extractor{Bundle: bundle, CacheRoot: cacheRoot}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Locator) { l.Logger = logger }
}

// WithStrategies replaces the default override, embedded, local order.
func WithStrategies(strategies ...Strategy) Option {
	return func(l *Locator) { l.strategies = strategies }
}

func New(opts ...Option) *Locator {
	l := &Locator{
		Layout:     DefaultLayout(),
		Convention: PlatformConvention(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.Logger = logging.Or(l.Logger)
	if l.Extractor != nil && l.Extractor.Logger == nil {
		l.Extractor.Logger = l.Logger
	}
	if len(l.Interpreter) == 0 {
		l.Interpreter = []string{runtime.DefaultInterpreter()}
	}
	if l.strategies == nil {
		l.strategies = []Strategy{l.OverrideStrategy(), l.EmbeddedStrategy(), l.LocalStrategy()}
	}
	return l
}

// Roots returns the application base directory and the search roots derived
// from it. Both are recomputed on every call.
func (l *Locator) Roots() (string, []string, error) {
	base := strings.TrimSpace(l.BaseDir)
	if base == "" {
		var err error
		if base, err = appdirs.BaseDir(); err != nil {
			return "", nil, err
		}
	}
	return base, SearchRoots(base, l.Layout), nil
}

// Resolve implements engine.Resolver.
func (l *Locator) Resolve(d engine.Descriptor) (runtime.LaunchCommand, error) {
	base, roots, err := l.Roots()
	if err != nil {
		return runtime.LaunchCommand{}, &engine.Error{
			Kind:    engine.KindNotFound,
			Engine:  d.Name,
			Message: fmt.Sprintf("%s engine not found: %v", d.Label(), err),
			Err:     err,
		}
	}

	for _, strategy := range l.strategies {
		path, ok := strategy.Find(d, roots)
		if !ok {
			l.Logger.Debug("engine strategy missed", "engine", d.Name, "strategy", strategy.Name)
			continue
		}
		cmd := l.command(path)
		l.Logger.Debug("engine resolved", "engine", d.Name, "strategy", strategy.Name, "command", cmd.String())
		return cmd, nil
	}

	return runtime.LaunchCommand{}, &engine.Error{
		Kind:    engine.KindNotFound,
		Engine:  d.Name,
		Message: notFoundMessage(d, base, roots),
	}
}

// OverrideStrategy reads the descriptor's environment variable, then the
// configured override path.
func (l *Locator) OverrideStrategy() Strategy {
	return Strategy{
		Name: "override",
		Find: func(d engine.Descriptor, roots []string) (string, bool) {
			if d.EnvVar != "" {
				if hint := strings.TrimSpace(os.Getenv(d.EnvVar)); hint != "" {
					if path, ok := findFirst(Candidates(hint, l.Convention), roots); ok {
						return path, true
					}
					l.Logger.Warn("engine override does not exist", "engine", d.Name, "env", d.EnvVar, "path", hint)
				}
			}
			hint := strings.TrimSpace(l.Overrides[d.Name])
			if hint == "" {
				return "", false
			}
			path, ok := findFirst(Candidates(hint, l.Convention), roots)
			if !ok {
				l.Logger.Warn("configured engine path does not exist", "engine", d.Name, "path", hint)
			}
			return path, ok
		},
	}
}

func (l *Locator) EmbeddedStrategy() Strategy {
	return Strategy{
		Name: "embedded",
		Find: func(d engine.Descriptor, _ []string) (string, bool) {
			path, ok, err := l.Extractor.Extract(d)
			if err != nil {
				l.Logger.Warn("packaged engine extraction failed", "engine", d.Name, "err", err)
				return "", false
			}
			return path, ok && isRegularFile(path)
		},
	}
}

// LocalStrategy probes the descriptor's install folder under every root.
func (l *Locator) LocalStrategy() Strategy {
	return Strategy{
		Name: "local",
		Find: func(d engine.Descriptor, roots []string) (string, bool) {
			candidates := []string{d.BinaryPath()}
			if strings.TrimSpace(d.Script) != "" {
				for _, c := range Candidates(d.ScriptPath(), l.Convention) {
					if c != candidates[0] {
						candidates = append(candidates, c)
					}
				}
			}
			return findFirst(candidates, roots)
		},
	}
}

func (l *Locator) command(path string) runtime.LaunchCommand {
	if isScript(path, l.Convention) {
		return runtime.ScriptCommand(l.Interpreter, path)
	}
	return runtime.DirectCommand(path)
}

// findFirst returns the first candidate that exists as a regular file.
// Absolute candidates are checked directly; relative ones against the working
// directory and then each root.
func findFirst(candidates, roots []string) (string, bool) {
	for _, candidate := range candidates {
		if path, ok := existing(candidate, roots); ok {
			return path, true
		}
	}
	return "", false
}

func existing(candidate string, roots []string) (string, bool) {
	if filepath.IsAbs(candidate) {
		if isRegularFile(candidate) {
			return filepath.Clean(candidate), true
		}
		return "", false
	}
	if isRegularFile(candidate) {
		if abs, err := filepath.Abs(candidate); err == nil {
			return abs, true
		}
	}
	for _, root := range roots {
		joined := filepath.Join(root, candidate)
		if isRegularFile(joined) {
			return joined, true
		}
	}
	return "", false
}

func notFoundMessage(d engine.Descriptor, base string, roots []string) string {
	var b strings.Builder
	expected := d.BinaryPath()
	if strings.TrimSpace(d.Script) != "" {
		expected += " or " + d.ScriptPath()
	}
	fmt.Fprintf(&b, "%s engine not found. Expected: %s\n", d.Label(), expected)
	b.WriteString("Searched:\n")
	if len(roots) == 0 {
		fmt.Fprintf(&b, " - %s (missing)\n", base)
	}
	for _, root := range roots {
		fmt.Fprintf(&b, " - %s\n", root)
	}
	if d.EnvVar != "" {
		fmt.Fprintf(&b, "Build the engine, package it, or set %s.", d.EnvVar)
	} else {
		b.WriteString("Build or package the engine.")
	}
	return b.String()
}
