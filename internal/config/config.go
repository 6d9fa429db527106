package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ashwch/s3tools/internal/appdirs"
	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/locate"
	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/runtime"
	"github.com/ashwch/s3tools/internal/tools/asinbatcher"
	"github.com/ashwch/s3tools/internal/tools/formato"
)

const maxAncestors = 10

type UIConfig struct {
	Backend string `toml:"backend" json:"backend"`
}

type LogConfig struct {
	Level string `toml:"level" json:"level"`
}

// EngineConfig controls how engines are located and run.
type EngineConfig struct {
	// Python is the interpreter for script engines, e.g. "python3" or "py -3".
	Python string `toml:"python" json:"python"`
	// Timeout is a Go duration; "0s" disables the deadline.
	Timeout   string   `toml:"timeout" json:"timeout"`
	Ancestors int      `toml:"ancestors" json:"ancestors"`
	BuildDirs []string `toml:"build_dirs" json:"build_dirs"`
	CacheRoot string   `toml:"cache_root,omitempty" json:"cache_root,omitempty"`
}

type EngineOverride struct {
	Path string `toml:"path,omitempty" json:"path,omitempty"`
}

// DefaultsConfig holds the preset values for tool options.
type DefaultsConfig struct {
	Market    string `toml:"market" json:"market"`
	Order     string `toml:"order" json:"order"`
	Batches   int    `toml:"batches" json:"batches"`
	Zip       bool   `toml:"zip" json:"zip"`
	OutputDir string `toml:"output_dir,omitempty" json:"output_dir,omitempty"`
	Template  string `toml:"template" json:"template"`
}

type Config struct {
	Version  int                       `toml:"version" json:"version"`
	Locale   string                    `toml:"locale" json:"locale"`
	UI       UIConfig                  `toml:"ui" json:"ui"`
	Log      LogConfig                 `toml:"log" json:"log"`
	Engine   EngineConfig              `toml:"engine" json:"engine"`
	Engines  map[string]EngineOverride `toml:"engines,omitempty" json:"engines,omitempty"`
	Defaults DefaultsConfig            `toml:"defaults" json:"defaults"`
}

func Default() Config {
	return Config{
		Version: 1,
		Locale:  "auto",
		UI: UIConfig{
			Backend: "bubbletea",
		},
		Log: LogConfig{Level: "warn"},
		Engine: EngineConfig{
			Python:    runtime.DefaultInterpreter(),
			Timeout:   "0s",
			Ancestors: locate.DefaultAncestors,
			BuildDirs: append([]string(nil), locate.DefaultBuildDirs...),
		},
		Engines: map[string]EngineOverride{},
		Defaults: DefaultsConfig{
			Market:   asinbatcher.DefaultMarket,
			Order:    asinbatcher.DefaultOrder,
			Batches:  asinbatcher.DefaultBatches,
			Zip:      false,
			Template: formato.TemplateAuto,
		},
	}
}

// LoadOrCreate loads the config from the OS config dir, writing defaults on
// first run.
func LoadOrCreate() (Config, string, error) {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return Config{}, "", err
	}
	if _, err := appdirs.EnsureConfigDir(); err != nil {
		return Config{}, "", err
	}
	cfg, err := LoadOrCreateAt(path)
	return cfg, path, err
}

// LoadOrCreateAt is LoadOrCreate for an explicit file path.
func LoadOrCreateAt(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("could not stat config path: %w", err)
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}

	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg Config) error {
	cfg.normalize()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, ".s3tools-config-*.toml")
	if err != nil {
		return fmt.Errorf("could not create temp config file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp config file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp config file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace config file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("could not secure config file permissions: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()
	if c.Version == 0 {
		c.Version = defaults.Version
	}
	c.Locale = normalizeLocaleSetting(c.Locale, defaults.Locale)
	c.UI.Backend = normalizeUIBackend(c.UI.Backend, defaults.UI.Backend)
	c.Log.Level = normalizeLogLevel(c.Log.Level, defaults.Log.Level)

	if strings.TrimSpace(c.Engine.Python) == "" {
		c.Engine.Python = defaults.Engine.Python
	}
	if _, err := parseTimeout(c.Engine.Timeout); err != nil {
		c.Engine.Timeout = defaults.Engine.Timeout
	}
	if c.Engine.Ancestors < 0 || c.Engine.Ancestors > maxAncestors {
		c.Engine.Ancestors = defaults.Engine.Ancestors
	}
	if c.Engine.BuildDirs == nil {
		c.Engine.BuildDirs = defaults.Engine.BuildDirs
	}
	if c.Engines == nil {
		c.Engines = map[string]EngineOverride{}
	}
	for name, override := range c.Engines {
		if strings.TrimSpace(override.Path) == "" {
			delete(c.Engines, name)
		}
	}

	if m := canonicalOption(asinbatcher.Markets, c.Defaults.Market); m != "" {
		c.Defaults.Market = m
	} else {
		c.Defaults.Market = defaults.Defaults.Market
	}
	if o := canonicalOption(asinbatcher.Orders, c.Defaults.Order); o != "" {
		c.Defaults.Order = o
	} else {
		c.Defaults.Order = defaults.Defaults.Order
	}
	if c.Defaults.Batches <= 0 {
		c.Defaults.Batches = defaults.Defaults.Batches
	}
	if t, err := formato.NormalizeTemplate(c.Defaults.Template); err == nil {
		c.Defaults.Template = t
	} else {
		c.Defaults.Template = defaults.Defaults.Template
	}
}

// TimeoutDuration is the parsed engine timeout. Zero means none.
func (c Config) TimeoutDuration() time.Duration {
	d, _ := parseTimeout(c.Engine.Timeout)
	return d
}

// Layout is the locator layout derived from the engine settings.
func (c Config) Layout() locate.Layout {
	return locate.Layout{
		BuildDirs: append([]string(nil), c.Engine.BuildDirs...),
		Ancestors: c.Engine.Ancestors,
	}
}

// EnginePaths maps engine names to their configured override paths.
func (c Config) EnginePaths() map[string]string {
	out := make(map[string]string, len(c.Engines))
	for name, override := range c.Engines {
		out[name] = override.Path
	}
	return out
}

func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	if strings.HasPrefix(key, "engines.") {
		if err := c.setEngineKey(key, value); err != nil {
			return err
		}
		c.normalize()
		return nil
	}

	switch key {
	case "locale":
		c.Locale = normalizeLocaleSetting(value, "")
		if c.Locale == "" {
			return fmt.Errorf("locale must be 'auto' or a locale like en, es, es-MX")
		}
	case "ui.backend":
		c.UI.Backend = normalizeUIBackend(value, "")
		if c.UI.Backend == "" {
			return fmt.Errorf("ui.backend must be one of auto|bubbletea|huh|tview|plain")
		}
	case "log.level":
		c.Log.Level = normalizeLogLevel(value, "")
		if c.Log.Level == "" {
			return fmt.Errorf("log.level must be one of debug|info|warn|error")
		}
	case "engine.python":
		if _, err := runtime.Interpreter(value); err != nil {
			return fmt.Errorf("engine.python: %w", err)
		}
		c.Engine.Python = value
	case "engine.timeout":
		if _, err := parseTimeout(value); err != nil {
			return fmt.Errorf("engine.timeout must be a duration like 90s or 5m (0 disables)")
		}
		c.Engine.Timeout = value
	case "engine.ancestors":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > maxAncestors {
			return fmt.Errorf("engine.ancestors must be a number between 0 and %d", maxAncestors)
		}
		c.Engine.Ancestors = n
	case "engine.build_dirs":
		c.Engine.BuildDirs = splitCommaList(value)
		if c.Engine.BuildDirs == nil {
			c.Engine.BuildDirs = []string{}
		}
	case "engine.cache_root":
		c.Engine.CacheRoot = value
	case "defaults.market":
		m := canonicalOption(asinbatcher.Markets, value)
		if m == "" {
			return fmt.Errorf("defaults.market must be one of %s", strings.Join(asinbatcher.Markets, "|"))
		}
		c.Defaults.Market = m
	case "defaults.order":
		o := canonicalOption(asinbatcher.Orders, value)
		if o == "" {
			return fmt.Errorf("defaults.order must be one of %s", strings.Join(asinbatcher.Orders, "|"))
		}
		c.Defaults.Order = o
	case "defaults.batches":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("defaults.batches must be a positive number")
		}
		c.Defaults.Batches = n
	case "defaults.zip":
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("defaults.zip must be boolean")
		}
		c.Defaults.Zip = b
	case "defaults.output_dir":
		c.Defaults.OutputDir = value
	case "defaults.template":
		t, err := formato.NormalizeTemplate(value)
		if err != nil {
			return fmt.Errorf("defaults.template must be one of %s", strings.Join(formato.Templates, "|"))
		}
		c.Defaults.Template = t
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	c.normalize()
	return nil
}

func (c *Config) setEngineKey(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[1] == "" {
		return fmt.Errorf("invalid engine key: %s", key)
	}
	if parts[2] != "path" {
		return fmt.Errorf("unknown engine field: %s", parts[2])
	}
	if c.Engines == nil {
		c.Engines = map[string]EngineOverride{}
	}
	if value == "" {
		delete(c.Engines, parts[1])
		return nil
	}
	c.Engines[parts[1]] = EngineOverride{Path: value}
	return nil
}

func (c Config) Get(key string) (string, error) {
	key = strings.TrimSpace(strings.ToLower(key))

	if strings.HasPrefix(key, "engines.") {
		parts := strings.Split(key, ".")
		if len(parts) != 3 || parts[2] != "path" {
			return "", fmt.Errorf("invalid engine key: %s", key)
		}
		return c.Engines[parts[1]].Path, nil
	}

	switch key {
	case "locale":
		return c.Locale, nil
	case "ui.backend":
		return c.UI.Backend, nil
	case "log.level":
		return c.Log.Level, nil
	case "engine.python":
		return c.Engine.Python, nil
	case "engine.timeout":
		return c.Engine.Timeout, nil
	case "engine.ancestors":
		return strconv.Itoa(c.Engine.Ancestors), nil
	case "engine.build_dirs":
		return strings.Join(c.Engine.BuildDirs, ","), nil
	case "engine.cache_root":
		return c.Engine.CacheRoot, nil
	case "defaults.market":
		return c.Defaults.Market, nil
	case "defaults.order":
		return c.Defaults.Order, nil
	case "defaults.batches":
		return strconv.Itoa(c.Defaults.Batches), nil
	case "defaults.zip":
		return strconv.FormatBool(c.Defaults.Zip), nil
	case "defaults.output_dir":
		return c.Defaults.OutputDir, nil
	case "defaults.template":
		return c.Defaults.Template, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Keys lists every settable key, with one engines.<name>.path entry per
// configured override.
func (c Config) Keys() []string {
	keys := []string{
		"locale",
		"ui.backend",
		"log.level",
		"engine.python",
		"engine.timeout",
		"engine.ancestors",
		"engine.build_dirs",
		"engine.cache_root",
		"defaults.market",
		"defaults.order",
		"defaults.batches",
		"defaults.zip",
		"defaults.output_dir",
		"defaults.template",
	}
	names := make([]string, 0, len(c.Engines))
	for name := range c.Engines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		keys = append(keys, "engines."+name+".path")
	}
	return keys
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool: %s", value)
	}
}

func parseTimeout(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout cannot be negative")
	}
	return d, nil
}

func splitCommaList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func canonicalOption(options []string, value string) string {
	for _, option := range options {
		if strings.EqualFold(option, strings.TrimSpace(value)) {
			return option
		}
	}
	return ""
}

func normalizeUIBackend(value string, fallback string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "auto", "bubbletea", "huh", "tview", "plain":
		return normalized
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}

func normalizeLogLevel(value string, fallback string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "debug", "info", "warn", "error":
		return normalized
	case "warning":
		return "warn"
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}

func normalizeLocaleSetting(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = strings.TrimSpace(fallback)
	}
	if strings.EqualFold(trimmed, "auto") {
		return "auto"
	}
	return i18n.NormalizeLocale(trimmed)
}

// ResolvedLogLevel applies the environment override to the configured level.
func (c Config) ResolvedLogLevel() string {
	return logging.ResolveLevel(c.Log.Level)
}
