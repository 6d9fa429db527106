package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashwch/s3tools/internal/config"
	"github.com/ashwch/s3tools/internal/i18n"
)

type configValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage s3tools configuration",
		Long: `Manage s3tools configuration.

Configuration is stored in:
  - Linux: ~/.config/s3tools/config.toml
  - macOS: ~/Library/Application Support/s3tools/config.toml
  - Windows: %APPDATA%\s3tools\config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.emit(configValue{Key: "path", Value: app.cfgPath}, app.cfgPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.listConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Show one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := app.cfg.Get(args[0])
			if err != nil {
				return app.fail(i18n.ErrorConfig, err)
			}
			app.emit(configValue{Key: args[0], Value: value}, value)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

List values such as engine.build_dirs take a comma-separated string.
Setting engines.<name>.path to an empty string removes the override.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.setConfig(args[0], args[1])
		},
	})

	return cfgCmd
}

func (a *App) listConfig() error {
	keys := a.cfg.Keys()
	values := make([]configValue, 0, len(keys))
	width := 0
	for _, key := range keys {
		value, err := a.cfg.Get(key)
		if err != nil {
			return a.fail(i18n.ErrorConfig, err)
		}
		values = append(values, configValue{Key: key, Value: value})
		width = max(width, len(key))
	}
	if a.opts.JSON {
		a.writeJSON(values)
		return nil
	}
	for _, v := range values {
		fmt.Fprintf(a.stdout, "%-*s = %s\n", width, v.Key, v.Value)
	}
	return nil
}

func (a *App) setConfig(key, value string) error {
	if name, ok := engineOverrideName(key); ok {
		if _, known := a.engines.Lookup(name); !known {
			return a.fail(i18n.ErrorConfig, fmt.Errorf("unknown engine %q (expected one of %s)", name, strings.Join(a.engines.Names(), ", ")))
		}
	}
	if err := a.cfg.Set(key, value); err != nil {
		return a.fail(i18n.ErrorConfig, err)
	}
	if err := config.Save(a.cfgPath, a.cfg); err != nil {
		return a.fail(i18n.ErrorConfig, err)
	}
	stored, err := a.cfg.Get(key)
	if err != nil {
		stored = value
	}
	a.logger.Info("config updated", "key", key, "path", a.cfgPath)
	a.emit(configValue{Key: key, Value: stored}, fmt.Sprintf("%s = %s", key, stored))
	return nil
}

func engineOverrideName(key string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) == 3 && parts[0] == "engines" && parts[2] == "path" {
		return parts[1], true
	}
	return "", false
}
