package main

import (
	"github.com/spf13/cobra"

	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/tools/formato"
)

type formatoOutput struct {
	OK bool `json:"ok"`
	formato.Result
}

func newFormatoCommand(app *App) *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "formato <files...>",
		Short: "Apply the store spreadsheet template to XLSX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chosen := firstNonEmpty(template, app.cfg.Defaults.Template)
			result, err := app.formatoClient().Process(cmd.Context(), args, chosen)
			if err != nil {
				return app.fail(i18n.ErrorUpdateFiles, err)
			}
			lines := append([]string{app.catalog.T(i18n.FormatoUpdated, len(result.UpdatedFiles))}, result.Breakdown()...)
			app.emit(formatoOutput{OK: true, Result: result}, lines...)
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "", "template: auto, tiendas or bbvs (default from config)")
	return cmd
}
