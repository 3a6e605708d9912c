package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addCleanCommand(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Deduplicate the remote trade store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			msg, err := app.uploader().Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, msg)
			return nil
		},
	})
}
