package cmd

import (
	"fmt"

	"github.com/bnema/sage/internal/application"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print every setting and file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				settings, err := app.loadSettings(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				values := application.Values(*settings)
				for _, key := range application.SettingKeys {
					_, _ = fmt.Fprintf(out, "%s = %s\n", key, values[key])
				}
				_, _ = fmt.Fprintf(out, "settings_file = %s\n", app.paths.Settings)
				_, _ = fmt.Fprintf(out, "sessions_dir = %s\n", app.paths.Sessions)
				_, _ = fmt.Fprintf(out, "logs_dir = %s\n", app.paths.Logs)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting; profile settings apply to the active profile",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				settings, err := app.loadSettings(cmd.Context())
				if err != nil {
					return err
				}
				if err := app.profiles.Set(cmd.Context(), settings, args[0], args[1]); err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], application.Values(*settings)[args[0]])
				return nil
			},
		},
	)

	return cmd
}
