package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/bnema/sage/internal/application"
	"github.com/spf13/cobra"
)

func newKeyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage API keys",
	}

	cmd.AddCommand(newKeySetCmd(app), newKeyDeleteCmd(app))
	return cmd
}

func newKeySetCmd(app *app) *cobra.Command {
	var profile string
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store an API key for a profile",
		Long:  "Store an API key for a profile. Without --value the key is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if profile == "" {
				profile = settings.Active().Alias
			}
			if _, err := settings.Profile(profile); err != nil {
				return fmt.Errorf("key set: %w", err)
			}

			if value == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read api key: %w", err)
				}
				value = strings.TrimSpace(string(data))
			}

			if err := app.profiles.SetAPIKey(cmd.Context(), profile, value); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %s\n", profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile alias (default: active profile)")
	cmd.Flags().StringVar(&value, "value", "", "API key value")

	return cmd
}

func newKeyDeleteCmd(app *app) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the stored API key of a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if profile == "" {
				profile = settings.Active().Alias
			}

			if err := app.secrets.Delete(cmd.Context(), application.SecretKey(profile)); err != nil {
				return fmt.Errorf("delete api key for %q: %w", profile, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted API key for %s\n", profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile alias (default: active profile)")

	return cmd
}
