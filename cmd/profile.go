package cmd

import (
	"fmt"

	"github.com/bnema/sage/internal/domain"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage model profiles",
	}

	cmd.AddCommand(
		newProfileListCmd(app),
		newProfileAddCmd(app),
		newProfileRemoveCmd(app),
		newProfileSwitchCmd(app),
	)

	return cmd
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}

			active := settings.Active().Alias
			for _, p := range settings.Profiles {
				marker := " "
				if p.Alias == active {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\t%s\tctx=%d\n", marker, p.Alias, p.Model, p.Endpoint, p.ContextLength)
			}
			return nil
		},
	}
}

func newProfileAddCmd(app *app) *cobra.Command {
	var (
		model           string
		endpoint        string
		contextLength   int
		retainReasoning bool
	)

	cmd := &cobra.Command{
		Use:   "add <alias>",
		Short: "Add a model profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}

			profile := domain.Profile{
				Alias:           args[0],
				Model:           model,
				Endpoint:        endpoint,
				ContextLength:   contextLength,
				RetainReasoning: retainReasoning,
			}
			if err := app.profiles.Add(cmd.Context(), settings, profile); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added profile %s\n", profile.Alias)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model name sent to the endpoint")
	cmd.Flags().StringVar(&endpoint, "endpoint", domain.DefaultEndpoint, "OpenAI-compatible base URL")
	cmd.Flags().IntVar(&contextLength, "context", domain.DefaultContextLength, "Context window in tokens")
	cmd.Flags().BoolVar(&retainReasoning, "retain-reasoning", true, "Keep model reasoning in the history")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func newProfileRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.profiles.Remove(cmd.Context(), settings, args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s (active: %s)\n", args[0], settings.Active().Alias)
			return nil
		},
	}
}

func newProfileSwitchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <alias>",
		Short: "Make a profile active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.profiles.Switch(cmd.Context(), settings, args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active profile: %s\n", args[0])
			return nil
		},
	}
}
