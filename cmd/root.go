package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sage [query]",
		Short: "Sage: chat with an OpenAI-compatible model from the terminal",
		Long: "sage streams chat completions from an OpenAI-compatible endpoint into the terminal, " +
			"keeps the conversation inside the model's context window and attaches files, " +
			"directories and websites on request. Piped input is sent as the first message.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, app, args)
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		_ = app.logger.Sync()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newProfileCmd(app),
		newKeyCmd(app),
		newSessionsCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
