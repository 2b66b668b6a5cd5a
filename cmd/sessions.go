package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved sessions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved sessions, most recent first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				infos, err := app.sessions.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "sessions: none")
					return nil
				}

				for _, info := range infos {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tmessages=%d\tupdated=%s\n",
						info.Name, info.Profile, info.Messages, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a saved session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.sessions.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
				return nil
			},
		},
	)

	return cmd
}
