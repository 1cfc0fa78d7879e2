package cmd

import (
	"github.com/spf13/cobra"

	"meshdrop/internal/snowflake"
	"meshdrop/internal/ui"
)

func newStatementsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statements",
		Short: "Print the Snowflake statements deploy will run",
		Long: `Print the statements run against Snowflake, in order, without connecting.

The username is taken from --snowflake-username, MESHDROP_SNOWFLAKE_USERNAME or
the config file. Without one, the placeholder is left in the grant statements.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("snowflake-username")
			if username == "" {
				username = a.v.GetString("snowflake.username")
			}
			if username == "" {
				username = snowflake.UsernamePlaceholder
			}
			ui.RenderStatements(cmd.OutOrStdout(), snowflake.Statements(username))
			return nil
		},
	}
	cmd.Flags().String("snowflake-username", "", "user granted the quickstart roles")
	return cmd
}
