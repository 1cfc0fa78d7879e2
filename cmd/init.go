package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"meshdrop/internal/config"
	"meshdrop/internal/dbtcloud"
	"meshdrop/internal/ui"
	"meshdrop/pkg/models"
)

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Save default account settings",
		Long: `Save the Snowflake account and username and the dbt Cloud account ID
and host so 'meshdrop deploy' does not ask for them again.

Passwords and service tokens are never written to disk.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
	cmd.Flags().Bool("non-interactive", false, "save the current environment and config values without prompting")
	cmd.Flags().Bool("force", false, "overwrite an existing config file without asking")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := a.configFile()
	force, _ := cmd.Flags().GetBool("force")
	interactive := a.interactive(cmd)

	current := models.Config{
		Snowflake: models.Snowflake{
			Account:  a.v.GetString("snowflake.account"),
			Username: a.v.GetString("snowflake.username"),
		},
		DbtCloud: models.DbtCloud{
			AccountID: a.v.GetString("dbt_cloud.account_id"),
			Host:      a.v.GetString("dbt_cloud.host"),
		},
		Logging: a.cfg.Logging,
	}

	cfg := &current
	if interactive {
		ui.ShowHeader(out, "meshdrop - Configuration Setup")

		if config.ExistsAt(path) && !force {
			overwrite, err := a.rt.prompter.Confirm("Configuration already exists. Do you want to overwrite it?", false)
			if err != nil {
				return fail(cmd.ErrOrStderr(), err)
			}
			if !overwrite {
				fmt.Fprintln(out, "Setup cancelled.")
				return nil
			}
		}

		var err error
		cfg, err = ui.PromptDefaults(a.rt.prompter, current, dbtcloud.DefaultHost)
		if err != nil {
			return fail(cmd.ErrOrStderr(), err)
		}
	} else if config.ExistsAt(path) && !force {
		return fail(cmd.ErrOrStderr(), fmt.Errorf("%s already exists; pass --force to overwrite it", path))
	}

	if err := config.SaveTo(path, cfg); err != nil {
		return fail(cmd.ErrOrStderr(), err)
	}

	fmt.Fprintln(out)
	ui.ShowSuccess(out, "Configuration saved to "+path)
	fmt.Fprintln(out, "Run 'meshdrop deploy' to set up Snowflake and dbt Cloud.")
	return nil
}
