package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"meshdrop/internal/quickstart"
	"meshdrop/internal/snowflake"
	"meshdrop/internal/ui"
)

// deployFlags maps each request field to its flag and viper key
var deployFlags = []struct {
	flag  string
	key   string
	usage string
}{
	{"snowflake-account", "snowflake.account", "Snowflake account identifier, e.g. xy12345.us-east-1"},
	{"snowflake-username", "snowflake.username", "Snowflake user able to assume ACCOUNTADMIN"},
	{"snowflake-password", "snowflake.password", "Snowflake password (prefer MESHDROP_SNOWFLAKE_PASSWORD)"},
	{"dbt-cloud-token", "dbt_cloud.token", "dbt Cloud service token (prefer MESHDROP_DBT_CLOUD_TOKEN)"},
	{"dbt-cloud-account-id", "dbt_cloud.account_id", "dbt Cloud account ID"},
	{"dbt-cloud-host", "dbt_cloud.host", "dbt Cloud host, e.g. cloud.getdbt.com"},
}

func newDeployCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision Snowflake and create the quickstart dbt Cloud projects",
		Long: `Run the quickstart setup end to end.

Snowflake is set up first with a fixed batch of statements run as ACCOUNTADMIN.
Then the "SFQuickstart: Foundational Project" and "SFQuickstart: Finance Project"
dbt Cloud projects are created in order.

Inputs are read from flags, then MESHDROP_* environment variables, then the
config file written by 'meshdrop init'. Anything still missing is prompted for.
Nothing is retried or rolled back: on failure, the resources created so far are
listed so they can be removed by hand.`,
		Args: cobra.NoArgs,
		RunE: a.runDeploy,
	}

	for _, f := range deployFlags {
		cmd.Flags().String(f.flag, "", f.usage)
		_ = a.v.BindPFlag(f.key, cmd.Flags().Lookup(f.flag))
	}
	cmd.Flags().Bool("non-interactive", false, "fail instead of prompting for missing inputs")
	return cmd
}

func (a *app) request() quickstart.Request {
	return quickstart.Request{
		WarehouseAccount:  a.v.GetString("snowflake.account"),
		WarehouseUser:     a.v.GetString("snowflake.username"),
		WarehousePassword: a.v.GetString("snowflake.password"),
		ServiceToken:      a.v.GetString("dbt_cloud.token"),
		ServiceAccountID:  a.v.GetString("dbt_cloud.account_id"),
		ServiceHost:       a.v.GetString("dbt_cloud.host"),
	}
}

func (a *app) runDeploy(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	req := a.request()

	if a.interactive(cmd) {
		if err := ui.PromptRequest(a.rt.prompter, &req); err != nil {
			return fail(cmd.ErrOrStderr(), err)
		}
	}

	logger := a.logger(cmd.ErrOrStderr())
	spinner := ui.NewSpinner(out, "Running...")
	deployer := quickstart.NewDeployer(
		snowflake.NewProvisioner(a.rt.connector, logger),
		quickstart.WithLogger(logger),
		quickstart.WithHTTPClient(a.rt.httpClient),
		quickstart.WithUserAgent("meshdrop/"+Version),
		quickstart.WithStageFunc(func(stage quickstart.Stage, project string) {
			spinner.UpdateMessage(ui.StageMessage(stage, project))
		}),
	)

	if a.rt.interactive {
		spinner.Start()
	} else {
		fmt.Fprintln(out, "Running...")
	}
	outcome := deployer.Run(cmd.Context(), req)
	spinner.Stop(outcome.Success(), "")

	ui.RenderOutcome(out, outcome)
	ui.RenderReport(out, outcome.Report)

	if !outcome.Success() {
		return fmt.Errorf("%w: %s", errReported, outcome.Kind)
	}
	return nil
}
