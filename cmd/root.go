package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"meshdrop/internal/config"
	"meshdrop/internal/observability"
	"meshdrop/internal/snowflake"
	"meshdrop/internal/ui"
	"meshdrop/pkg/models"
)

// errReported marks a failure whose message was already printed
var errReported = stderrors.New("failure already reported")

// runEnv holds what commands reach outside the process through
type runEnv struct {
	connector   snowflake.Connector
	prompter    ui.Prompter
	httpClient  *http.Client
	interactive bool
}

func defaultRunEnv() *runEnv {
	return &runEnv{
		connector:   snowflake.NewSnowflakeConnector("meshdrop"),
		prompter:    ui.NewSurveyPrompter(),
		interactive: isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// app is the state shared by one command tree
type app struct {
	rt      *runEnv
	v       *viper.Viper
	cfgFile string
	cfg     *models.Config
}

var rootCmd = newRootCmd(defaultRunEnv())

func newRootCmd(rt *runEnv) *cobra.Command {
	a := &app{rt: rt, v: viper.New()}

	cmd := &cobra.Command{
		Use:   "meshdrop",
		Short: "Provision Snowflake and dbt Cloud for the data mesh quickstart",
		Long: `meshdrop prepares a Snowflake account and a dbt Cloud account for the
"Build Data Products and a Data Mesh with dbt Cloud" quickstart.

It creates the foundational and finance databases, warehouses and roles in
Snowflake, then creates one dbt Cloud project for each, complete with a
connection, a managed repository, credentials and two environments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	cmd.SetGlobalNormalizationFunc(wordSepNormalizeFunc)
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.meshdrop/config.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "write structured logs to stderr")
	cmd.PersistentFlags().String("log-level", "info", "log level used with --verbose (debug, info, warn, error)")
	_ = a.v.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
	_ = a.v.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newDeployCmd(a),
		newInitCmd(a),
		newStatementsCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !stderrors.Is(err, errReported) {
			ui.ShowError(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// initConfig layers flags over MESHDROP_* environment variables over the
// config file.
func (a *app) initConfig() error {
	a.v.SetEnvPrefix("MESHDROP")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	path := a.cfgFile
	if path == "" {
		path = config.GetConfigFile()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.v.SetDefault("snowflake.account", cfg.Snowflake.Account)
	a.v.SetDefault("snowflake.username", cfg.Snowflake.Username)
	a.v.SetDefault("dbt_cloud.account_id", cfg.DbtCloud.AccountID)
	a.v.SetDefault("dbt_cloud.host", cfg.DbtCloud.Host)
	if cfg.Logging.Level != "" {
		a.v.SetDefault("logging.level", cfg.Logging.Level)
	}
	return nil
}

func (a *app) configFile() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.GetConfigFile()
}

// logger writes JSON logs to stderr with --verbose and discards them otherwise
func (a *app) logger(stderr io.Writer) *observability.Logger {
	if !a.v.GetBool("verbose") {
		return observability.NewNopLogger()
	}
	return observability.NewLogger(observability.LoggerConfig{
		Level:   observability.LogLevelFromString(a.v.GetString("logging.level")),
		Output:  stderr,
		Version: Version,
	})
}

func (a *app) interactive(cmd *cobra.Command) bool {
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	return a.rt.interactive && !nonInteractive
}

// wordSepNormalizeFunc accepts snake_case spellings of flags, matching the
// input field names used in error messages.
func wordSepNormalizeFunc(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func fail(w io.Writer, err error) error {
	ui.ShowError(w, err)
	return fmt.Errorf("%w: %v", errReported, err)
}
