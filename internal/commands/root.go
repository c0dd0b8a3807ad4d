package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finchat-dev/finchat/internal/buildinfo"
	"github.com/finchat-dev/finchat/internal/config"
	"github.com/finchat-dev/finchat/internal/dashboard"
	"github.com/finchat-dev/finchat/internal/gateway"
	"github.com/finchat-dev/finchat/internal/log"
	"github.com/finchat-dev/finchat/internal/render"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	gatewayURL string
	logLevel   string
}

// app is everything a subcommand needs, built from config and flags.
type app struct {
	root     string // directory holding the config file
	cfg      *config.Config
	logger   *log.Logger
	client   *gateway.Client
	dash     *dashboard.Dashboard
	renderer *render.Renderer
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "finchat",
		Short:   "Personal finance dashboard for the summary gateway",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.FileName, "path to the config file")
	pf.StringVar(&flags.gatewayURL, "gateway", "", "gateway base URL (overrides config and "+config.EnvGatewayURL+")")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newInitCommand(flags),
		newDashboardCommand(flags),
		newUploadCommand(flags),
		newBudgetCommand(flags),
		newChatCommand(flags),
		newAlertsCommand(flags),
		newStatusCommand(flags),
	)

	return rootCmd
}

// loadApp resolves configuration in order file, .env, environment, flags,
// then wires the gateway client, dashboard and renderer.
func loadApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	path, err := filepath.Abs(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	root := filepath.Dir(path)

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(filepath.Join(root, ".env")); err != nil {
		return nil, err
	}
	if flags.gatewayURL != "" {
		cfg.Gateway.BaseURL = flags.gatewayURL
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s:\n%w", path, err)
	}

	logger, err := log.New(log.Config{
		Level:     cfg.Log.Level,
		Component: log.ComponentApp,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)

	client := gateway.NewClient(cfg.Gateway.BaseURL,
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Gateway.Timeout),
	)
	limits := dashboard.Limits{
		TopMerchants: cfg.Dashboard.TopMerchants,
		ChartBars:    cfg.Dashboard.ChartLimit,
	}

	return &app{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		client:   client,
		dash:     dashboard.New(client, limits, logger),
		renderer: render.New(cfg.Dashboard.CurrencySymbol, cfg.Dashboard.Locale),
	}, nil
}

// importDir returns the configured import directory, relative to the project
// root unless absolute.
func (a *app) importDir() string {
	if filepath.IsAbs(a.cfg.Import.Dir) {
		return a.cfg.Import.Dir
	}
	return filepath.Join(a.root, a.cfg.Import.Dir)
}
