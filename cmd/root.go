package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/rollupdash/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir      string
	cfg         *config.Config
	logger      = zap.NewNop()
	verbose     bool
	networkFlag string
	walletFlag  string
	appFlag     string
	nodeFlag    string
	outputFlag  string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "rollupdash",
	Short: "Terminal dashboard for Cartesi rollup applications",
	Long: `rollupdash sends inputs, inspects state and works with the notices,
vouchers and reports of a Cartesi rollup application.

The application, rollup node and base-layer chain come from the config file
and can be overridden for one invocation with --app, --node and --network,
or with the ROLLUPDASH_APP, ROLLUPDASH_NODE and ROLLUPDASH_NETWORK
environment variables. A .env file in the working directory is read first.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		godotenv.Load() //nolint:errcheck // a missing .env is fine

		dir := cfgDir
		if dir == "" {
			dir = os.Getenv(config.EnvConfigDir)
		}
		var err error
		cfg, err = config.Load(dir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyEnv()
		if appFlag != "" {
			cfg.AppAddress = appFlag
		}
		if nodeFlag != "" {
			cfg.NodeURL = nodeFlag
		}
		if networkFlag != "" {
			cfg.DefaultNetwork = networkFlag
		}

		logger, err = newLogger("stderr")
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger.Debug("config loaded",
			zap.String("dir", cfg.Dir()),
			zap.String("app", cfg.AppAddress),
			zap.String("node", cfg.NodeURL),
			zap.String("network", cfg.DefaultNetwork))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync() //nolint:errcheck
	},
}

// newLogger builds a production zap logger writing to path. --verbose wins
// over the configured log level.
func newLogger(path string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	zc.DisableStacktrace = true

	level := zapcore.WarnLevel
	if cfg != nil && cfg.LogLevel != "" {
		l, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		level = l
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: ~/.rollupdash)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "", "base-layer chain (name or chain id)")
	rootCmd.PersistentFlags().StringVar(&walletFlag, "wallet", "", "wallet name (default: configured default wallet)")
	rootCmd.PersistentFlags().StringVar(&appFlag, "app", "", "application address")
	rootCmd.PersistentFlags().StringVar(&nodeFlag, "node", "", "rollup node URL")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(
		networkCmd,
		walletCmd,
		configCmd,
		rpcCmd,
		inspectCmd,
		inputCmd,
		reportsCmd,
		outputsCmd,
		nodeCmd,
		dashboardCmd,
		decodeCmd,
		encodeCmd,
	)
}
