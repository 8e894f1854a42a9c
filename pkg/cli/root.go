package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/sqlite-mcp/pkg/config"
)

// rootOptions carries the persistent flags and the state built from them
// before any subcommand runs.
type rootOptions struct {
	version    string
	configFile string
	dbPath     string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	rootCmd := &cobra.Command{
		Use:   "sqlite-mcp",
		Short: "Read-only natural-language access to SQLite databases",
		Long: `sqlite-mcp answers natural-language questions about SQLite databases
with safe, read-only SQL. It runs as an MCP server over stdio or HTTP and
offers the same exploration operations on the command line.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipSetup(cmd) {
				return nil
			}
			return opts.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to the SQLite database (overrides DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newQueryCommand(opts))
	rootCmd.AddCommand(newTablesCommand(opts))
	rootCmd.AddCommand(newOverviewCommand(opts))

	return rootCmd
}

// Execute runs the root command until it finishes or the process receives
// SIGINT or SIGTERM.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "__complete":
		return true
	}
	return false
}

// setup loads configuration, applies flag overrides and builds the logger.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile, o.version)
	} else {
		cfg, err = config.Load(o.version)
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Path = o.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}

// app builds the service graph for the running command.
func (o *rootOptions) app(ctx context.Context) *App {
	return NewApp(ctx, o.cfg, o.logger)
}
