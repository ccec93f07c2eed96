// Package cli implements the qcraft command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/querycraft/dialect"
	"github.com/syssam/querycraft/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

type configKey struct{}

// NewRootCmd creates the qcraft root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "qcraft",
		Short: "Render and run dialect-aware SQL statements",
		Long: `qcraft renders statements described in YAML files into parameterized
SQL for PostgreSQL, MySQL and SQLite, and can execute them against a database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := cfg.Logger(cmd.ErrOrStderr())
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(config.WithLogger(ctx, logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./qcraft.yaml)")
	flags.StringP("dialect", "d", config.DefaultDialect, "SQL dialect or alias")
	flags.String("dsn", "", "data source name used by exec")
	flags.StringP("output", "o", config.DefaultOutput, "output format (text|json)")
	flags.Int("cache-size", config.DefaultCacheSize, "render cache entries")
	flags.Duration("cache-ttl", 0, "render cache entry lifetime (0 keeps entries until evicted)")
	flags.Duration("slow-threshold", config.DefaultSlowThreshold, "log statements slower than this")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (text|json)")

	_ = root.RegisterFlagCompletionFunc("dialect", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return dialect.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newRenderCmd(),
		newExecCmd(),
		newTypesCmd(),
		newDialectsCmd(),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// configFrom returns the configuration loaded by the root command.
func configFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Dialect: config.DefaultDialect,
		Output:  config.DefaultOutput,
		Cache:   config.CacheConfig{Size: config.DefaultCacheSize},
		Slow:    config.SlowConfig{Threshold: config.DefaultSlowThreshold},
	}
}
