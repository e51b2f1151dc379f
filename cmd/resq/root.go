package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rapidresq/resq/pkg/cli"
	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "resq",
	Short: "RapidResQ emergency command processor",
	Long: `RapidResQ processes emergency commands written in the Emergency Command
Language (ECL):

  ALERT <type> at <location> [priority <level>] [contact <number>]
  QUERY <service> near <location>
  STATUS <request-id>
  HELP <topic>

Commands are tokenised, parsed, checked and, when executable, dispatched to
emergency services. Requests pass through a concurrency coordinator that
numbers and queues them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration named by --config, with RESQ_*
// environment overrides applied, and installs it as the process
// configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// newLogger builds the process logger. level overrides the configured level
// unless --verbose is set.
func newLogger(cfg *config.Config, w io.Writer, level string) (*slog.Logger, error) {
	lc := logging.FromConfig(&cfg.Telemetry.Logging)
	lc.Writer = w
	if level != "" {
		lc.Level = level
	}
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return logger, nil
}
