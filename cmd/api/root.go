package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notka/internal/config"
	"notka/internal/logging"
)

var (
	cfg    *config.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "notka",
	Short:         "Note-taking backend with file attachments",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger = logging.NewStdout(logging.Location(cfg.TimeZone), cfg.LogLevel)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	// no subcommand starts the server
	RunE: runServe,
}

// Execute runs the root command and logs a failing subcommand.
func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return nil
	}
	if logger != nil {
		logger.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
		_ = logger.Sync()
	} else {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}
