package main

import (
	"fmt"

	"github.com/keshon/chatcmd/internal/config"
	"github.com/keshon/chatcmd/internal/logging"
	"github.com/keshon/chatcmd/internal/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:           version.AppName,
	Short:         version.AppDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override CHATCMD_LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// setup loads configuration and builds the logger every subcommand uses.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, found, err := config.Load(envFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		NoColor:    noColor,
	})
	if !found {
		logger.Debug().Str("file", envFile).Msg("[INFO] No .env file, using the environment only")
	}
	return cfg, logger, nil
}
