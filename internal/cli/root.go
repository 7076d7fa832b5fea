package cli

import (
	"fmt"
	"os"

	"crypto-alerts-bot/config"
	"crypto-alerts-bot/internal/app"
	"crypto-alerts-bot/internal/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "cryptoalerts",
	Short:         "Telegram bot for crypto spot prices and one-shot price alerts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func newApp() (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logging.Setup(cfg.Logging, cfg.Debug); err != nil {
		return nil, err
	}

	return app.NewApp(cfg), nil
}
