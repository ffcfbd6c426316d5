// Package cli implements the urbanpulse commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweet-meenu/urbanpulse-sub000/config"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
)

var (
	cfg        *config.Config
	noStorage  bool
	envFlag    string
	appVersion = "1.0.0"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:     "urbanpulse",
	Short:   "City conditions dashboard backend",
	Long:    "Aggregates weather, air quality, traffic and AI insights for a location and serves them over HTTP.",
	Version: appVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if envFlag != "" {
			loaded.Server.Environment = envFlag
		}
		if noStorage {
			loaded.Storage.Enabled = false
		}
		cfg = loaded
		logger.Init(cfg.Server.Environment)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "", "Override server.environment (development, production, test)")
	RootCmd.PersistentFlags().BoolVar(&noStorage, "no-storage", false, "Disable the SQLite report store")
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
