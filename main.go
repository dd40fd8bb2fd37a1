package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/lib"
)

var (
	configPath string
	cfg        lib.Config
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "syncrivo-registry",
	Short: "Connection registry for cross-platform channel routing",
	Long: `syncrivo-registry stores the connections that route messages from a
source channel on one platform (Slack, Teams, Google Chat, ...) to a
destination channel on another, and serves them over a small REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = lib.LoadConfig(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd)

		logger, err = lib.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	rootCmd.PersistentFlags().String("store-driver", "", "store backend: mongo or sqlite")
	rootCmd.PersistentFlags().String("mongodb-uri", "", "MongoDB connection string")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command) {
	override := func(name string, dst *string) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	override("store-driver", &cfg.StoreDriver)
	override("mongodb-uri", &cfg.MongoURI)
	override("log-level", &cfg.LogLevel)
	override("port", &cfg.Port)
	override("update-validation", &cfg.UpdateValidation)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
