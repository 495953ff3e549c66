package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/config"
)

var (
	cfg *config.Config

	// logLevel overrides log.level from config.yaml or BANKFACTS_LOG_LEVEL.
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bankfacts",
	Short: "Resolve and review bank financial facts",
	Long: `bankfacts keeps every extracted figure for a bank, period, metric and
segment, picks one winner per fact by document priority, and layers
reviewer edits, locks, N/A marks, flags and comments on top.

Configuration is read from ./config.yaml and BANKFACTS_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("store", cfg.Store.Driver),
			zap.Float64("usd_to_hkd", cfg.FX.USDToHKD),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
