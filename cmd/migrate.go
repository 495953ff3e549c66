package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the store schema",
	Long:  "Creates the validation status and candidate tables for the configured driver. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cli"); err != nil {
			return err
		}
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "migrate")
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("schema applied", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every candidate and review status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !resetYes {
			return eris.New("reset deletes all review work; pass --yes to confirm")
		}
		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		return env.Engine.Reset(ctx)
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetCmd)
}
