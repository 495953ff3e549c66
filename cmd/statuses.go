package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/store"
)

var statusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "Move review statuses in and out as JSON",
}

var statusesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write every review status as a JSON object keyed by fact",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		w, closeFn, err := outputWriter(path)
		if err != nil {
			return err
		}
		defer closeFn()
		return store.ExportJSON(w, env.Engine.Statuses())
	},
}

var statusesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge review statuses from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		m, err := store.ImportJSON(f)
		if err != nil {
			return err
		}

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Engine.ImportStatuses(ctx, m); err != nil {
			return err
		}
		zap.L().Info("statuses imported", zap.Int("count", len(m)))
		return nil
	},
}

func init() {
	statusesCmd.AddCommand(statusesExportCmd, statusesImportCmd)
	rootCmd.AddCommand(statusesCmd)
}
