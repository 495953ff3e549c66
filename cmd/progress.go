package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/monitoring"
)

var progressPeriod string

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Summarize review progress per bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		snap := monitoring.Collect(env.Engine, model.FactFilter{Period: progressPeriod})
		formatProgress(os.Stdout, snap)
		return nil
	},
}

func init() {
	progressCmd.Flags().StringVar(&progressPeriod, "period", "", "only facts for this period")
	rootCmd.AddCommand(progressCmd)
}

// formatProgress writes per-bank review counts to out.
func formatProgress(out io.Writer, snap monitoring.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BANK\tFACTS\tPENDING\tMODIFIED\tN/A\tLOCKED\tFLAGGED\tEST\tDONE")
	row := func(name string, c monitoring.Counts) {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.0f%%\n",
			name, c.Facts, c.Pending, c.Modified, c.NA, c.Locked, c.Flagged, c.Estimates, c.Completion()*100)
	}
	for _, b := range snap.Banks {
		row(string(b.Bank), b.Counts)
	}
	row("TOTAL", snap.Total)
	_ = w.Flush()

	if snap.Orphans > 0 {
		_, _ = fmt.Fprintf(out, "%d review statuses have no matching candidate\n", snap.Orphans)
	}
}
