package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/engine"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/monitoring"
)

var (
	factsBank    string
	factsPeriod  string
	factsSegment string
	factsJSON    bool
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "List resolved facts",
	Long:  "Prints the winning candidate for every logical fact, with its review status.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		facts := env.Engine.GetResolvedFacts(model.FactFilter{
			Bank:    model.Bank(factsBank),
			Period:  factsPeriod,
			Segment: model.Segment(factsSegment),
		})
		if len(facts) == 0 {
			zap.L().Info("no facts found, run 'ingest' first")
			return nil
		}

		if factsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(facts)
		}
		formatFacts(os.Stdout, facts, env.Engine.Statuses())
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit <key>",
	Short: "Explain how one fact resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		formatAudit(os.Stdout, env.Engine.Audit(key))
		return nil
	},
}

func init() {
	factsCmd.Flags().StringVar(&factsBank, "bank", "", "only facts for this bank")
	factsCmd.Flags().StringVar(&factsPeriod, "period", "", "only facts for this period, e.g. \"2025 1H\"")
	factsCmd.Flags().StringVar(&factsSegment, "segment", "", "only facts for this segment")
	factsCmd.Flags().BoolVar(&factsJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(auditCmd)
}

// formatFacts writes a tabular listing of resolved facts to out.
func formatFacts(out io.Writer, facts []model.Candidate, statuses model.StatusMap) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tBANK\tPERIOD\tSEGMENT\tMETRIC\tVALUE\tRANK\tREVIEW")
	_, _ = fmt.Fprintln(w, "---\t----\t------\t-------\t------\t-----\t----\t------")

	for _, c := range facts {
		st, ok := statuses[c.Key]
		value := c.Value
		if ok {
			value = st.CurrentValue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			c.Key,
			c.Bank,
			c.Period,
			c.Segment,
			c.Metric,
			formatValue(value, c.Unit),
			c.Priority,
			monitoring.Classify(st, ok),
		)
	}
	_ = w.Flush()
}

func formatValue(v float64, unit model.Unit) string {
	if unit.IsPercent() {
		return fmt.Sprintf("%.2f%%", v)
	}
	return fmt.Sprintf("%.0f", v)
}

// formatAudit writes every competing candidate for one fact, winner first.
func formatAudit(out io.Writer, a engine.Audit) {
	_, _ = fmt.Fprintf(out, "Fact %s\n", a.Key)
	if !a.Resolved {
		_, _ = fmt.Fprintln(out, "  no candidates")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tRANK\tARRIVAL\tVALUE\tSOURCE\tPAGE")
	for _, at := range a.Attempts {
		mark := ""
		if at.Winner {
			mark = "*"
		}
		c := at.Candidate
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%d\n",
			mark, c.Priority, at.Arrival, formatValue(c.Value, c.Unit), c.SourceDoc, c.Page)
	}
	_ = w.Flush()

	if a.Status != nil {
		st := a.Status
		_, _ = fmt.Fprintf(out, "Review: %s, original %.2f, current %.2f, modified %s\n",
			monitoring.Classify(*st, true), st.OriginalValue, st.CurrentValue, st.LastModified.Format("2006-01-02 15:04"))
		if st.Comments != "" {
			_, _ = fmt.Fprintf(out, "Comment: %s\n", st.Comments)
		}
	}
	for _, r := range a.Rules {
		_, _ = fmt.Fprintf(out, "  %d. %s (%s)\n", r.Priority, r.DocType, r.Description)
	}
}
