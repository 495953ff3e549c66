package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bankfacts/internal/engine"
	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
)

var reviewCurrency string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record reviewer decisions on a fact",
}

var reviewSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Override a fact's value",
	Long:  "Overrides the value. Thousands separators are accepted; unparseable text is recorded as 0.",
	Args:  cobra.ExactArgs(2),
	RunE: reviewAction(func(ctx context.Context, eng *engine.Engine, key model.FactKey, args []string) (overlay.Outcome, model.ValidationStatus, error) {
		if reviewCurrency != "" {
			return eng.SetValueIn(ctx, key, overlay.ParseValue(args[1]), model.Currency(reviewCurrency))
		}
		return eng.SetValueText(ctx, key, args[1])
	}),
}

var reviewCommentCmd = &cobra.Command{
	Use:   "comment <key> <text>",
	Short: "Attach a comment to a fact",
	Args:  cobra.ExactArgs(2),
	RunE: reviewAction(func(ctx context.Context, eng *engine.Engine, key model.FactKey, args []string) (overlay.Outcome, model.ValidationStatus, error) {
		return eng.SetComment(ctx, key, args[1])
	}),
}

var reviewLockCmd = &cobra.Command{
	Use:   "lock <key>",
	Short: "Toggle the validated lock",
	Args:  cobra.ExactArgs(1),
	RunE: reviewAction(func(ctx context.Context, eng *engine.Engine, key model.FactKey, _ []string) (overlay.Outcome, model.ValidationStatus, error) {
		return eng.ToggleValidated(ctx, key)
	}),
}

var reviewNACmd = &cobra.Command{
	Use:   "na <key>",
	Short: "Toggle not-applicable",
	Args:  cobra.ExactArgs(1),
	RunE: reviewAction(func(ctx context.Context, eng *engine.Engine, key model.FactKey, _ []string) (overlay.Outcome, model.ValidationStatus, error) {
		return eng.ToggleNA(ctx, key)
	}),
}

var reviewFlagCmd = &cobra.Command{
	Use:   "flag <key>",
	Short: "Toggle the exclusion flag",
	Args:  cobra.ExactArgs(1),
	RunE: reviewAction(func(ctx context.Context, eng *engine.Engine, key model.FactKey, _ []string) (overlay.Outcome, model.ValidationStatus, error) {
		return eng.ToggleFlag(ctx, key)
	}),
}

type reviewFunc func(ctx context.Context, eng *engine.Engine, key model.FactKey, args []string) (overlay.Outcome, model.ValidationStatus, error)

func reviewAction(fn reviewFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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

		out, st, err := fn(ctx, env.Engine, key, args)
		if err != nil {
			return err
		}
		formatStatus(os.Stdout, key, out, st)
		if out == overlay.RejectedLocked {
			return eris.Errorf("%s is locked; unlock it with 'review lock' first", key)
		}
		return nil
	}
}

func parseKey(s string) (model.FactKey, error) {
	if !identity.IsFactKey(s) {
		return "", eris.Errorf("invalid fact key %q", s)
	}
	return model.FactKey(s), nil
}

func formatStatus(out io.Writer, key model.FactKey, o overlay.Outcome, st model.ValidationStatus) {
	_, _ = fmt.Fprintf(out, "%s: %s\n", key, o)
	_, _ = fmt.Fprintf(out, "  validated=%t override=%t na=%t flagged=%t\n", st.IsValidated, st.IsOverride, st.IsNA, st.IsFlagged)
	_, _ = fmt.Fprintf(out, "  original=%.2f current=%.2f\n", st.OriginalValue, st.CurrentValue)
	if st.Comments != "" {
		_, _ = fmt.Fprintf(out, "  comment: %s\n", st.Comments)
	}
}

func init() {
	reviewSetCmd.Flags().StringVar(&reviewCurrency, "currency", "", "currency the value was entered in (converted back to the fact's currency)")
	reviewCmd.AddCommand(reviewSetCmd, reviewCommentCmd, reviewLockCmd, reviewNACmd, reviewFlagCmd)
	rootCmd.AddCommand(reviewCmd)
}
