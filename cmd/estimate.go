package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/estimate"
	"github.com/sells-group/bankfacts/internal/model"
)

var (
	allocModel    estimate.AllocationModel
	allocBank     string
	allocCurrency string
	allocPeriods  []string
	allocRatio    float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Inject modelled estimates",
}

var estimateAllocCmd = &cobra.Command{
	Use:   "alloc",
	Short: "Estimate HK loans or deposits from segment allocation",
	Long: "Applies the share of in-scope HK segments (personal, wholesale, wealth) to a group total and " +
		"force-activates the result for each period. Earlier estimates for the same facts are replaced.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m := allocModel
		if cmd.Flags().Changed("ratio") {
			r := allocRatio
			m.RatioOverride = &r
		}
		batch, err := m.Candidates(model.Bank(allocBank), model.Currency(allocCurrency), allocPeriods)
		if err != nil {
			return err
		}

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		keys, err := env.Engine.SaveEstimate(ctx, batch)
		if err != nil {
			return err
		}
		zap.L().Info("estimate saved",
			zap.String("bank", allocBank),
			zap.Float64("ratio", m.Ratio()),
			zap.Float64("value", m.Estimate()),
			zap.Int("facts", len(keys)),
		)
		for _, k := range keys {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

func init() {
	f := estimateAllocCmd.Flags()
	f.StringVar(&allocBank, "bank", "", "bank the estimate is for (required)")
	f.StringSliceVar(&allocPeriods, "period", nil, "period to estimate, repeatable (required)")
	f.StringVar(&allocCurrency, "currency", string(model.CurrencyHKD), "currency of the inputs")
	f.StringVar((*string)(&allocModel.Basis), "basis", string(estimate.BasisAssets), "assets (loans) or liabilities (deposits)")
	f.Float64Var(&allocModel.Personal, "personal", 0, "HK personal banking balance")
	f.Float64Var(&allocModel.Wholesale, "wholesale", 0, "HK wholesale banking balance")
	f.Float64Var(&allocModel.Wealth, "wealth", 0, "HK wealth management balance")
	f.Float64Var(&allocModel.TotalHK, "total-hk", 0, "total HK balance")
	f.Float64Var(&allocModel.GroupTotal, "group-total", 0, "group total to allocate")
	f.Float64Var(&allocRatio, "ratio", 0, "allocation ratio in percent, overriding the computed share")
	_ = estimateAllocCmd.MarkFlagRequired("bank")
	_ = estimateAllocCmd.MarkFlagRequired("period")
	estimateCmd.AddCommand(estimateAllocCmd)
	rootCmd.AddCommand(estimateCmd)
}
