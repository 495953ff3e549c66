package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/ingest"
	"github.com/sells-group/bankfacts/internal/model"
)

var (
	ingestSheet   string
	ingestCharset string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <files...>",
	Short: "Ingest extracted candidates from batch files",
	Long:  "Reads YAML, JSON, CSV or XLSX batch files, ranks each candidate by document type, and appends them in argument order.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		loader := ingest.NewLoader(env.Engine.Rules(), cfg.Ingest.MaxConcurrentFiles)
		loader.Read = ingest.ReadOptions{SheetName: ingestSheet, Charset: ingestCharset}

		cs, err := loader.LoadFiles(ctx, args)
		if err != nil {
			return err
		}
		if err := env.Engine.IngestCandidates(ctx, cs); err != nil {
			return eris.Wrap(err, "ingest")
		}

		zap.L().Info("ingest complete",
			zap.Int("files", len(args)),
			zap.Int("candidates", len(cs)),
			zap.Int("facts", len(env.Engine.GetResolvedFacts(model.FactFilter{}))),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSheet, "sheet", "", "worksheet to read from XLSX files (default first sheet)")
	ingestCmd.Flags().StringVar(&ingestCharset, "charset", "", "character set of CSV files, e.g. big5 (default utf-8)")
	rootCmd.AddCommand(ingestCmd)
}
