package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/export"
	"github.com/sells-group/bankfacts/internal/model"
)

var (
	exportPeriod   string
	exportSegment  string
	exportBanks    []string
	exportCurrency string
	exportFormat   string
	exportOut      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the validation table",
	Long:  "Renders the bank-by-metric table for one period and segment as text, JSON or an XLSX workbook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format := strings.ToLower(exportFormat)
		if format == "xlsx" && exportOut == "" {
			return eris.New("--out is required for xlsx")
		}

		env, err := initEngine(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		var banks []model.Bank
		for _, b := range exportBanks {
			banks = append(banks, model.Bank(b))
		}
		tbl := export.Build(env.Engine, exportPeriod, model.Segment(exportSegment), banks,
			model.Currency(strings.ToUpper(exportCurrency)))

		switch format {
		case "xlsx":
			if err := tbl.WriteXLSX(exportOut); err != nil {
				return err
			}
			zap.L().Info("export written", zap.String("path", exportOut))
			return nil
		case "text", "json":
			w, closeFn, err := outputWriter(exportOut)
			if err != nil {
				return err
			}
			defer closeFn()
			if format == "text" {
				return tbl.WriteText(w)
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(tbl), "export json")
		default:
			return eris.Errorf("unknown format %q (text, json, xlsx)", exportFormat)
		}
	},
}

// outputWriter opens path for writing, or stdout when path is empty.
func outputWriter(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportPeriod, "period", "", "period to export, e.g. \"2025 1H\" (required)")
	f.StringVar(&exportSegment, "segment", string(model.SegmentGroup), "segment to export")
	f.StringSliceVar(&exportBanks, "bank", nil, "banks to include, repeatable (default all)")
	f.StringVar(&exportCurrency, "currency", string(model.CurrencyHKD), "display currency: HKD, USD or GBP")
	f.StringVar(&exportFormat, "format", "text", "output format: text, json or xlsx")
	f.StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(exportCmd)
}
