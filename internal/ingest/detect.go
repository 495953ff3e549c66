// Package ingest turns extracted candidate batches into stamped, ranked
// candidates ready for the candidate store.
package ingest

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/waterfall"
)

var scToken = regexp.MustCompile(`(^|[^a-z])sc([^a-z]|$)`)

// DetectBank guesses the reporting bank from a document file name.
// Unrecognized names fall back to Bank of East Asia.
func DetectBank(fileName string) model.Bank {
	name := strings.ToLower(filepath.Base(fileName))
	switch {
	case strings.Contains(name, "hsbc"):
		return model.BankHSBC
	case strings.Contains(name, "standard chartered"), strings.Contains(name, "standard_chartered"), scToken.MatchString(name):
		return model.BankSCHK
	case strings.Contains(name, "boc"), strings.Contains(name, "bank of china"):
		return model.BankBOCHK
	case strings.Contains(name, "hang seng"), strings.Contains(name, "hangseng"), strings.Contains(name, "hang_seng"):
		return model.BankHangSeng
	default:
		return model.BankBEA
	}
}

// DocTypeFor guesses the document type label from a source document name.
func DocTypeFor(sourceDoc string) string {
	name := strings.ToLower(sourceDoc)
	switch {
	case strings.HasPrefix(name, "internal estimate"):
		return waterfall.DocTypeEstimate
	case strings.Contains(name, "data pack"), strings.Contains(name, "datapack"), strings.Contains(name, "data_pack"):
		return waterfall.DocTypeDataPack
	case strings.Contains(name, "interim"), strings.Contains(name, "annual report"),
		strings.Contains(name, "annual_report"), strings.Contains(name, "disclosure"):
		return waterfall.DocTypeReport
	default:
		return waterfall.DocTypePresentation
	}
}

// InferFrequency reads the reporting cadence from a period label such as
// "2025 1H", "2024-Q3" or "FY2023".
func InferFrequency(period string) model.Frequency {
	p := strings.ToUpper(period)
	switch {
	case strings.Contains(p, "1H"), strings.Contains(p, "2H"), strings.Contains(p, "H1"), strings.Contains(p, "H2"):
		return model.FrequencySemiAnnual
	case strings.Contains(p, "Q"):
		return model.FrequencyQuarterly
	default:
		return model.FrequencyAnnual
	}
}
