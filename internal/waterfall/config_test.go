package waterfall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bankfacts/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.RankFor(model.BankHSBC, DocTypeReport))
	assert.Equal(t, 2, cfg.RankFor(model.BankHSBC, DocTypeDataPack))
	assert.Equal(t, 3, cfg.RankFor(model.BankHSBC, DocTypePresentation))
	assert.Equal(t, 4, cfg.RankFor(model.BankHSBC, DocTypeEstimate))

	// BOC HK ranks its data pack above the statutory report.
	assert.Equal(t, 1, cfg.RankFor(model.BankBOCHK, DocTypeDataPack))
	assert.Equal(t, 2, cfg.RankFor(model.BankBOCHK, DocTypeReport))
	assert.Equal(t, DocTypeDataPack, cfg.DocTypeFor(model.BankBOCHK, 1))
}

func TestRankFor_UnknownDocTypeAndBank(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, model.PriorityOther, cfg.RankFor(model.BankHSBC, "Podcast transcript"))
	assert.Equal(t, 1, cfg.RankFor(model.Bank("Unlisted Bank"), DocTypeReport))
	assert.Equal(t, 1, cfg.RankFor(model.BankHSBC, "interim/annual report"), "match is case-insensitive")

	var nilCfg *Config
	assert.Equal(t, 2, nilCfg.RankFor(model.BankHSBC, DocTypeDataPack))
}

func TestLoadConfig(t *testing.T) {
	yaml := `
waterfall:
  banks:
    "Hang Seng Bank":
      - { priority: 2, doc_type: "Interim/Annual Report", description: "Filings" }
      - { priority: 1, doc_type: "Data Pack", description: "Pack first" }
      - { priority: 4, doc_type: "Internal Estimate", description: "Models" }
`
	dir := t.TempDir()
	path := filepath.Join(dir, "waterfall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	rules := cfg.Rules(model.BankHangSeng)
	require.Len(t, rules, 3)
	assert.Equal(t, 1, rules[0].Priority, "rules are sorted by priority")
	assert.Equal(t, DocTypeDataPack, rules[0].DocType)
	assert.Equal(t, 1, cfg.RankFor(model.BankHangSeng, DocTypeDataPack))

	// Banks absent from the file keep defaults.
	assert.Equal(t, 1, cfg.RankFor(model.BankHSBC, DocTypeReport))
	assert.Equal(t, 1, cfg.RankFor(model.BankBOCHK, DocTypeDataPack))
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/waterfall.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waterfall: read config")
}

func TestLoadConfig_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"duplicate", "waterfall:\n  banks:\n    X:\n      - { priority: 1, doc_type: a }\n      - { priority: 1, doc_type: b }\n", "duplicate priority"},
		{"range", "waterfall:\n  banks:\n    X:\n      - { priority: 7, doc_type: a }\n", "out of range"},
		{"doc type", "waterfall:\n  banks:\n    X:\n      - { priority: 1 }\n", "no doc_type"},
		{"empty", "waterfall:\n  banks:\n    X: []\n", "no rules"},
		{"bad yaml", "waterfall: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "w.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
