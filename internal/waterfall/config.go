package waterfall

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/bankfacts/internal/model"
)

// Document type labels used in priority rules.
const (
	DocTypeReport       = "Interim/Annual Report"
	DocTypeDataPack     = "Data Pack"
	DocTypePresentation = "Presentation/Other"
	DocTypeEstimate     = "Internal Estimate"
)

// Config is the per-bank priority configuration.
//
// Ranks are applied when a candidate is created. Changing the configuration
// after ingestion does not re-rank candidates that were already tagged.
type Config struct {
	Banks map[model.Bank][]Rule `yaml:"banks"`
}

// DefaultRules returns the standard ranking: statutory filings, then data
// packs, then presentations, then internal estimates.
func DefaultRules() []Rule {
	return []Rule{
		{Priority: 1, DocType: DocTypeReport, Description: "Statutory Filings (Highest Reliability)"},
		{Priority: 2, DocType: DocTypeDataPack, Description: "Investor Data Packs (Excel/PDF)"},
		{Priority: 3, DocType: DocTypePresentation, Description: "Investor Presentations or Other Sources"},
		{Priority: 4, DocType: DocTypeEstimate, Description: "Calculated Proxies / Custom Models"},
	}
}

// DefaultConfig returns the built-in configuration. BOC Hong Kong publishes a
// structured data pack that outranks its statutory report.
func DefaultConfig() *Config {
	cfg := &Config{Banks: make(map[model.Bank][]Rule)}
	for _, b := range model.AllBanks() {
		cfg.Banks[b] = DefaultRules()
	}
	cfg.Banks[model.BankBOCHK] = []Rule{
		{Priority: 1, DocType: DocTypeDataPack, Description: "Structured Investor Data Pack (Highest Reliability)"},
		{Priority: 2, DocType: DocTypeReport, Description: "Statutory Filings"},
		{Priority: 3, DocType: DocTypePresentation, Description: "Investor Presentations or Other Sources"},
		{Priority: 4, DocType: DocTypeEstimate, Description: "Calculated Proxies / Custom Models"},
	}
	return cfg
}

// LoadConfig reads priority rules from a YAML file. Banks absent from the
// file keep the built-in rules.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read config %s", path)
	}

	// The YAML has a top-level "waterfall" key
	var wrapper struct {
		Waterfall Config `yaml:"waterfall"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse config")
	}

	cfg := DefaultConfig()
	for bank, rules := range wrapper.Waterfall.Banks {
		if err := validateRules(rules); err != nil {
			return nil, eris.Wrapf(err, "waterfall: bank %q", bank)
		}
		sorted := append([]Rule(nil), rules...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
		cfg.Banks[bank] = sorted
	}
	return cfg, nil
}

func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return eris.New("no rules")
	}
	seen := make(map[int]bool, len(rules))
	for _, r := range rules {
		if r.Priority < 1 || r.Priority > model.PriorityEstimate {
			return eris.Errorf("priority %d out of range 1-%d", r.Priority, model.PriorityEstimate)
		}
		if seen[r.Priority] {
			return eris.Errorf("duplicate priority %d", r.Priority)
		}
		if strings.TrimSpace(r.DocType) == "" {
			return eris.Errorf("priority %d has no doc_type", r.Priority)
		}
		seen[r.Priority] = true
	}
	return nil
}

// Rules returns the ranking for a bank, falling back to the defaults.
func (c *Config) Rules(bank model.Bank) []Rule {
	if c != nil {
		if rules, ok := c.Banks[bank]; ok {
			return rules
		}
	}
	return DefaultRules()
}

// RankFor returns the priority a document type carries for a bank. Unknown
// document types rank as presentation/other.
func (c *Config) RankFor(bank model.Bank, docType string) int {
	for _, r := range c.Rules(bank) {
		if strings.EqualFold(r.DocType, docType) {
			return r.Priority
		}
	}
	return model.PriorityOther
}

// DocTypeFor returns the document type label holding a priority for a bank.
func (c *Config) DocTypeFor(bank model.Bank, priority int) string {
	for _, r := range c.Rules(bank) {
		if r.Priority == priority {
			return r.DocType
		}
	}
	return ""
}
