// Package export renders the validation table for review and hand-off.
package export

import (
	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
)

// Viewer renders one fact for display.
type Viewer interface {
	Display(key model.FactKey, target model.Currency) overlay.Cell
}

// Row is one metric across the selected banks.
type Row struct {
	Metric model.MetricSpec `json:"metric"`
	Keys   []model.FactKey  `json:"keys"`
	Cells  []overlay.Cell   `json:"cells"`
}

// Section groups rows under a heading.
type Section struct {
	Name model.Section `json:"name"`
	Rows []Row         `json:"rows"`
}

// Table is the bank-by-metric validation table for one period and segment.
type Table struct {
	Period   string         `json:"period"`
	Segment  model.Segment  `json:"segment"`
	Currency model.Currency `json:"currency"`
	Banks    []model.Bank   `json:"banks"`
	Sections []Section      `json:"sections"`
}

var sectionOrder = []model.Section{model.SectionProfitLoss, model.SectionBalanceSheet, model.SectionKeyRatios}

// Build lays out the table. Segment views omit metrics only reported at
// group level. A nil banks slice means every covered bank.
func Build(v Viewer, period string, segment model.Segment, banks []model.Bank, ccy model.Currency) Table {
	if len(banks) == 0 {
		banks = model.AllBanks()
	}
	if segment == "" {
		segment = model.SegmentGroup
	}
	t := Table{Period: period, Segment: segment, Currency: ccy, Banks: banks}

	metrics := model.MetricsFor(segment)
	for _, name := range sectionOrder {
		sec := Section{Name: name}
		for _, m := range metrics {
			if m.Section != name {
				continue
			}
			row := Row{Metric: m}
			for _, b := range banks {
				key := identity.LogicalFactKey(b, period, m.Name, segment)
				row.Keys = append(row.Keys, key)
				row.Cells = append(row.Cells, v.Display(key, ccy))
			}
			sec.Rows = append(sec.Rows, row)
		}
		if len(sec.Rows) > 0 {
			t.Sections = append(t.Sections, sec)
		}
	}
	return t
}
