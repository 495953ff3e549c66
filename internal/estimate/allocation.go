package estimate

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/bankfacts/internal/model"
)

// Basis selects which balance-sheet side an allocation proxies.
type Basis string

const (
	BasisAssets      Basis = "assets"      // allocates group loans
	BasisLiabilities Basis = "liabilities" // allocates group deposits
)

// estimatePage is the segment-reporting note page the proxy inputs come from.
const estimatePage = 32

// AllocationModel estimates a Hong Kong figure by applying the share of
// in-scope HK segments to a group total.
type AllocationModel struct {
	Basis      Basis   `json:"basis" yaml:"basis"`
	Personal   float64 `json:"personal" yaml:"personal"`
	Wholesale  float64 `json:"wholesale" yaml:"wholesale"`
	Wealth     float64 `json:"wealth" yaml:"wealth"`
	TotalHK    float64 `json:"total_hk" yaml:"total_hk"`
	GroupTotal float64 `json:"group_total" yaml:"group_total"`

	// RatioOverride replaces the computed ratio when set. Percent.
	RatioOverride *float64 `json:"ratio_override,omitempty" yaml:"ratio_override,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (m AllocationModel) inScope() decimal.Decimal {
	return decimal.NewFromFloat(m.Personal).
		Add(decimal.NewFromFloat(m.Wholesale)).
		Add(decimal.NewFromFloat(m.Wealth))
}

// ComputedRatio is the in-scope share of the HK total, in percent.
func (m AllocationModel) ComputedRatio() float64 {
	if m.TotalHK <= 0 {
		return 0
	}
	f, _ := m.inScope().Mul(hundred).Div(decimal.NewFromFloat(m.TotalHK)).Float64()
	return f
}

// Ratio is the percent applied to the group total.
func (m AllocationModel) Ratio() float64 {
	if m.RatioOverride != nil {
		return *m.RatioOverride
	}
	return m.ComputedRatio()
}

// Estimate is the modelled value, rounded half away from zero to whole
// units. The computed share is applied without an intermediate percent so
// exact halves round as written.
func (m AllocationModel) Estimate() float64 {
	group := decimal.NewFromFloat(m.GroupTotal)
	var est decimal.Decimal
	switch {
	case m.RatioOverride != nil:
		est = group.Mul(decimal.NewFromFloat(*m.RatioOverride)).Div(hundred)
	case m.TotalHK <= 0:
		return 0
	default:
		est = group.Mul(m.inScope()).Div(decimal.NewFromFloat(m.TotalHK))
	}
	f, _ := est.Round(0).Float64()
	return f
}

func (m AllocationModel) metric() (string, string, string, error) {
	switch m.Basis {
	case BasisAssets, "":
		return model.MetricTotalLoans, "HK Asset Proxy", "Assets", nil
	case BasisLiabilities:
		return model.MetricTotalDeposits, "HK Liability Proxy", "Liabilities", nil
	default:
		return "", "", "", eris.Errorf("estimate: unknown allocation basis %q", m.Basis)
	}
}

// Candidates builds one estimate candidate per period. Periods are expected
// to start with a four-digit year, e.g. "2024-H1".
func (m AllocationModel) Candidates(bank model.Bank, currency model.Currency, periods []string) ([]model.Candidate, error) {
	if len(periods) == 0 {
		return nil, eris.New("estimate: at least one period is required")
	}
	metric, label, side, err := m.metric()
	if err != nil {
		return nil, err
	}

	p := message.NewPrinter(language.English)
	value := m.Estimate()
	step := model.NormalizationStep{
		Name: "Allocation Logic (" + side + ")",
		Description: p.Sprintf("Ratio: %.2f%%. Formula: (Personal+Wholesale+Wealth %s) / Total HK %s. Applied to Group %s (%.0f).",
			m.Ratio(), side, side, groupNoun(metric), m.GroupTotal),
		Severity: model.SeverityWarning,
	}

	out := make([]model.Candidate, 0, len(periods))
	for _, period := range periods {
		year, err := periodYear(period)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Candidate{
			Metric:            metric,
			Value:             value,
			Unit:              model.UnitMillions,
			Currency:          currency,
			Period:            period,
			Year:              year,
			Frequency:         model.FrequencySemiAnnual,
			Bank:              bank,
			SourceDoc:         "Internal Estimate: " + label + " (Period: " + period + ")",
			Priority:          model.PriorityEstimate,
			Page:              estimatePage,
			ExtractionContext: "Calculated via allocation model (" + label + ")",
			Segment:           model.SegmentGroup,
			RawSnippet:        "Est: " + strconv.FormatFloat(value, 'f', 0, 64),
			Trace:             []model.NormalizationStep{step},
		})
	}
	return out, nil
}

func groupNoun(metric string) string {
	if metric == model.MetricTotalDeposits {
		return "Deposits"
	}
	return "Loans"
}

func periodYear(period string) (int, error) {
	if len(period) < 4 {
		return 0, eris.Errorf("estimate: period %q has no year", period)
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil {
		return 0, eris.Wrapf(err, "estimate: period %q has no year", period)
	}
	return year, nil
}
