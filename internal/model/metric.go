package model

// Section groups metrics on review tables.
type Section string

const (
	SectionProfitLoss   Section = "Profit & Loss"
	SectionBalanceSheet Section = "Balance Sheet"
	SectionKeyRatios    Section = "Key Ratios"
)

// Metric names as they appear in extracted candidates.
const (
	MetricNII             = "Net Interest Income"
	MetricNonNII          = "Non-Interest Income"
	MetricFeeIncome       = "Fee Income"
	MetricTradingOther    = "Trading & Other Income"
	MetricTotalIncome     = "Total Income"
	MetricOpex            = "Operating Expenses"
	MetricOperatingProfit = "Operating Profit"
	MetricProvisions      = "Provisions"
	MetricSpecificProv    = "Specific Provisions (Stage 3)"
	MetricGeneralProv     = "General Provisions (Stage 1 & 2)"
	MetricPretaxEarnings  = "Pretax Earnings"
	MetricTotalLoans      = "Total Loans"
	MetricTotalDeposits   = "Total Deposits"
	MetricCASADeposits    = "CASA Deposits"
	MetricTimeDeposits    = "Time & Structured Deposits"
	MetricNIM             = "Net Interest Margin"
	MetricNonNIIRatio     = "Non-NII Ratio"
	MetricCostToIncome    = "Cost-to-Income Ratio"
	MetricLoanToDeposit   = "Loan-to-Deposit Ratio"
	MetricCASARatio       = "CASA Ratio"
	MetricNPLRatio        = "NPL Ratio"
)

// MetricSpec describes how a metric behaves in review and display.
type MetricSpec struct {
	Name        string  `json:"name"`
	Section     Section `json:"section"`
	Unit        Unit    `json:"unit"`
	Parent      string  `json:"parent,omitempty"`
	IsBreakdown bool    `json:"is_breakdown"` // sub-component of a total
	IsRatio     bool    `json:"is_ratio"`
	IsTotal     bool    `json:"is_total"`
	GroupOnly   bool    `json:"group_only"` // not reported for allocated segments
}

// ImplicitNAEligible reports whether a near-zero value means "not applicable".
func (m MetricSpec) ImplicitNAEligible() bool { return m.IsBreakdown || m.IsRatio }

var metricTable = []MetricSpec{
	{Name: MetricNII, Section: SectionProfitLoss, Unit: UnitMillions},
	{Name: MetricNonNII, Section: SectionProfitLoss, Unit: UnitMillions},
	{Name: MetricFeeIncome, Section: SectionProfitLoss, Unit: UnitMillions, Parent: MetricNonNII, IsBreakdown: true},
	{Name: MetricTradingOther, Section: SectionProfitLoss, Unit: UnitMillions, Parent: MetricNonNII, IsBreakdown: true},
	{Name: MetricTotalIncome, Section: SectionProfitLoss, Unit: UnitMillions, IsTotal: true},
	{Name: MetricOpex, Section: SectionProfitLoss, Unit: UnitMillions},
	{Name: MetricOperatingProfit, Section: SectionProfitLoss, Unit: UnitMillions, IsTotal: true},
	{Name: MetricProvisions, Section: SectionProfitLoss, Unit: UnitMillions},
	{Name: MetricSpecificProv, Section: SectionProfitLoss, Unit: UnitMillions, Parent: MetricProvisions, IsBreakdown: true},
	{Name: MetricGeneralProv, Section: SectionProfitLoss, Unit: UnitMillions, Parent: MetricProvisions, IsBreakdown: true},
	{Name: MetricPretaxEarnings, Section: SectionProfitLoss, Unit: UnitMillions, IsTotal: true},
	{Name: MetricTotalLoans, Section: SectionBalanceSheet, Unit: UnitMillions},
	{Name: MetricTotalDeposits, Section: SectionBalanceSheet, Unit: UnitMillions},
	{Name: MetricCASADeposits, Section: SectionBalanceSheet, Unit: UnitMillions, Parent: MetricTotalDeposits, IsBreakdown: true, GroupOnly: true},
	{Name: MetricTimeDeposits, Section: SectionBalanceSheet, Unit: UnitMillions, Parent: MetricTotalDeposits, IsBreakdown: true, GroupOnly: true},
	{Name: MetricNIM, Section: SectionKeyRatios, Unit: UnitPercent, IsRatio: true},
	{Name: MetricNonNIIRatio, Section: SectionKeyRatios, Unit: UnitPercent, IsRatio: true, GroupOnly: true},
	{Name: MetricCostToIncome, Section: SectionKeyRatios, Unit: UnitPercent, IsRatio: true},
	{Name: MetricLoanToDeposit, Section: SectionKeyRatios, Unit: UnitPercent, IsRatio: true, GroupOnly: true},
	{Name: MetricCASARatio, Section: SectionKeyRatios, Unit: UnitPercent, IsRatio: true, GroupOnly: true},
	{Name: MetricNPLRatio, Section: SectionKeyRatios, Unit: UnitPercent, IsRatio: true, GroupOnly: true},
}

var metricsByName = func() map[string]MetricSpec {
	m := make(map[string]MetricSpec, len(metricTable))
	for _, spec := range metricTable {
		m[spec.Name] = spec
	}
	return m
}()

// LookupMetric returns the spec for a metric name. Unknown metrics are
// legal in candidates; they simply carry no implicit N/A semantics.
func LookupMetric(name string) (MetricSpec, bool) {
	spec, ok := metricsByName[name]
	return spec, ok
}

// Metrics returns the metric table in review order.
func Metrics() []MetricSpec {
	out := make([]MetricSpec, len(metricTable))
	copy(out, metricTable)
	return out
}

// MetricsFor returns the metrics shown for a segment in review order.
func MetricsFor(seg Segment) []MetricSpec {
	var out []MetricSpec
	for _, spec := range metricTable {
		if spec.GroupOnly && seg != SegmentGroup {
			continue
		}
		out = append(out, spec)
	}
	return out
}
