package model

// Bank identifies a reporting institution.
type Bank string

const (
	BankHSBC     Bank = "HSBC (Hong Kong)"
	BankBEA      Bank = "Bank of East Asia (HK)"
	BankSCHK     Bank = "Standard Chartered HK"
	BankBOCHK    Bank = "BOC Hong Kong"
	BankHangSeng Bank = "Hang Seng Bank"
)

// AllBanks returns the covered banks in display order.
func AllBanks() []Bank {
	return []Bank{BankHSBC, BankBEA, BankSCHK, BankBOCHK, BankHangSeng}
}

// Segment is the standardized reporting segment a figure belongs to.
type Segment string

const (
	SegmentGroup     Segment = "Group (Total)"
	SegmentRetail    Segment = "Retail & Wealth"
	SegmentCorporate Segment = "Corporate & Commercial"
	SegmentMarkets   Segment = "Global Markets / Treasury"
)

// AllSegments returns the standardized segments in display order.
func AllSegments() []Segment {
	return []Segment{SegmentGroup, SegmentRetail, SegmentCorporate, SegmentMarkets}
}

// Frequency is the reporting cadence of a period.
type Frequency string

const (
	FrequencyQuarterly  Frequency = "Quarterly"
	FrequencySemiAnnual Frequency = "Semi-Annual"
	FrequencyAnnual     Frequency = "Annual"
)

// Currency is an ISO currency code.
type Currency string

const (
	CurrencyHKD Currency = "HKD"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// Unit distinguishes currency amounts from percentages.
type Unit string

const (
	UnitMillions Unit = "m"
	UnitPercent  Unit = "%"
)

// IsPercent reports whether values in this unit are ratios.
func (u Unit) IsPercent() bool { return u == UnitPercent }

// Priority ranks document types. Lower is more authoritative.
const (
	PriorityStatutory = 1
	PriorityDataPack  = 2
	PriorityOther     = 3
	PriorityEstimate  = 4
)

// FactKey is the content-addressed identifier of a logical fact
// (bank, period, metric, segment).
type FactKey string

// FactFilter narrows resolved facts. Zero-valued fields match everything.
type FactFilter struct {
	Bank    Bank    `json:"bank,omitempty"`
	Period  string  `json:"period,omitempty"`
	Segment Segment `json:"segment,omitempty"`
}

// Match reports whether c satisfies the filter.
func (f FactFilter) Match(c Candidate) bool {
	if f.Bank != "" && c.Bank != f.Bank {
		return false
	}
	if f.Period != "" && c.Period != f.Period {
		return false
	}
	if f.Segment != "" && c.Segment != f.Segment {
		return false
	}
	return true
}
