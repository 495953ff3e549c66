package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bankfacts/internal/model"
)

func assetModel() AllocationModel {
	return AllocationModel{
		Basis:      BasisAssets,
		Personal:   200000,
		Wholesale:  147833,
		Wealth:     16480,
		TotalHK:    551323,
		GroupTotal: 534321,
	}
}

func TestAllocationModel_Ratio(t *testing.T) {
	t.Parallel()
	m := assetModel()
	assert.InDelta(t, 66.08, m.ComputedRatio(), 0.01)
	assert.Equal(t, m.ComputedRatio(), m.Ratio())

	override := 70.0
	m.RatioOverride = &override
	assert.Equal(t, 70.0, m.Ratio())
	assert.Equal(t, 374025.0, m.Estimate())
}

func TestAllocationModel_ZeroTotal(t *testing.T) {
	t.Parallel()
	m := AllocationModel{Personal: 10, GroupTotal: 100}
	assert.Equal(t, 0.0, m.Ratio())
	assert.Equal(t, 0.0, m.Estimate())
}

func TestAllocationModel_EstimateRoundsHalvesUp(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		m    AllocationModel
		want float64
	}{
		{"one sixth of 12345", AllocationModel{Personal: 1, TotalHK: 6, GroupTotal: 12345}, 2058},
		{"one fourteenth of 1001", AllocationModel{Personal: 1, TotalHK: 14, GroupTotal: 1001}, 72},
		{"below half", AllocationModel{Personal: 1, TotalHK: 3, GroupTotal: 10}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Estimate())
		})
	}

	override := 12.5
	m := AllocationModel{GroupTotal: 4, RatioOverride: &override}
	assert.Equal(t, 1.0, m.Estimate())
}

func TestAllocationModel_Candidates(t *testing.T) {
	t.Parallel()
	m := AllocationModel{Basis: BasisLiabilities, Personal: 50, TotalHK: 100, GroupTotal: 665226}

	cs, err := m.Candidates(model.BankBEA, model.CurrencyHKD, []string{"2024-H1", "2023-H2"})
	require.NoError(t, err)
	require.Len(t, cs, 2)

	c := cs[0]
	assert.Equal(t, model.MetricTotalDeposits, c.Metric)
	assert.Equal(t, 332613.0, c.Value)
	assert.Equal(t, 2024, c.Year)
	assert.Equal(t, model.PriorityEstimate, c.Priority)
	assert.Equal(t, model.SegmentGroup, c.Segment)
	assert.Equal(t, "Internal Estimate: HK Liability Proxy (Period: 2024-H1)", c.SourceDoc)
	assert.Equal(t, "Est: 332613", c.RawSnippet)
	require.Len(t, c.Trace, 1)
	assert.Equal(t, model.SeverityWarning, c.Trace[0].Severity)
	assert.Contains(t, c.Trace[0].Description, "Ratio: 50.00%")
	assert.Contains(t, c.Trace[0].Description, "665,226")
	assert.Equal(t, 2023, cs[1].Year)
}

func TestAllocationModel_CandidatesErrors(t *testing.T) {
	t.Parallel()
	_, err := assetModel().Candidates(model.BankBEA, model.CurrencyHKD, nil)
	require.Error(t, err)

	_, err = assetModel().Candidates(model.BankBEA, model.CurrencyHKD, []string{"H1"})
	require.Error(t, err)

	bad := assetModel()
	bad.Basis = "equity"
	_, err = bad.Candidates(model.BankBEA, model.CurrencyHKD, []string{"2024-H1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown allocation basis")
}
