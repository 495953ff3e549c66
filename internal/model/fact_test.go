package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactFilter_Match(t *testing.T) {
	t.Parallel()

	c := Candidate{Bank: BankHSBC, Period: "2025 1H", Segment: SegmentGroup}

	tests := []struct {
		name   string
		filter FactFilter
		want   bool
	}{
		{"empty matches all", FactFilter{}, true},
		{"bank match", FactFilter{Bank: BankHSBC}, true},
		{"bank mismatch", FactFilter{Bank: BankBEA}, false},
		{"period mismatch", FactFilter{Period: "2024 2H"}, false},
		{"segment mismatch", FactFilter{Segment: SegmentRetail}, false},
		{"all match", FactFilter{Bank: BankHSBC, Period: "2025 1H", Segment: SegmentGroup}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.filter.Match(c))
		})
	}
}

func TestCandidate_IsEstimate(t *testing.T) {
	t.Parallel()
	assert.True(t, Candidate{Priority: PriorityEstimate}.IsEstimate())
	assert.False(t, Candidate{Priority: PriorityStatutory}.IsEstimate())
}

func TestEnumValues(t *testing.T) {
	t.Parallel()
	assert.Len(t, AllBanks(), 5)
	assert.Len(t, AllSegments(), 4)
	assert.Equal(t, "Group (Total)", string(SegmentGroup))
	assert.Equal(t, "BOC Hong Kong", string(BankBOCHK))
	assert.True(t, UnitPercent.IsPercent())
	assert.False(t, UnitMillions.IsPercent())
}
