package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
)

type fakeSource struct {
	facts    []model.Candidate
	statuses model.StatusMap
}

func (f fakeSource) GetResolvedFacts(filter model.FactFilter) []model.Candidate {
	var out []model.Candidate
	for _, c := range f.facts {
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (f fakeSource) Statuses() model.StatusMap { return f.statuses }

func fact(bank model.Bank, metric string, priority int) model.Candidate {
	c := model.Candidate{Bank: bank, Metric: metric, Period: "2025 1H", Segment: model.SegmentGroup, Priority: priority}
	identity.Stamp(&c)
	return c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		st   model.ValidationStatus
		ok   bool
		want State
	}{
		{"no status", model.ValidationStatus{}, false, StatePending},
		{"empty status", model.ValidationStatus{}, true, StatePending},
		{"override", model.ValidationStatus{IsOverride: true}, true, StateModified},
		{"na", model.ValidationStatus{IsNA: true, IsOverride: true}, true, StateNA},
		{"locked na", model.ValidationStatus{IsNA: true, IsValidated: true}, true, StateLocked},
		{"flagged locked", model.ValidationStatus{IsFlagged: true, IsValidated: true}, true, StateFlagged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.st, tt.ok))
		})
	}
}

func TestCollect(t *testing.T) {
	nii := fact(model.BankHSBC, model.MetricNII, model.PriorityStatutory)
	opex := fact(model.BankHSBC, model.MetricOpex, model.PriorityStatutory)
	loans := fact(model.BankBEA, model.MetricTotalLoans, model.PriorityEstimate)

	src := fakeSource{
		facts: []model.Candidate{nii, opex, loans},
		statuses: model.StatusMap{
			nii.Key:   {IsValidated: true},
			loans.Key: {IsOverride: true},
			"LID-gone": {IsFlagged: true},
		},
	}

	snap := Collect(src, model.FactFilter{})
	assert.Equal(t, Counts{Facts: 3, Pending: 1, Modified: 1, Locked: 1, Estimates: 1}, snap.Total)
	assert.Equal(t, 1, snap.Orphans)
	assert.False(t, snap.CollectedAt.IsZero())

	require.Len(t, snap.Banks, 2)
	assert.Equal(t, model.BankHSBC, snap.Banks[0].Bank)
	assert.Equal(t, 2, snap.Banks[0].Facts)
	assert.InDelta(t, 0.5, snap.Banks[0].Completion(), 1e-9)
	assert.Equal(t, 1, snap.Banks[1].Estimates)

	filtered := Collect(src, model.FactFilter{Bank: model.BankBEA})
	assert.Equal(t, 1, filtered.Total.Facts)
	assert.Zero(t, filtered.Orphans)
}

func TestCompletion_Empty(t *testing.T) {
	assert.Zero(t, Counts{}.Completion())
}
