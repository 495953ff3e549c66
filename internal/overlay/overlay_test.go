package overlay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bankfacts/internal/model"
)

var fixedNow = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

func seeded(values map[model.FactKey]float64) *Overlay {
	return New(func(k model.FactKey) (float64, bool) {
		v, ok := values[k]
		return v, ok
	}).WithNow(func() time.Time { return fixedNow })
}

func TestSetValue_SeedsFromResolved(t *testing.T) {
	t.Parallel()
	o := seeded(map[model.FactKey]float64{"k": 12450})

	out, st := o.SetValue("k", 12500)
	assert.Equal(t, Applied, out)
	assert.True(t, st.IsOverride)
	assert.False(t, st.IsValidated)
	assert.Equal(t, 12450.0, st.OriginalValue)
	assert.Equal(t, 12500.0, st.CurrentValue)
	assert.Equal(t, fixedNow, st.LastModified)
}

func TestSetValue_MissingFactSeedsZero(t *testing.T) {
	t.Parallel()
	o := New(nil)

	_, st := o.SetComment("nope", "checked")
	assert.Equal(t, 0.0, st.OriginalValue)
	assert.Equal(t, 0.0, st.CurrentValue)
	assert.Equal(t, "checked", st.Comments)
}

func TestLockLifecycle(t *testing.T) {
	t.Parallel()
	o := seeded(map[model.FactKey]float64{"k": 12450})

	o.SetValue("k", 12500)
	out, st := o.ToggleValidated("k")
	require.Equal(t, Applied, out)
	require.True(t, st.IsValidated)

	out, st = o.SetValue("k", 13000)
	assert.Equal(t, RejectedLocked, out)
	assert.Equal(t, 12500.0, st.CurrentValue)

	out, _ = o.ToggleNA("k")
	assert.Equal(t, RejectedLocked, out)
	out, _ = o.ToggleFlag("k")
	assert.Equal(t, RejectedLocked, out)

	out, st = o.SetComment("k", "ok")
	assert.Equal(t, Applied, out)
	assert.Equal(t, "ok", st.Comments)
	assert.False(t, st.IsNA)
	assert.False(t, st.IsFlagged)

	o.ToggleValidated("k")
	out, st = o.SetValue("k", 13000)
	assert.Equal(t, Applied, out)
	assert.Equal(t, 13000.0, st.CurrentValue)
	assert.Equal(t, "ok", st.Comments)
}

func TestToggleValidated_FreshStatusLocksSeed(t *testing.T) {
	t.Parallel()
	o := seeded(map[model.FactKey]float64{"k": 42})

	_, st := o.ToggleValidated("k")
	assert.True(t, st.IsValidated)
	assert.False(t, st.IsOverride)
	assert.Equal(t, 42.0, st.CurrentValue)
}

func TestToggleNA(t *testing.T) {
	t.Parallel()
	o := seeded(map[model.FactKey]float64{"k": 5})

	_, st := o.ToggleNA("k")
	assert.True(t, st.IsNA)
	assert.True(t, st.IsOverride)

	_, st = o.ToggleNA("k")
	assert.False(t, st.IsNA)
	assert.False(t, st.IsOverride)
}

func TestSetValue_ClearsNA(t *testing.T) {
	t.Parallel()
	o := seeded(nil)

	o.ToggleNA("k")
	_, st := o.SetValue("k", 7)
	assert.False(t, st.IsNA)
	assert.True(t, st.IsOverride)
}

func TestToggleFlag_AlwaysOverrides(t *testing.T) {
	t.Parallel()
	o := seeded(nil)

	_, st := o.ToggleFlag("k")
	assert.True(t, st.IsFlagged)
	assert.True(t, st.IsOverride)

	_, st = o.ToggleFlag("k")
	assert.False(t, st.IsFlagged)
	assert.True(t, st.IsOverride)
}

func TestForceEstimate_OverwritesLock(t *testing.T) {
	t.Parallel()
	o := seeded(map[model.FactKey]float64{"k": 100})

	o.SetComment("k", "needs proxy")
	o.ToggleValidated("k")
	o.ToggleFlag("k")

	st := o.ForceEstimate("k", 39250)
	assert.True(t, st.IsOverride)
	assert.False(t, st.IsValidated)
	assert.False(t, st.IsNA)
	assert.False(t, st.IsFlagged)
	assert.Equal(t, 0.0, st.OriginalValue)
	assert.Equal(t, 39250.0, st.CurrentValue)
	assert.Equal(t, "needs proxy", st.Comments)
}

func TestSetValueText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want float64
	}{
		{"12500", 12500},
		{" 1,234.5 ", 1234.5},
		{"-3", -3},
		{"abc", 0},
		{"", 0},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			o := seeded(nil)
			_, st := o.SetValueText("k", tt.raw)
			assert.Equal(t, tt.want, st.CurrentValue)
			assert.True(t, st.IsOverride)
		})
	}
}

func TestSnapshotLoadReset(t *testing.T) {
	t.Parallel()
	o := seeded(nil)
	o.SetValue("a", 1)
	o.SetValue("b", 2)

	snap := o.Snapshot()
	require.Len(t, snap, 2)

	snap["a"] = model.ValidationStatus{CurrentValue: 99}
	st, _ := o.Get("a")
	assert.Equal(t, 1.0, st.CurrentValue, "snapshot must be a copy")

	other := seeded(nil)
	other.Load(snap)
	st, ok := other.Get("a")
	require.True(t, ok)
	assert.Equal(t, 99.0, st.CurrentValue)

	other.Reset()
	assert.Equal(t, 0, other.Len())
	_, ok = other.Get("a")
	assert.False(t, ok)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "rejected_locked", RejectedLocked.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
