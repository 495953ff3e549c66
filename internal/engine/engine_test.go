package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
	"github.com/sells-group/bankfacts/internal/store"
)

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) LoadStatuses(ctx context.Context) (model.StatusMap, error) {
	args := m.Called(ctx)
	sm, _ := args.Get(0).(model.StatusMap)
	return sm, args.Error(1)
}

func (m *mockStore) SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error {
	return m.Called(ctx, key, st).Error(0)
}

func (m *mockStore) SaveStatuses(ctx context.Context, sm model.StatusMap) error {
	return m.Called(ctx, sm).Error(0)
}

func (m *mockStore) DeleteAllStatuses(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) SaveCandidates(ctx context.Context, cs []model.Candidate) error {
	return m.Called(ctx, cs).Error(0)
}

func (m *mockStore) LoadCandidates(ctx context.Context) ([]model.Candidate, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]model.Candidate)
	return cs, args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockStore) Close() error { return m.Called().Error(0) }

var fixedNow = time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	e.Overlay().WithNow(func() time.Time { return fixedNow })
	return e
}

func cand(bank model.Bank, metric, doc string, prio int, v float64) model.Candidate {
	c := model.Candidate{
		Bank: bank, Period: "2025 1H", Metric: metric, Segment: model.SegmentGroup,
		SourceDoc: doc, Priority: prio, Value: v,
		Unit: model.UnitMillions, Currency: model.CurrencyHKD,
	}
	if spec, ok := model.LookupMetric(metric); ok && spec.Unit.IsPercent() {
		c.Unit, c.Currency = model.UnitPercent, ""
	}
	identity.Stamp(&c)
	return c
}

func TestScenarioA_LowestRankWins(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()

	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{
		cand(model.BankHSBC, model.MetricNII, "presentation", 3, 12500),
		cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450),
		cand(model.BankHSBC, model.MetricNII, "pack", 2, 12440),
	}))

	facts := e.GetResolvedFacts(model.FactFilter{Bank: model.BankHSBC})
	require.Len(t, facts, 1)
	assert.Equal(t, 12450.0, facts[0].Value)
	assert.Equal(t, "interim", facts[0].SourceDoc)
}

func TestScenarioB_EstimateForcedThroughOverlay(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	base := cand(model.BankBEA, model.MetricTotalLoans, "interim", 1, 46854)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{base}))

	keys, err := e.SaveEstimate(ctx, []model.Candidate{cand(model.BankBEA, model.MetricTotalLoans, "Internal Estimate: HK Asset Proxy (Period: 2025 1H)", 4, 39250)})
	require.NoError(t, err)
	assert.Equal(t, []model.FactKey{base.Key}, keys)

	resolved, ok := e.Resolved(base.Key)
	require.True(t, ok)
	assert.Equal(t, 46854.0, resolved.Value, "rank 1 still wins the waterfall")

	v, ok := e.EffectiveValue(base.Key)
	require.True(t, ok)
	assert.Equal(t, 39250.0, v)

	cell := e.Display(base.Key, model.CurrencyHKD)
	assert.Equal(t, overlay.CellValue, cell.State)
	assert.Equal(t, 39250.0, cell.Value)
}

func TestScenarioC_NAThenValue(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	c := cand(model.BankHSBC, model.MetricFeeIncome, "interim", 1, 3100)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))

	_, st, err := e.ToggleNA(ctx, c.Key)
	require.NoError(t, err)
	assert.True(t, st.IsNA)

	_, st, err = e.SetValue(ctx, c.Key, 3200)
	require.NoError(t, err)
	assert.False(t, st.IsNA)
	assert.True(t, st.IsOverride)
	assert.Equal(t, 3100.0, st.OriginalValue)
}

func TestScenarioD_LockBlocksEdits(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	c := cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))

	_, _, err := e.ToggleValidated(ctx, c.Key)
	require.NoError(t, err)

	out, st, err := e.SetValue(ctx, c.Key, 13000)
	require.NoError(t, err)
	assert.Equal(t, overlay.RejectedLocked, out)
	assert.Equal(t, 12450.0, st.CurrentValue)

	_, _, err = e.ToggleValidated(ctx, c.Key)
	require.NoError(t, err)
	out, st, err = e.SetValue(ctx, c.Key, 13000)
	require.NoError(t, err)
	assert.Equal(t, overlay.Applied, out)
	assert.Equal(t, 13000.0, st.CurrentValue)
}

func TestGetResolvedFacts_RecomputesAfterIngest(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()

	assert.Empty(t, e.GetResolvedFacts(model.FactFilter{}))
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{cand(model.BankHSBC, model.MetricNII, "pres", 3, 1)}))
	assert.Equal(t, 1.0, e.GetResolvedFacts(model.FactFilter{})[0].Value)

	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{cand(model.BankHSBC, model.MetricNII, "interim", 1, 2)}))
	assert.Equal(t, 2.0, e.GetResolvedFacts(model.FactFilter{})[0].Value)

	assert.Empty(t, e.GetResolvedFacts(model.FactFilter{Bank: model.BankBEA}))
}

func TestIngestCandidates_RejectsUnstamped(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	err := e.IngestCandidates(context.Background(), []model.Candidate{{Metric: model.MetricNII}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not stamped")
}

func TestMutations_PersistOnlyWhenApplied(t *testing.T) {
	t.Parallel()
	ms := new(mockStore)
	e := newEngine(t, WithStore(ms))
	ctx := context.Background()
	c := cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450)

	ms.On("SaveCandidates", ctx, mock.Anything).Return(nil).Once()
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))

	ms.On("SaveStatus", ctx, c.Key, mock.MatchedBy(func(st model.ValidationStatus) bool {
		return st.IsValidated
	})).Return(nil).Once()
	_, _, err := e.ToggleValidated(ctx, c.Key)
	require.NoError(t, err)

	out, _, err := e.SetValue(ctx, c.Key, 1)
	require.NoError(t, err)
	assert.Equal(t, overlay.RejectedLocked, out)

	ms.AssertExpectations(t)
	ms.AssertNumberOfCalls(t, "SaveStatus", 1)
}

func TestMutations_PersistFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()
	ms := new(mockStore)
	e := newEngine(t, WithStore(ms))
	ctx := context.Background()

	ms.On("SaveStatus", ctx, model.FactKey("LID-x"), mock.Anything).Return(errors.New("disk full"))

	out, _, err := e.SetComment(ctx, "LID-x", "check note 4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist status")
	assert.Equal(t, overlay.Applied, out)

	st, ok := e.GetValidationStatus("LID-x")
	require.True(t, ok)
	assert.Equal(t, "check note 4", st.Comments)
}

func TestOpen_LoadsPersistedState(t *testing.T) {
	t.Parallel()
	ms := new(mockStore)
	c := cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450)
	ctx := context.Background()

	ms.On("LoadCandidates", ctx).Return([]model.Candidate{c}, nil)
	ms.On("LoadStatuses", ctx).Return(model.StatusMap{c.Key: {IsValidated: true, CurrentValue: 12450}}, nil)

	e := newEngine(t, WithStore(ms))
	require.NoError(t, e.Open(ctx))

	assert.Len(t, e.GetResolvedFacts(model.FactFilter{}), 1)
	st, ok := e.GetValidationStatus(c.Key)
	require.True(t, ok)
	assert.True(t, st.IsValidated)
}

func TestOpen_StoreError(t *testing.T) {
	t.Parallel()
	ms := new(mockStore)
	ctx := context.Background()
	ms.On("LoadCandidates", ctx).Return(nil, errors.New("locked"))

	err := newEngine(t, WithStore(ms)).Open(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine: open")
}

func TestSaveEstimate_Persists(t *testing.T) {
	t.Parallel()
	ms := new(mockStore)
	e := newEngine(t, WithStore(ms))
	ctx := context.Background()
	est := cand(model.BankBEA, model.MetricTotalDeposits, "Internal Estimate: HK Liability Proxy (Period: 2025 1H)", 4, 451000)

	ms.On("SaveCandidates", ctx, mock.MatchedBy(func(cs []model.Candidate) bool { return len(cs) == 1 })).Return(nil)
	ms.On("SaveStatuses", ctx, mock.MatchedBy(func(sm model.StatusMap) bool {
		st, ok := sm[est.Key]
		return ok && st.IsOverride && st.CurrentValue == 451000
	})).Return(nil)

	_, err := e.SaveEstimate(ctx, []model.Candidate{est})
	require.NoError(t, err)
	ms.AssertExpectations(t)
}

func TestReset(t *testing.T) {
	t.Parallel()
	ms := new(mockStore)
	e := newEngine(t, WithStore(ms))
	ctx := context.Background()
	c := cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450)

	ms.On("SaveCandidates", ctx, mock.Anything).Return(nil)
	ms.On("SaveStatus", ctx, mock.Anything, mock.Anything).Return(nil)
	ms.On("DeleteAllStatuses", ctx).Return(nil)

	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))
	_, _, err := e.ToggleFlag(ctx, c.Key)
	require.NoError(t, err)

	require.NoError(t, e.Reset(ctx))
	assert.Empty(t, e.GetResolvedFacts(model.FactFilter{}))
	assert.Empty(t, e.Statuses())
	ms.AssertCalled(t, "DeleteAllStatuses", ctx)
	ms.AssertCalled(t, "SaveCandidates", ctx, []model.Candidate(nil))
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()

	var events []Event
	unsubscribe := e.Subscribe(func(ev Event) { events = append(events, ev) })

	c := cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))
	_, _, err := e.ToggleValidated(ctx, c.Key)
	require.NoError(t, err)
	_, _, err = e.ToggleNA(ctx, c.Key)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, EventIngest, events[0].Kind)
	assert.Equal(t, []model.FactKey{c.Key}, events[0].Keys)
	assert.Equal(t, overlay.OpToggleNA, events[2].Op)
	assert.Equal(t, overlay.RejectedLocked, events[2].Outcome)

	unsubscribe()
	require.NoError(t, e.Reset(ctx))
	assert.Len(t, events, 3)
}

func TestAudit(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	pres := cand(model.BankHSBC, model.MetricNII, "presentation", 3, 12500)
	rep := cand(model.BankHSBC, model.MetricNII, "interim", 1, 12450)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{pres, rep}))

	a := e.Audit(rep.Key)
	assert.True(t, a.Resolved)
	require.Len(t, a.Attempts, 2)
	assert.Equal(t, rep.ID, a.Winner.ID)
	assert.True(t, a.Attempts[0].Winner)
	assert.Equal(t, 12450.0, a.Effective)
	assert.Nil(t, a.Status)
	assert.NotEmpty(t, a.Rules)

	_, _, err := e.SetValue(ctx, rep.Key, 12460)
	require.NoError(t, err)
	a = e.Audit(rep.Key)
	require.NotNil(t, a.Status)
	assert.Equal(t, 12460.0, a.Effective)

	missing := e.Audit("LID-none")
	assert.False(t, missing.Resolved)
	assert.Empty(t, missing.Attempts)
}

func TestDisplay(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	c := cand(model.BankHSBC, model.MetricTotalLoans, "interim", 1, 7820)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))

	assert.Equal(t, overlay.CellMissing, e.Display("LID-none", model.CurrencyHKD).State)
	assert.Equal(t, overlay.CellPending, e.Display(c.Key, model.CurrencyHKD).State)

	_, _, err := e.ToggleValidated(ctx, c.Key)
	require.NoError(t, err)
	cell := e.Display(c.Key, model.CurrencyUSD)
	assert.Equal(t, overlay.CellValue, cell.State)
	assert.InDelta(t, 1000, cell.Value, 1e-9)
}

func TestSetValueIn_ConvertsToStorageCurrency(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	c := cand(model.BankHSBC, model.MetricTotalLoans, "interim", 1, 7820)
	require.NoError(t, e.IngestCandidates(ctx, []model.Candidate{c}))

	_, st, err := e.SetValueIn(ctx, c.Key, 1000, model.CurrencyUSD)
	require.NoError(t, err)
	assert.InDelta(t, 7820, st.CurrentValue, 1e-9)
}

func TestImportStatuses(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	ctx := context.Background()
	_, _, err := e.SetComment(ctx, "LID-a", "keep")
	require.NoError(t, err)

	require.NoError(t, e.ImportStatuses(ctx, model.StatusMap{"LID-b": {IsNA: true, IsOverride: true}}))
	all := e.Statuses()
	assert.Len(t, all, 2)
	assert.True(t, all["LID-b"].IsNA)
	assert.Equal(t, "keep", all["LID-a"].Comments)
}
