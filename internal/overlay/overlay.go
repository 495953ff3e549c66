// Package overlay layers reviewer edits, locks, flags, and comments on top of
// resolved facts without touching the underlying candidates.
package overlay

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/model"
)

// Outcome reports whether a mutation took effect.
type Outcome int

const (
	Applied Outcome = iota
	RejectedLocked
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RejectedLocked:
		return "rejected_locked"
	default:
		return "unknown"
	}
}

// Op names an overlay mutation.
type Op string

const (
	OpSetValue        Op = "set_value"
	OpSetComment      Op = "set_comment"
	OpToggleValidated Op = "toggle_validated"
	OpToggleNA        Op = "toggle_na"
	OpToggleFlag      Op = "toggle_flag"
	OpForceEstimate   Op = "force_estimate"
)

// Seeder returns the resolved candidate's raw value for a fact, if any.
type Seeder func(key model.FactKey) (float64, bool)

// Overlay is the keyed side-table of validation statuses. A key without a
// status means "resolved raw value, unreviewed, unlocked".
type Overlay struct {
	mu       sync.Mutex
	statuses map[model.FactKey]model.ValidationStatus
	seed     Seeder
	now      func() time.Time
}

// New creates an empty overlay. A nil seeder seeds every status with 0.
func New(seed Seeder) *Overlay {
	if seed == nil {
		seed = func(model.FactKey) (float64, bool) { return 0, false }
	}
	return &Overlay{
		statuses: make(map[model.FactKey]model.ValidationStatus),
		seed:     seed,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow sets a fixed clock for testing.
func (o *Overlay) WithNow(now func() time.Time) *Overlay {
	o.now = now
	return o
}

// current returns the existing status or a fresh one seeded from the
// resolved value. Callers hold o.mu.
func (o *Overlay) current(key model.FactKey) model.ValidationStatus {
	if st, ok := o.statuses[key]; ok {
		return st
	}
	v, _ := o.seed(key)
	return model.ValidationStatus{OriginalValue: v, CurrentValue: v}
}

func (o *Overlay) locked(key model.FactKey) bool {
	st, ok := o.statuses[key]
	return ok && st.IsValidated
}

func (o *Overlay) reject(key model.FactKey, op Op) (Outcome, model.ValidationStatus) {
	zap.L().Debug("overlay: mutation rejected, fact is locked",
		zap.String("key", string(key)),
		zap.String("op", string(op)),
	)
	return RejectedLocked, o.statuses[key]
}

func (o *Overlay) commit(key model.FactKey, st model.ValidationStatus) (Outcome, model.ValidationStatus) {
	st.LastModified = o.now()
	o.statuses[key] = st
	return Applied, st
}

// SetValue overrides the effective value. No-op while locked; clears N/A.
func (o *Overlay) SetValue(key model.FactKey, v float64) (Outcome, model.ValidationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.locked(key) {
		return o.reject(key, OpSetValue)
	}
	st := o.current(key)
	st.CurrentValue = v
	st.IsOverride = true
	st.IsNA = false
	return o.commit(key, st)
}

// SetValueText is SetValue for free-text input. Anything that does not parse
// as a finite number is stored as 0; the resolved value stays recoverable
// from the candidate audit trail.
func (o *Overlay) SetValueText(key model.FactKey, raw string) (Outcome, model.ValidationStatus) {
	return o.SetValue(key, ParseValue(raw))
}

// ParseValue leniently parses a reviewer-entered number.
func ParseValue(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SetComment is always permitted, including while locked.
func (o *Overlay) SetComment(key model.FactKey, text string) (Outcome, model.ValidationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.current(key)
	st.Comments = text
	return o.commit(key, st)
}

// ToggleValidated flips the lock. It is the only mutation allowed while locked.
func (o *Overlay) ToggleValidated(key model.FactKey) (Outcome, model.ValidationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.current(key)
	st.IsValidated = !st.IsValidated
	return o.commit(key, st)
}

// ToggleNA flips not-applicable. Setting N/A counts as an override; clearing
// it clears the override too, even if a value edit preceded it.
func (o *Overlay) ToggleNA(key model.FactKey) (Outcome, model.ValidationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.locked(key) {
		return o.reject(key, OpToggleNA)
	}
	st := o.current(key)
	st.IsNA = !st.IsNA
	st.IsOverride = st.IsNA
	return o.commit(key, st)
}

// ToggleFlag flips the exclusion flag. Any flag change counts as an override.
func (o *Overlay) ToggleFlag(key model.FactKey) (Outcome, model.ValidationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.locked(key) {
		return o.reject(key, OpToggleFlag)
	}
	st := o.current(key)
	st.IsFlagged = !st.IsFlagged
	st.IsOverride = true
	return o.commit(key, st)
}

// ForceEstimate activates a modelled value regardless of waterfall rank.
// It overwrites any existing status, lock included; a reviewer comment is
// carried over.
func (o *Overlay) ForceEstimate(key model.FactKey, v float64) model.ValidationStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.statuses[key]
	_, st := o.commit(key, model.ValidationStatus{
		IsOverride:   true,
		CurrentValue: v,
		Comments:     prev.Comments,
	})
	return st
}

// Get returns the status for key, if one exists.
func (o *Overlay) Get(key model.FactKey) (model.ValidationStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.statuses[key]
	return st, ok
}

// Snapshot copies the whole overlay.
func (o *Overlay) Snapshot() model.StatusMap {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(model.StatusMap, len(o.statuses))
	for k, v := range o.statuses {
		out[k] = v
	}
	return out
}

// Load replaces the overlay contents, e.g. from persisted state.
func (o *Overlay) Load(m model.StatusMap) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = make(map[model.FactKey]model.ValidationStatus, len(m))
	for k, v := range m {
		o.statuses[k] = v
	}
}

// Len returns the number of reviewed facts.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.statuses)
}

// Reset discards every status.
func (o *Overlay) Reset() {
	o.Load(nil)
}
