// Package monitoring summarizes how far review has progressed.
package monitoring

import (
	"time"

	"github.com/sells-group/bankfacts/internal/model"
)

// State is the review state of one resolved fact.
type State string

const (
	StatePending  State = "pending"
	StateModified State = "modified"
	StateNA       State = "n/a"
	StateLocked   State = "locked"
	StateFlagged  State = "flagged"
)

// Classify reduces a status to one state. Flags win over locks, locks over
// N/A, and N/A over plain overrides.
func Classify(st model.ValidationStatus, ok bool) State {
	switch {
	case !ok:
		return StatePending
	case st.IsFlagged:
		return StateFlagged
	case st.IsValidated:
		return StateLocked
	case st.IsNA:
		return StateNA
	case st.IsOverride:
		return StateModified
	default:
		return StatePending
	}
}

// Source is the read side of the engine.
type Source interface {
	GetResolvedFacts(filter model.FactFilter) []model.Candidate
	Statuses() model.StatusMap
}

// Counts tallies facts by review state.
type Counts struct {
	Facts     int `json:"facts"`
	Pending   int `json:"pending"`
	Modified  int `json:"modified"`
	NA        int `json:"na"`
	Locked    int `json:"locked"`
	Flagged   int `json:"flagged"`
	Estimates int `json:"estimates"`
}

func (c *Counts) add(s State, estimate bool) {
	c.Facts++
	switch s {
	case StatePending:
		c.Pending++
	case StateModified:
		c.Modified++
	case StateNA:
		c.NA++
	case StateLocked:
		c.Locked++
	case StateFlagged:
		c.Flagged++
	}
	if estimate {
		c.Estimates++
	}
}

// Completion is the locked share of facts, 0 to 1.
func (c Counts) Completion() float64 {
	if c.Facts == 0 {
		return 0
	}
	return float64(c.Locked) / float64(c.Facts)
}

// BankProgress is the tally for one bank.
type BankProgress struct {
	Bank model.Bank `json:"bank"`
	Counts
}

// Snapshot is a point-in-time view of review progress.
type Snapshot struct {
	Total Counts         `json:"total"`
	Banks []BankProgress `json:"banks"`

	// Orphans are statuses whose fact has no candidate, e.g. after a
	// reset of candidates only or an import from another workspace.
	Orphans     int       `json:"orphans"`
	CollectedAt time.Time `json:"collected_at"`
}

// Collect tallies every resolved fact matching filter. Banks appear in
// first-seen order.
func Collect(src Source, filter model.FactFilter) Snapshot {
	snap := Snapshot{CollectedAt: time.Now().UTC()}
	statuses := src.Statuses()

	byBank := make(map[model.Bank]int)
	seen := make(map[model.FactKey]bool)
	for _, c := range src.GetResolvedFacts(filter) {
		seen[c.Key] = true
		st, ok := statuses[c.Key]
		state := Classify(st, ok)

		i, found := byBank[c.Bank]
		if !found {
			i = len(snap.Banks)
			byBank[c.Bank] = i
			snap.Banks = append(snap.Banks, BankProgress{Bank: c.Bank})
		}
		snap.Banks[i].add(state, c.IsEstimate())
		snap.Total.add(state, c.IsEstimate())
	}

	for k := range statuses {
		if !seen[k] && filter == (model.FactFilter{}) {
			snap.Orphans++
		}
	}
	return snap
}
