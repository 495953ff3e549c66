package overlay

import (
	"math"

	"github.com/sells-group/bankfacts/internal/fx"
	"github.com/sells-group/bankfacts/internal/model"
)

// ImplicitNAThreshold is the magnitude below which breakdown and ratio
// metrics display as N/A.
const ImplicitNAThreshold = 1e-4

// CellState is what a review cell shows.
type CellState string

const (
	CellMissing CellState = "missing" // no resolved fact
	CellHidden  CellState = "hidden"  // flagged, excluded from view
	CellPending CellState = "pending" // not yet validated or overridden
	CellNA      CellState = "na"
	CellValue   CellState = "value"
)

// Tone is the review-table styling hint.
type Tone string

const (
	TonePlain    Tone = "plain"
	ToneLocked   Tone = "locked"
	ToneModified Tone = "modified"
	ToneFlagged  Tone = "flagged"
)

// Cell is the display decision for one fact.
type Cell struct {
	State    CellState      `json:"state"`
	Value    float64        `json:"value"`
	Unit     model.Unit     `json:"unit"`
	Currency model.Currency `json:"currency,omitempty"`
	Tone     Tone           `json:"tone"`
}

// Label renders the non-numeric states the way review tables show them.
func (c Cell) Label() string {
	switch c.State {
	case CellHidden, CellMissing:
		return "-"
	case CellPending:
		return "Pending"
	case CellNA:
		return "N/A"
	default:
		return ""
	}
}

// Display applies the presentation precedence to a resolved fact:
// flagged hides, then unreviewed facts are pending, then explicit or
// implicit N/A, then the effective value converted to target currency.
func Display(st *model.ValidationStatus, fact *model.Candidate, target model.Currency, rates fx.Config) Cell {
	if fact == nil {
		return Cell{State: CellMissing, Tone: TonePlain}
	}
	cell := Cell{Unit: fact.Unit, Currency: fact.Currency, Tone: toneFor(st)}

	if st != nil && st.IsFlagged {
		cell.State = CellHidden
		return cell
	}
	if st == nil || !(st.IsValidated || st.IsOverride) {
		if st != nil && st.IsNA {
			cell.State = CellNA
		} else {
			cell.State = CellPending
		}
		return cell
	}

	spec, _ := model.LookupMetric(fact.Metric)
	if st.IsNA || (spec.ImplicitNAEligible() && math.Abs(st.CurrentValue) < ImplicitNAThreshold) {
		cell.State = CellNA
		return cell
	}

	cell.State = CellValue
	cell.Value = st.CurrentValue
	if v, ok := rates.Convert(st.CurrentValue, fact.Unit, fact.Currency, target); ok {
		cell.Value = v
		if !fact.Unit.IsPercent() && target != "" {
			cell.Currency = target
		}
	}
	return cell
}

func toneFor(st *model.ValidationStatus) Tone {
	switch {
	case st == nil:
		return TonePlain
	case st.IsValidated:
		return ToneLocked
	case st.IsFlagged:
		return ToneFlagged
	case st.IsOverride:
		return ToneModified
	default:
		return TonePlain
	}
}
