package engine

import (
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
	"github.com/sells-group/bankfacts/internal/waterfall"
)

// Audit is the full provenance of one fact: every competing candidate, the
// winner, and the reviewer overlay on top.
type Audit struct {
	waterfall.Resolution
	Status    *model.ValidationStatus `json:"status,omitempty"`
	Effective float64                 `json:"effective_value"`
	Rules     []waterfall.Rule        `json:"rules,omitempty"`
}

// Audit explains how key resolved and what the reviewer did with it.
func (e *Engine) Audit(key model.FactKey) Audit {
	a := Audit{Resolution: waterfall.Explain(e.candidates.All(), key)}
	if a.Winner != nil {
		a.Effective = a.Winner.Value
		a.Rules = e.rules.Rules(a.Winner.Bank)
	}
	if st, ok := e.overlay.Get(key); ok {
		a.Status = &st
		a.Effective = st.CurrentValue
	}
	return a
}

// EffectiveValue is the value a reviewer sees: the overlay's current value
// when a status exists, otherwise the resolved candidate's value.
func (e *Engine) EffectiveValue(key model.FactKey) (float64, bool) {
	if st, ok := e.overlay.Get(key); ok {
		return st.CurrentValue, true
	}
	c, ok := e.Resolved(key)
	return c.Value, ok
}

// Display decides how a fact renders in the target currency.
func (e *Engine) Display(key model.FactKey, target model.Currency) overlay.Cell {
	var fact *model.Candidate
	if c, ok := e.Resolved(key); ok {
		fact = &c
	}
	var st *model.ValidationStatus
	if s, ok := e.overlay.Get(key); ok {
		st = &s
	}
	return overlay.Display(st, fact, target, e.rates)
}
