package engine

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
)

type mutation func(key model.FactKey) (overlay.Outcome, model.ValidationStatus)

// apply runs one overlay mutation and persists the result. A persistence
// failure leaves the in-memory change in place and is returned.
func (e *Engine) apply(ctx context.Context, op overlay.Op, key model.FactKey, fn mutation) (overlay.Outcome, model.ValidationStatus, error) {
	e.mu.Lock()
	out, st := fn(key)
	var err error
	if out == overlay.Applied && e.store != nil {
		if err = e.store.SaveStatus(ctx, key, st); err != nil {
			zap.L().Warn("engine: status not persisted",
				zap.String("key", string(key)),
				zap.String("op", string(op)),
				zap.Error(err),
			)
			err = eris.Wrap(err, "engine: persist status")
		}
	}
	e.mu.Unlock()

	e.publish(Event{Kind: EventOverlay, Keys: []model.FactKey{key}, Op: op, Outcome: out})
	return out, st, err
}

// SetValue overrides a fact's effective value.
func (e *Engine) SetValue(ctx context.Context, key model.FactKey, v float64) (overlay.Outcome, model.ValidationStatus, error) {
	return e.apply(ctx, overlay.OpSetValue, key, func(k model.FactKey) (overlay.Outcome, model.ValidationStatus) {
		return e.overlay.SetValue(k, v)
	})
}

// SetValueText overrides a fact's value from free-text input.
func (e *Engine) SetValueText(ctx context.Context, key model.FactKey, raw string) (overlay.Outcome, model.ValidationStatus, error) {
	return e.SetValue(ctx, key, overlay.ParseValue(raw))
}

// SetValueIn overrides a fact's value entered in a display currency; it is
// converted back to the currency the fact is stored in.
func (e *Engine) SetValueIn(ctx context.Context, key model.FactKey, v float64, display model.Currency) (overlay.Outcome, model.ValidationStatus, error) {
	if c, ok := e.Resolved(key); ok {
		v = e.rates.ToStorage(v, c.Unit, c.Currency, display)
	}
	return e.SetValue(ctx, key, v)
}

// SetComment attaches a reviewer note. Allowed while locked.
func (e *Engine) SetComment(ctx context.Context, key model.FactKey, text string) (overlay.Outcome, model.ValidationStatus, error) {
	return e.apply(ctx, overlay.OpSetComment, key, func(k model.FactKey) (overlay.Outcome, model.ValidationStatus) {
		return e.overlay.SetComment(k, text)
	})
}

// ToggleValidated locks or unlocks a fact.
func (e *Engine) ToggleValidated(ctx context.Context, key model.FactKey) (overlay.Outcome, model.ValidationStatus, error) {
	return e.apply(ctx, overlay.OpToggleValidated, key, e.overlay.ToggleValidated)
}

// ToggleNA marks a fact not applicable, or clears the mark.
func (e *Engine) ToggleNA(ctx context.Context, key model.FactKey) (overlay.Outcome, model.ValidationStatus, error) {
	return e.apply(ctx, overlay.OpToggleNA, key, e.overlay.ToggleNA)
}

// ToggleFlag excludes a fact from display, or restores it.
func (e *Engine) ToggleFlag(ctx context.Context, key model.FactKey) (overlay.Outcome, model.ValidationStatus, error) {
	return e.apply(ctx, overlay.OpToggleFlag, key, e.overlay.ToggleFlag)
}

// IngestCandidates appends candidates in the order given. Candidates must
// already carry their key, id, and rank.
func (e *Engine) IngestCandidates(ctx context.Context, cs []model.Candidate) error {
	if len(cs) == 0 {
		return nil
	}
	for i, c := range cs {
		if c.Key == "" || c.ID == "" {
			return eris.Errorf("engine: candidate %d (%s) is not stamped", i, c.Metric)
		}
	}

	e.mu.Lock()
	e.candidates.Append(cs...)
	err := e.persistCandidates(ctx)
	e.mu.Unlock()

	zap.L().Info("engine: candidates ingested", zap.Int("count", len(cs)), zap.Int("total", e.candidates.Len()))
	e.publish(Event{Kind: EventIngest, Keys: keysOf(cs)})
	return err
}

// SaveEstimate injects modelled candidates and force-activates them.
func (e *Engine) SaveEstimate(ctx context.Context, cs []model.Candidate) ([]model.FactKey, error) {
	e.mu.Lock()
	keys, err := e.injector.Save(ctx, cs)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if len(keys) > 0 {
		err = e.persistCandidates(ctx)
		if err == nil && e.store != nil {
			batch := make(model.StatusMap, len(keys))
			for _, k := range keys {
				batch[k], _ = e.overlay.Get(k)
			}
			err = eris.Wrap(e.store.SaveStatuses(ctx, batch), "engine: persist estimate statuses")
		}
	}
	e.mu.Unlock()

	if len(keys) > 0 {
		e.publish(Event{Kind: EventEstimate, Keys: keys})
	}
	return keys, err
}

// ImportStatuses merges statuses, e.g. from a JSON export, over the overlay.
func (e *Engine) ImportStatuses(ctx context.Context, m model.StatusMap) error {
	e.mu.Lock()
	merged := e.overlay.Snapshot()
	for k, v := range m {
		merged[k] = v
	}
	e.overlay.Load(merged)
	var err error
	if e.store != nil {
		err = eris.Wrap(e.store.SaveStatuses(ctx, m), "engine: persist imported statuses")
	}
	e.mu.Unlock()

	keys := make([]model.FactKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	e.publish(Event{Kind: EventOverlay, Keys: keys})
	return err
}

// Reset clears every candidate and status, in memory and in the store.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	e.candidates.Reset()
	e.overlay.Reset()
	var err error
	if e.store != nil {
		if err = e.store.DeleteAllStatuses(ctx); err == nil {
			err = e.store.SaveCandidates(ctx, nil)
		}
		err = eris.Wrap(err, "engine: reset store")
	}
	e.mu.Unlock()

	zap.L().Info("engine: state reset")
	e.publish(Event{Kind: EventReset})
	return err
}

// persistCandidates writes the candidate snapshot. Callers hold e.mu.
func (e *Engine) persistCandidates(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveCandidates(ctx, e.candidates.All()); err != nil {
		zap.L().Warn("engine: candidates not persisted", zap.Error(err))
		return eris.Wrap(err, "engine: persist candidates")
	}
	return nil
}

func keysOf(cs []model.Candidate) []model.FactKey {
	seen := make(map[model.FactKey]bool, len(cs))
	var out []model.FactKey
	for _, c := range cs {
		if !seen[c.Key] {
			seen[c.Key] = true
			out = append(out, c.Key)
		}
	}
	return out
}
