// Package estimate writes internally modelled proxy figures into the
// candidate store and force-activates them in the review overlay.
package estimate

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/candidate"
	"github.com/sells-group/bankfacts/internal/identity"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
)

// Injector saves estimate batches. Saves are serialized so two concurrent
// batches touching the same fact cannot interleave their replace and write.
type Injector struct {
	mu         sync.Mutex
	candidates *candidate.Store
	overlay    *overlay.Overlay
}

// NewInjector creates an injector over the given store and overlay.
func NewInjector(cs *candidate.Store, ov *overlay.Overlay) *Injector {
	return &Injector{candidates: cs, overlay: ov}
}

// Save forces every candidate to estimate rank, replaces earlier estimates
// for the same facts, appends the batch, and overrides each fact's status
// with the modelled value. It returns the affected keys in batch order.
func (i *Injector) Save(ctx context.Context, batch []model.Candidate) ([]model.FactKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "estimate: save")
	}
	if len(batch) == 0 {
		return nil, nil
	}

	// One estimate per fact; a later candidate for the same key replaces an
	// earlier one so the candidate store and overlay agree.
	latest := make(map[model.FactKey]model.Candidate, len(batch))
	keys := make(map[model.FactKey]bool, len(batch))
	var order []model.FactKey
	for n, c := range batch {
		if c.Bank == "" || c.Period == "" || c.Metric == "" {
			return nil, eris.Errorf("estimate: candidate %d missing bank, period or metric", n)
		}
		if c.Segment == "" {
			c.Segment = model.SegmentGroup
		}
		c.Priority = model.PriorityEstimate
		identity.Stamp(&c)
		latest[c.Key] = c
		if !keys[c.Key] {
			keys[c.Key] = true
			order = append(order, c.Key)
		}
	}
	prepared := make([]model.Candidate, 0, len(order))
	for _, k := range order {
		prepared = append(prepared, latest[k])
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	replaced := i.candidates.ReplaceEstimates(keys, prepared)
	for _, c := range prepared {
		i.overlay.ForceEstimate(c.Key, c.Value)
	}

	zap.L().Info("estimate: batch saved",
		zap.Int("candidates", len(batch)),
		zap.Int("facts", len(order)),
		zap.Int("replaced", replaced),
	)
	return order, nil
}
