// Package engine is the facade the presentation layer talks to: it owns the
// candidate store, the review overlay, and their persistence.
package engine

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/candidate"
	"github.com/sells-group/bankfacts/internal/estimate"
	"github.com/sells-group/bankfacts/internal/fx"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/overlay"
	"github.com/sells-group/bankfacts/internal/store"
	"github.com/sells-group/bankfacts/internal/waterfall"
)

// EventKind classifies engine change notifications.
type EventKind string

const (
	EventIngest   EventKind = "ingest"
	EventEstimate EventKind = "estimate"
	EventOverlay  EventKind = "overlay"
	EventReset    EventKind = "reset"
)

// Event describes one change. Op and Outcome are set for overlay events.
type Event struct {
	Kind    EventKind
	Keys    []model.FactKey
	Op      overlay.Op
	Outcome overlay.Outcome
}

// Engine serializes mutations and keeps the resolved view current.
type Engine struct {
	mu         sync.Mutex // held across mutate + persist
	candidates *candidate.Store
	overlay    *overlay.Overlay
	injector   *estimate.Injector
	rules      *waterfall.Config
	rates      fx.Config
	store      store.Store

	viewMu      sync.Mutex
	viewVersion uint64
	viewReady   bool
	view        []model.Candidate
	viewIndex   map[model.FactKey]model.Candidate

	subsMu sync.RWMutex
	subs   map[int]func(Event)
	nextID int
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists overlay and candidates through s.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithRules sets the per-bank priority configuration.
func WithRules(cfg *waterfall.Config) Option { return func(e *Engine) { e.rules = cfg } }

// WithFX sets the currency-rate configuration.
func WithFX(cfg fx.Config) Option { return func(e *Engine) { e.rates = cfg } }

// New creates an engine with an empty candidate store and overlay.
func New(opts ...Option) *Engine {
	e := &Engine{
		candidates: candidate.NewStore(),
		rules:      waterfall.DefaultConfig(),
		rates:      fx.Default(),
		subs:       make(map[int]func(Event)),
	}
	e.overlay = overlay.New(e.seed)
	e.injector = estimate.NewInjector(e.candidates, e.overlay)
	for _, o := range opts {
		o(e)
	}
	return e
}

// Overlay exposes the overlay, e.g. to fix its clock in tests.
func (e *Engine) Overlay() *overlay.Overlay { return e.overlay }

// Rules returns the priority configuration new candidates are ranked with.
func (e *Engine) Rules() *waterfall.Config { return e.rules }

// FX returns the currency-rate configuration.
func (e *Engine) FX() fx.Config { return e.rates }

// Open loads persisted candidates and statuses. Without a store it is a no-op.
func (e *Engine) Open(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	cs, err := e.store.LoadCandidates(ctx)
	if err != nil {
		return eris.Wrap(err, "engine: open")
	}
	statuses, err := e.store.LoadStatuses(ctx)
	if err != nil {
		return eris.Wrap(err, "engine: open")
	}
	e.candidates.Reset()
	e.candidates.Append(cs...)
	e.overlay.Load(statuses)

	zap.L().Info("engine: state loaded",
		zap.Int("candidates", len(cs)),
		zap.Int("statuses", len(statuses)),
	)
	return nil
}

// Subscribe registers fn for change events and returns a function that
// removes it. Callbacks run synchronously after the change is complete.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	return func() {
		e.subsMu.Lock()
		defer e.subsMu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) publish(ev Event) {
	e.subsMu.RLock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subsMu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// resolved returns the memoized resolved view, recomputing it when the
// candidate store has changed.
func (e *Engine) resolved() ([]model.Candidate, map[model.FactKey]model.Candidate) {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	v := e.candidates.Version()
	if !e.viewReady || v != e.viewVersion {
		e.view = waterfall.Resolve(e.candidates.All())
		e.viewIndex = make(map[model.FactKey]model.Candidate, len(e.view))
		for _, c := range e.view {
			e.viewIndex[c.Key] = c
		}
		e.viewVersion = v
		e.viewReady = true
	}
	return e.view, e.viewIndex
}

func (e *Engine) seed(key model.FactKey) (float64, bool) {
	_, idx := e.resolved()
	c, ok := idx[key]
	return c.Value, ok
}

// GetResolvedFacts returns one winning candidate per logical fact matching
// filter, in first-seen order.
func (e *Engine) GetResolvedFacts(filter model.FactFilter) []model.Candidate {
	view, _ := e.resolved()
	var out []model.Candidate
	for _, c := range view {
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

// Resolved returns the winning candidate for one fact.
func (e *Engine) Resolved(key model.FactKey) (model.Candidate, bool) {
	_, idx := e.resolved()
	c, ok := idx[key]
	return c, ok
}

// Candidates returns every stored candidate in append order.
func (e *Engine) Candidates() []model.Candidate { return e.candidates.All() }

// GetValidationStatus returns the reviewer status for a fact, if any.
func (e *Engine) GetValidationStatus(key model.FactKey) (model.ValidationStatus, bool) {
	return e.overlay.Get(key)
}

// Statuses copies the whole overlay.
func (e *Engine) Statuses() model.StatusMap { return e.overlay.Snapshot() }
