package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bankfacts/internal/engine"
	"github.com/sells-group/bankfacts/internal/store"
	"github.com/sells-group/bankfacts/internal/waterfall"
)

// engineEnv holds the engine and the store behind it.
type engineEnv struct {
	Store  store.Store
	Engine *engine.Engine
}

// Close releases the store.
func (e *engineEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEngine validates config for mode, opens the store, and loads the
// persisted candidates and statuses. Callers should defer env.Close().
func initEngine(ctx context.Context, mode string) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	rules := waterfall.DefaultConfig()
	if cfg.Waterfall.ConfigPath != "" {
		r, err := waterfall.LoadConfig(cfg.Waterfall.ConfigPath)
		if err != nil {
			return nil, err
		}
		rules = r
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	eng := engine.New(
		engine.WithStore(st),
		engine.WithRules(rules),
		engine.WithFX(cfg.FX),
	)
	if err := eng.Open(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return &engineEnv{Store: st, Engine: eng}, nil
}
