// Package store persists the review overlay and the candidate snapshot.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bankfacts/internal/config"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/resilience"
)

// Store is the durable backing for reviewer state. Statuses are keyed by
// logical fact key; candidates are kept as one snapshot in append order.
type Store interface {
	// Validation statuses
	LoadStatuses(ctx context.Context) (model.StatusMap, error)
	SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error
	SaveStatuses(ctx context.Context, m model.StatusMap) error
	DeleteAllStatuses(ctx context.Context) error

	// Candidate snapshot
	SaveCandidates(ctx context.Context, cs []model.Candidate) error
	LoadCandidates(ctx context.Context) ([]model.Candidate, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store named by cfg.Driver, runs its migration, and
// retries transient failures up to cfg.RetryAttempts tries per call.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	case "badger":
		s, err = NewBadger(cfg.DatabaseURL)
	case "memory":
		s = NewMemory()
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	if cfg.RetryAttempts <= 1 {
		return s, nil
	}
	p := resilience.DefaultPolicy()
	p.Attempts = cfg.RetryAttempts
	return WithRetry(s, p), nil
}
