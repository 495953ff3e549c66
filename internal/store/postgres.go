package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/bankfacts/internal/db"
	"github.com/sells-group/bankfacts/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgLoadStatuses    = `SELECT fact_key, status FROM validation_statuses`
	pgSaveStatus      = `INSERT INTO validation_statuses (fact_key, status, updated_at) VALUES ($1, $2, $3) ON CONFLICT (fact_key) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	pgDeleteStatuses  = `DELETE FROM validation_statuses`
	pgLoadCandidates  = `SELECT payload FROM fact_candidates ORDER BY seq`
	pgClearCandidates = `DELETE FROM fact_candidates`
)

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"load_statuses":   pgLoadStatuses,
	"save_status":     pgSaveStatus,
	"load_candidates": pgLoadCandidates,
}

var statusUpsert = db.UpsertConfig{
	Table:        "validation_statuses",
	Columns:      []string{"fact_key", "status", "updated_at"},
	ConflictKeys: []string{"fact_key"},
}

var candidateColumns = []string{"seq", "candidate_id", "fact_key", "payload"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS validation_statuses (
	fact_key   TEXT PRIMARY KEY,
	status     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fact_candidates (
	seq          BIGINT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	fact_key     TEXT NOT NULL,
	payload      JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_candidates_fact_key ON fact_candidates(fact_key);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadStatuses(ctx context.Context) (model.StatusMap, error) {
	rows, err := s.pool.Query(ctx, pgLoadStatuses)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load statuses")
	}
	defer rows.Close()

	out := make(model.StatusMap)
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status")
		}
		var st model.ValidationStatus
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal status %s", key)
		}
		out[model.FactKey(key)] = st
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate statuses")
}

func (s *PostgresStore) SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal status")
	}
	_, err = s.pool.Exec(ctx, pgSaveStatus, string(key), raw, time.Now().UTC())
	return eris.Wrapf(err, "postgres: save status %s", key)
}

func (s *PostgresStore) SaveStatuses(ctx context.Context, m model.StatusMap) error {
	if len(m) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(m))
	for key, st := range m {
		raw, err := json.Marshal(st)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal status")
		}
		rows = append(rows, []any{string(key), raw, now})
	}
	_, err := db.BulkUpsert(ctx, s.pool, statusUpsert, rows)
	return eris.Wrap(err, "postgres: save statuses")
}

func (s *PostgresStore) DeleteAllStatuses(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, pgDeleteStatuses)
	return eris.Wrap(err, "postgres: delete statuses")
}

func (s *PostgresStore) SaveCandidates(ctx context.Context, cs []model.Candidate) error {
	rows := make([][]any, 0, len(cs))
	for i, c := range cs {
		payload, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal candidate %s", c.ID)
		}
		rows = append(rows, []any{int64(i), c.ID, string(c.Key), payload})
	}
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgClearCandidates); err != nil {
			return eris.Wrap(err, "postgres: clear candidates")
		}
		_, err := db.CopyFrom(ctx, tx, "fact_candidates", candidateColumns, rows)
		return eris.Wrap(err, "postgres: save candidates")
	})
}

func (s *PostgresStore) LoadCandidates(ctx context.Context) ([]model.Candidate, error) {
	rows, err := s.pool.Query(ctx, pgLoadCandidates)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load candidates")
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		var c model.Candidate
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate candidates")
}
