package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bankfacts/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS validation_statuses (
	fact_key       TEXT PRIMARY KEY,
	is_override    INTEGER NOT NULL DEFAULT 0,
	is_validated   INTEGER NOT NULL DEFAULT 0,
	is_na          INTEGER NOT NULL DEFAULT 0,
	is_flagged     INTEGER NOT NULL DEFAULT 0,
	comments       TEXT NOT NULL DEFAULT '',
	original_value REAL NOT NULL DEFAULT 0,
	current_value  REAL NOT NULL DEFAULT 0,
	last_modified  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fact_candidates (
	seq          INTEGER PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	fact_key     TEXT NOT NULL,
	payload      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_candidates_fact_key ON fact_candidates(fact_key);
`

const sqliteUpsertStatus = `
INSERT INTO validation_statuses
	(fact_key, is_override, is_validated, is_na, is_flagged, comments, original_value, current_value, last_modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(fact_key) DO UPDATE SET
	is_override = excluded.is_override,
	is_validated = excluded.is_validated,
	is_na = excluded.is_na,
	is_flagged = excluded.is_flagged,
	comments = excluded.comments,
	original_value = excluded.original_value,
	current_value = excluded.current_value,
	last_modified = excluded.last_modified`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadStatuses(ctx context.Context) (model.StatusMap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fact_key, is_override, is_validated, is_na, is_flagged, comments, original_value, current_value, last_modified
		 FROM validation_statuses`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load statuses")
	}
	defer rows.Close()

	out := make(model.StatusMap)
	for rows.Next() {
		key, st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		out[key] = st
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate statuses")
}

func (s *SQLiteStore) SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error {
	_, err := s.db.ExecContext(ctx, sqliteUpsertStatus, statusArgs(key, st)...)
	return eris.Wrapf(err, "sqlite: save status %s", key)
}

func (s *SQLiteStore) SaveStatuses(ctx context.Context, m model.StatusMap) error {
	if len(m) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, sqliteUpsertStatus)
		if err != nil {
			return eris.Wrap(err, "sqlite: prepare status upsert")
		}
		defer stmt.Close()
		for key, st := range m {
			if _, err := stmt.ExecContext(ctx, statusArgs(key, st)...); err != nil {
				return eris.Wrapf(err, "sqlite: save status %s", key)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteAllStatuses(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM validation_statuses`)
	return eris.Wrap(err, "sqlite: delete statuses")
}

func (s *SQLiteStore) SaveCandidates(ctx context.Context, cs []model.Candidate) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fact_candidates`); err != nil {
			return eris.Wrap(err, "sqlite: clear candidates")
		}
		if len(cs) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO fact_candidates (seq, candidate_id, fact_key, payload) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return eris.Wrap(err, "sqlite: prepare candidate insert")
		}
		defer stmt.Close()
		for i, c := range cs {
			payload, err := json.Marshal(c)
			if err != nil {
				return eris.Wrapf(err, "sqlite: marshal candidate %s", c.ID)
			}
			if _, err := stmt.ExecContext(ctx, i, c.ID, string(c.Key), string(payload)); err != nil {
				return eris.Wrapf(err, "sqlite: insert candidate %s", c.ID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) LoadCandidates(ctx context.Context) ([]model.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM fact_candidates ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load candidates")
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		var c model.Candidate
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate candidates")
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func statusArgs(key model.FactKey, st model.ValidationStatus) []any {
	return []any{
		string(key),
		st.IsOverride, st.IsValidated, st.IsNA, st.IsFlagged,
		st.Comments, st.OriginalValue, st.CurrentValue,
		st.LastModified.UTC().Format(time.RFC3339Nano),
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanStatus(row scannable) (model.FactKey, model.ValidationStatus, error) {
	var (
		key      string
		st       model.ValidationStatus
		modified string
	)
	err := row.Scan(&key, &st.IsOverride, &st.IsValidated, &st.IsNA, &st.IsFlagged,
		&st.Comments, &st.OriginalValue, &st.CurrentValue, &modified)
	if err != nil {
		return "", st, eris.Wrap(err, "sqlite: scan status")
	}
	if modified != "" {
		ts, err := time.Parse(time.RFC3339Nano, modified)
		if err != nil {
			return "", st, eris.Wrapf(err, "sqlite: parse last_modified for %s", key)
		}
		st.LastModified = ts
	}
	return model.FactKey(key), st, nil
}
