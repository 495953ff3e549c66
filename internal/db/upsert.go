package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a keyed bulk upsert.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // columns supplied per row
	ConflictKeys []string // unique constraint columns
	UpdateCols   []string // columns overwritten on conflict; nil = all non-key columns
}

func (c UpsertConfig) validate() error {
	if len(c.Columns) == 0 {
		return eris.New("db: upsert: no columns specified")
	}
	if len(c.ConflictKeys) == 0 {
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

func (c UpsertConfig) updateColumns() []string {
	if c.UpdateCols != nil {
		return c.UpdateCols
	}
	keys := make(map[string]bool, len(c.ConflictKeys))
	for _, k := range c.ConflictKeys {
		keys[k] = true
	}
	var out []string
	for _, col := range c.Columns {
		if !keys[col] {
			out = append(out, col)
		}
	}
	return out
}

func (c UpsertConfig) stagingTable() string {
	return "_stage_" + strings.ReplaceAll(c.Table, ".", "_")
}

// statement builds the INSERT ... SELECT ... ON CONFLICT that merges the
// staging table into the target.
func (c UpsertConfig) statement() string {
	cols := quoteAndJoin(c.Columns)
	var set []string
	for _, col := range c.updateColumns() {
		q := pgx.Identifier{col}.Sanitize()
		set = append(set, q+" = EXCLUDED."+q)
	}
	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		identifier(c.Table).Sanitize(), cols, cols,
		pgx.Identifier{c.stagingTable()}.Sanitize(),
		quoteAndJoin(c.ConflictKeys), action)
}

// BulkUpsert stages rows with COPY into a transaction-scoped temp table and
// merges them into the target in one statement.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	var affected int64
	err := InTx(ctx, pool, func(tx pgx.Tx) error {
		create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
			pgx.Identifier{cfg.stagingTable()}.Sanitize(), identifier(cfg.Table).Sanitize())
		if _, err := tx.Exec(ctx, create); err != nil {
			return eris.Wrapf(err, "db: upsert: stage %s", cfg.Table)
		}
		if _, err := CopyFrom(ctx, tx, cfg.stagingTable(), cfg.Columns, rows); err != nil {
			return eris.Wrapf(err, "db: upsert: %s", cfg.Table)
		}
		tag, err := tx.Exec(ctx, cfg.statement())
		if err != nil {
			return eris.Wrapf(err, "db: upsert: merge %s", cfg.Table)
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// identifier splits a possibly schema-qualified name.
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
