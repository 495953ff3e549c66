package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bankfacts/internal/model"
)

const (
	badgerStatusPrefix    = "status/"
	badgerCandidatePrefix = "cand/"

	// BadgerInMemory as the database URL keeps the store in memory.
	BadgerInMemory = ":memory:"
)

// BadgerStore implements Store on an embedded badger key-value database.
// Statuses live under status/<fact key>; candidates under cand/<seq>.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger routes badger's internal logging through zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.log.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.log.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.log.Debugf(format, args...) }

// NewBadger opens a badger database in dir, or in memory for BadgerInMemory.
func NewBadger(dir string) (*BadgerStore, error) {
	var opts badger.Options
	switch dir {
	case "":
		return nil, eris.New("badger: directory is required")
	case BadgerInMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	default:
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, eris.Wrapf(err, "badger: create %s", dir)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	opts = opts.WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log: zap.L().Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, eris.Wrap(err, "badger: open")
	}
	return &BadgerStore{db: db}, nil
}

// Migrate is a no-op; badger has no schema.
func (s *BadgerStore) Migrate(_ context.Context) error { return nil }

func (s *BadgerStore) Close() error {
	return eris.Wrap(s.db.Close(), "badger: close")
}

func (s *BadgerStore) LoadStatuses(ctx context.Context) (model.StatusMap, error) {
	m := make(model.StatusMap)
	err := s.scan(ctx, badgerStatusPrefix, func(key string, val []byte) error {
		var st model.ValidationStatus
		if err := json.Unmarshal(val, &st); err != nil {
			return eris.Wrapf(err, "badger: decode status %s", key)
		}
		m[model.FactKey(strings.TrimPrefix(key, badgerStatusPrefix))] = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *BadgerStore) SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(st)
	if err != nil {
		return eris.Wrap(err, "badger: encode status")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerStatusPrefix+string(key)), val)
	})
	return eris.Wrapf(err, "badger: save status %s", key)
}

func (s *BadgerStore) SaveStatuses(ctx context.Context, m model.StatusMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for k, st := range m {
		val, err := json.Marshal(st)
		if err != nil {
			return eris.Wrap(err, "badger: encode status")
		}
		if err := wb.Set([]byte(badgerStatusPrefix+string(k)), val); err != nil {
			return eris.Wrap(err, "badger: save statuses")
		}
	}
	return eris.Wrap(wb.Flush(), "badger: save statuses")
}

func (s *BadgerStore) DeleteAllStatuses(_ context.Context) error {
	return eris.Wrap(s.db.DropPrefix([]byte(badgerStatusPrefix)), "badger: delete statuses")
}

// SaveCandidates replaces the snapshot in one transaction; on failure the
// previous snapshot is left as it was. Sequence keys are zero-padded so
// iteration order is append order. A snapshot too large for one badger
// transaction fails with badger.ErrTxnTooBig.
func (s *BadgerStore) SaveCandidates(ctx context.Context, cs []model.Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vals := make([][]byte, len(cs))
	for i, c := range cs {
		val, err := json.Marshal(c)
		if err != nil {
			return eris.Wrapf(err, "badger: encode candidate %s", c.ID)
		}
		vals[i] = val
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keysWithPrefix(txn, badgerCandidatePrefix) {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for i, val := range vals {
			if err := txn.Set([]byte(fmt.Sprintf("%s%012d", badgerCandidatePrefix, i)), val); err != nil {
				return err
			}
		}
		return nil
	})
	return eris.Wrap(err, "badger: save candidates")
}

func keysWithPrefix(txn *badger.Txn, prefix string) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func (s *BadgerStore) LoadCandidates(ctx context.Context) ([]model.Candidate, error) {
	var out []model.Candidate
	err := s.scan(ctx, badgerCandidatePrefix, func(key string, val []byte) error {
		var c model.Candidate
		if err := json.Unmarshal(val, &c); err != nil {
			return eris.Wrapf(err, "badger: decode candidate %s", key)
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// scan visits every key under prefix in key order.
func (s *BadgerStore) scan(ctx context.Context, prefix string, fn func(key string, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
				return err
			}
		}
		return nil
	})
}
