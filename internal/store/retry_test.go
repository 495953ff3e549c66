package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bankfacts/internal/config"
	"github.com/sells-group/bankfacts/internal/model"
	"github.com/sells-group/bankfacts/internal/resilience"
)

// busyStore fails the first n writes with SQLite lock contention.
type busyStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (b *busyStore) SaveStatus(ctx context.Context, key model.FactKey, st model.ValidationStatus) error {
	b.calls++
	if b.calls <= b.failures {
		return errors.New("database is locked (5) (SQLITE_BUSY)")
	}
	return b.MemoryStore.SaveStatus(ctx, key, st)
}

func fastRetry(attempts int) resilience.Policy {
	return resilience.Policy{Attempts: attempts, Backoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestWithRetry_RecoversFromBusy(t *testing.T) {
	ctx := context.Background()
	inner := &busyStore{MemoryStore: NewMemory(), failures: 2}
	s := WithRetry(inner, fastRetry(3))

	require.NoError(t, s.SaveStatus(ctx, "LID-a", model.ValidationStatus{IsValidated: true}))
	assert.Equal(t, 3, inner.calls)

	m, err := s.LoadStatuses(ctx)
	require.NoError(t, err)
	assert.True(t, m["LID-a"].IsValidated)
}

func TestWithRetry_GivesUp(t *testing.T) {
	inner := &busyStore{MemoryStore: NewMemory(), failures: 5}
	s := WithRetry(inner, fastRetry(2))

	err := s.SaveStatus(context.Background(), "LID-a", model.ValidationStatus{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.Equal(t, 2, inner.calls)
}

func TestOpen_WrapsWithRetry(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: "memory", RetryAttempts: 3})
	require.NoError(t, err)
	assert.IsType(t, &retrying{}, s)
}
