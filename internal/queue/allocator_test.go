package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokyojung/internal/core"
)

// fakeTx stubs the two calls Allocate makes; everything else panics through
// the embedded interface.
type fakeTx struct {
	pgx.Tx

	execErr error
	rowErrs []error
	next    int

	execs   int
	queries int
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	f.execs++
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	f.queries++
	var err error
	if len(f.rowErrs) > 0 {
		err = f.rowErrs[0]
		f.rowErrs = f.rowErrs[1:]
	}
	return fakeRow{n: f.next, err: err}
}

type fakeRow struct {
	n   int
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.n
	return nil
}

func TestAllocate(t *testing.T) {
	tx := &fakeTx{next: 5}

	n, err := Allocate(context.Background(), tx, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, tx.execs, "one advisory lock per attempt")
	assert.Equal(t, 1, tx.queries)
}

func TestAllocateRetriesTransientFailure(t *testing.T) {
	tx := &fakeTx{next: 12, rowErrs: []error{errors.New("serialization failure")}}

	n, err := Allocate(context.Background(), tx, "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, 2, tx.queries, "failed attempt then a successful retry")
}

func TestAllocateExhaustsRetries(t *testing.T) {
	cause := errors.New("lock not acquired")
	tx := &fakeTx{execErr: cause}

	_, err := Allocate(context.Background(), tx, "2026-08-31")
	require.Error(t, err)
	assert.Equal(t, core.CodeInternal, core.CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, tx.execs, "gives up after the configured attempts")
}

func TestAllocateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First attempt fails; the backoff wait must observe the dead context
	// instead of sleeping.
	tx := &fakeTx{execErr: errors.New("lock not acquired")}

	_, err := Allocate(ctx, tx, "2026-08-31")
	require.Error(t, err)
	assert.Equal(t, core.CodeTimeout, core.CodeOf(err))
	assert.Equal(t, 1, tx.execs)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}
