package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	key string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

type lockRow struct {
	owner   string
	expires time.Time
}

// fakeLocks models the app_locks table for the three statements.
type fakeLocks struct {
	mu       sync.Mutex
	rows     map[string]lockRow
	renewErr error
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{rows: map[string]lockRow{}}
}

func (f *fakeLocks) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, token := args[0].(string), args[1].(string)
	ttl := time.Duration(args[2].(int64)) * time.Millisecond
	now := time.Now()

	switch sql {
	case tryAcquireSQL:
		cur, held := f.rows[key]
		if held && cur.expires.After(now) && cur.owner != token {
			return fakeRow{err: pgx.ErrNoRows}
		}
		f.rows[key] = lockRow{owner: token, expires: now.Add(ttl)}
		return fakeRow{key: key}
	case renewSQL:
		if f.renewErr != nil {
			return fakeRow{err: f.renewErr}
		}
		cur, held := f.rows[key]
		if !held || cur.owner != token {
			return fakeRow{err: pgx.ErrNoRows}
		}
		f.rows[key] = lockRow{owner: token, expires: now.Add(ttl)}
		return fakeRow{key: key}
	}
	return fakeRow{err: errors.New("unexpected statement")}
}

func (f *fakeLocks) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sql != releaseSQL {
		return pgconn.CommandTag{}, errors.New("unexpected statement")
	}
	key, token := args[0].(string), args[1].(string)
	if cur, ok := f.rows[key]; ok && cur.owner == token {
		delete(f.rows, key)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (f *fakeLocks) steal(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[key] = lockRow{owner: "someone-else", expires: time.Now().Add(time.Hour)}
}

func (f *fakeLocks) held(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[key]
	return ok
}

func TestAcquire_BusyWithoutWait(t *testing.T) {
	db := newFakeLocks()
	c := New(db)
	ctx := context.Background()

	first, err := c.Acquire(ctx, SettlementKey, Options{})
	require.NoError(t, err)
	defer first.Release(ctx)

	_, err = c.Acquire(ctx, SettlementKey, Options{})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestAcquire_EmptyKey(t *testing.T) {
	_, err := New(newFakeLocks()).Acquire(context.Background(), "", Options{})
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	db := newFakeLocks()
	c := New(db)
	ctx := context.Background()

	first, err := c.Acquire(ctx, FriendshipsKey, Options{})
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = first.Release(ctx)
	}()

	second, err := c.Acquire(ctx, FriendshipsKey, Options{Wait: true, WaitInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	require.NoError(t, second.Release(ctx))
	assert.False(t, db.held(FriendshipsKey))
}

func TestAcquire_MaxWaitReturnsBusy(t *testing.T) {
	db := newFakeLocks()
	c := New(db)
	ctx := context.Background()

	first, err := c.Acquire(ctx, SettlementKey, Options{})
	require.NoError(t, err)
	defer first.Release(ctx)

	_, err = c.Acquire(ctx, SettlementKey, Options{
		Wait:         true,
		WaitInterval: 5 * time.Millisecond,
		MaxWait:      40 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestWithLease_ReleasesAfterRun(t *testing.T) {
	db := newFakeLocks()
	c := New(db)

	ran := false
	err := c.WithLease(context.Background(), SettlementKey, Options{}, func(ctx context.Context) error {
		ran = true
		assert.True(t, db.held(SettlementKey))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, db.held(SettlementKey))
}

func TestWithLease_PropagatesError(t *testing.T) {
	db := newFakeLocks()
	boom := errors.New("boom")

	err := New(db).WithLease(context.Background(), SettlementKey, Options{}, func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, db.held(SettlementKey))
}

func TestWithLease_LostLeaseCancelsWork(t *testing.T) {
	db := newFakeLocks()
	c := New(db)
	opts := Options{TTL: 2 * time.Second, RenewEvery: 10 * time.Millisecond}

	err := c.WithLease(context.Background(), SettlementKey, opts, func(ctx context.Context) error {
		db.steal(SettlementKey)
		select {
		case <-ctx.Done():
			assert.ErrorIs(t, context.Cause(ctx), ErrLost)
			return nil
		case <-time.After(2 * time.Second):
			t.Error("lease context was not cancelled")
			return nil
		}
	})

	assert.ErrorIs(t, err, ErrLost)
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 5*time.Minute, o.TTL)
	assert.Equal(t, 150*time.Second, o.RenewEvery)
	assert.Equal(t, 250*time.Millisecond, o.WaitInterval)

	o = Options{TTL: time.Second, RenewEvery: 5 * time.Second, WaitJitter: -1}.withDefaults()
	assert.Equal(t, time.Second, o.RenewEvery)
	assert.Zero(t, o.WaitJitter)
}
