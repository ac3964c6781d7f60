package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firledger/pkg/platform/sentinel"
)

func noopApply(context.Context) error { return nil }

func TestSubmitTransaction_CommitsInOrder(t *testing.T) {
	lg := NewMemory()
	ctx := context.Background()

	for i, op := range []string{"create_fir", "investigate_fir", "approve_fir"} {
		commit, err := lg.SubmitTransaction(ctx, Tx{
			Actor: "0xactor",
			Op:    op,
			Args:  map[string]string{"fir_id": "1"},
			Apply: noopApply,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), commit.Seq, "seq must be gapless from 1")
		assert.Equal(t, op, commit.Op)
		assert.False(t, commit.CommittedAt.IsZero())
	}

	assert.Equal(t, uint64(3), lg.Height())
}

func TestSubmitTransaction_AttributesActor(t *testing.T) {
	lg := NewMemory()

	commit, err := lg.SubmitTransaction(context.Background(), Tx{
		Actor: "0xpolice",
		Op:    "investigate_fir",
		Apply: noopApply,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xpolice", commit.Actor.String())
}

func TestSubmitTransaction_ApplyErrorLeavesNoCommit(t *testing.T) {
	lg := NewMemory()
	boom := errors.New("store rejected")

	_, err := lg.SubmitTransaction(context.Background(), Tx{
		Actor: "0xactor",
		Op:    "create_fir",
		Apply: func(context.Context) error { return boom },
	})
	require.ErrorIs(t, err, boom, "apply errors pass through unchanged")
	assert.Equal(t, uint64(0), lg.Height(), "failed apply must leave the log untouched")
}

func TestSubmitTransaction_CancelledContext(t *testing.T) {
	lg := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lg.SubmitTransaction(ctx, Tx{
		Actor: "0xactor",
		Op:    "create_fir",
		Apply: noopApply,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, uint64(0), lg.Height())
}

func TestSubmitTransaction_TimeoutWhileQueued(t *testing.T) {
	lg := NewMemory()

	// Occupy the write slot so the submission below has to queue.
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = lg.SubmitTransaction(context.Background(), Tx{
			Actor: "0xslow",
			Op:    "create_fir",
			Apply: func(context.Context) error {
				close(started)
				<-release
				return nil
			},
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := lg.SubmitTransaction(ctx, Tx{
		Actor: "0ximpatient",
		Op:    "create_fir",
		Apply: noopApply,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestSubmitTransaction_ConcurrentSubmissionsSerialize(t *testing.T) {
	lg := NewMemory()
	const n = 50

	var (
		mu     sync.Mutex
		inside int
	)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lg.SubmitTransaction(context.Background(), Tx{
				Actor: "0xactor",
				Op:    "create_fir",
				Apply: func(context.Context) error {
					mu.Lock()
					inside++
					assert.Equal(t, 1, inside, "apply must never run concurrently")
					inside--
					mu.Unlock()
					return nil
				},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(n), lg.Height())

	// Every seq from 1..n appears exactly once.
	result, err := lg.Query(context.Background(), QueryCommits, nil)
	require.NoError(t, err)
	commits := result.([]Commit)
	require.Len(t, commits, n)
	for i, c := range commits {
		assert.Equal(t, uint64(i+1), c.Seq)
	}
}

func TestQuery_CommitsWindow(t *testing.T) {
	lg := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := lg.SubmitTransaction(ctx, Tx{Actor: "0xa", Op: "create_fir", Apply: noopApply})
		require.NoError(t, err)
	}

	result, err := lg.Query(ctx, QueryCommits, map[string]string{"after": "2", "limit": "2"})
	require.NoError(t, err)
	commits := result.([]Commit)
	require.Len(t, commits, 2)
	assert.Equal(t, uint64(3), commits[0].Seq)
	assert.Equal(t, uint64(4), commits[1].Seq)
}

func TestQuery_Height(t *testing.T) {
	lg := NewMemory()
	ctx := context.Background()

	result, err := lg.Query(ctx, QueryHeight, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result)

	_, err = lg.SubmitTransaction(ctx, Tx{Actor: "0xa", Op: "create_fir", Apply: noopApply})
	require.NoError(t, err)

	result, err = lg.Query(ctx, QueryHeight, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result)
}

func TestQuery_BadInput(t *testing.T) {
	lg := NewMemory()
	ctx := context.Background()

	_, err := lg.Query(ctx, "balances", nil)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = lg.Query(ctx, QueryCommits, map[string]string{"after": "x"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	_, err = lg.Query(ctx, QueryCommits, map[string]string{"limit": "-1"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	lg := NewMemory(WithClock(func() time.Time { return fixed }))

	commit, err := lg.SubmitTransaction(context.Background(), Tx{
		Actor: "0xa", Op: "create_fir", Apply: noopApply,
	})
	require.NoError(t, err)
	assert.Equal(t, fixed, commit.CommittedAt)
}
