package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"firledger/pkg/platform/sentinel"
)

var tracer = otel.Tracer("firledger/internal/ledger")

// Memory is an in-process ledger: a single serialization point imposing a
// total order over all submitted transactions, with an append-only commit
// log attributing each accepted mutation to its actor.
//
// The write slot is a one-element channel rather than a mutex so waiting
// submitters can honor caller-imposed deadlines. A submitter that times out
// while queued never runs its Apply, so no partial state becomes visible.
type Memory struct {
	slot chan struct{}

	mu      sync.RWMutex
	commits []Commit
	nextSeq uint64
	clock   func() time.Time
}

// MemoryOption configures a Memory ledger.
type MemoryOption func(*Memory)

// WithClock sets the commit timestamp source for testability.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMemory constructs an empty ledger.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		slot:    make(chan struct{}, 1),
		nextSeq: 1,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SubmitTransaction acquires the write slot, runs tx.Apply, and appends a
// commit entry on success. Apply errors pass through unchanged; the commit
// log is untouched. Cancellation or timeout before commit surfaces as
// sentinel.ErrUnavailable.
func (m *Memory) SubmitTransaction(ctx context.Context, tx Tx) (*Commit, error) {
	ctx, span := tracer.Start(ctx, "ledger.SubmitTransaction",
		trace.WithAttributes(
			attribute.String("ledger.op", tx.Op),
			attribute.String("ledger.actor", tx.Actor.String()),
		))
	defer span.End()

	if tx.Apply == nil {
		return nil, fmt.Errorf("%w: transaction has no apply", sentinel.ErrUnavailable)
	}

	select {
	case m.slot <- struct{}{}:
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return nil, fmt.Errorf("%w: commit aborted: %v", sentinel.ErrUnavailable, ctx.Err())
	}
	defer func() { <-m.slot }()

	// Re-check after acquiring: a deadline that fired while queued must not
	// turn into a late commit the caller already gave up on.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: commit aborted: %v", sentinel.ErrUnavailable, err)
	}

	if err := tx.Apply(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}

	m.mu.Lock()
	commit := Commit{
		Seq:         m.nextSeq,
		Actor:       tx.Actor,
		Op:          tx.Op,
		Args:        tx.Args,
		CommittedAt: m.clock(),
	}
	m.nextSeq++
	m.commits = append(m.commits, commit)
	m.mu.Unlock()

	span.SetAttributes(attribute.Int64("ledger.seq", int64(commit.Seq)))
	return &commit, nil
}

// Query serves reads over the committed log.
//
// Supported operations:
//   - "commits": args "after" (exclusive seq, default 0) and "limit"
//     (default all) select a window of the log in commit order.
//   - "height": returns the number of committed transactions as uint64.
func (m *Memory) Query(_ context.Context, op string, args map[string]string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch op {
	case QueryCommits:
		after := uint64(0)
		if v := args["after"]; v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid after: %q", sentinel.ErrInvalidState, v)
			}
			after = n
		}
		limit := len(m.commits)
		if v := args["limit"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: invalid limit: %q", sentinel.ErrInvalidState, v)
			}
			limit = n
		}
		out := make([]Commit, 0, limit)
		for _, c := range m.commits {
			if c.Seq <= after {
				continue
			}
			if len(out) == limit {
				break
			}
			out = append(out, c)
		}
		return out, nil
	case QueryHeight:
		return uint64(len(m.commits)), nil
	default:
		return nil, fmt.Errorf("%w: unknown query: %q", sentinel.ErrNotFound, op)
	}
}

// Height returns the number of committed transactions.
func (m *Memory) Height() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.commits))
}

var _ Ledger = (*Memory)(nil)
