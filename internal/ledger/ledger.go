// Package ledger defines the contract the core requires from its transaction
// substrate: atomic commit, total order, immutability, and caller-identity
// attribution for every accepted mutation.
package ledger

import (
	"context"
	"time"

	id "firledger/pkg/domain"
)

// Tx describes one mutation submitted for atomic, totally ordered commit.
// Args carry the operation's attribution payload for the commit log; Apply
// performs the actual state change and must itself be all-or-nothing.
type Tx struct {
	Actor id.Identity
	Op    string
	Args  map[string]string
	Apply func(ctx context.Context) error
}

// Commit is one accepted transaction in the ledger's append-only log.
// Seq values are strictly increasing with no observer ever seeing a
// partially applied transaction.
type Commit struct {
	Seq         uint64            `json:"seq"`
	Actor       id.Identity       `json:"actor"`
	Op          string            `json:"op"`
	Args        map[string]string `json:"args,omitempty"`
	CommittedAt time.Time         `json:"committed_at"`
}

// Query operation names understood by Query.
const (
	QueryCommits = "commits"
	QueryHeight  = "height"
)

// Ledger is the external collaborator every mutating operation goes through.
//
// SubmitTransaction serializes all submissions into a total order, runs the
// transaction's Apply exactly once, and records a Commit only when Apply
// succeeds. Errors returned by Apply pass through unchanged and leave no
// trace in the log. Substrate-level failures (cancellation, timeout,
// unavailability) are reported as sentinel.ErrUnavailable, wrapped.
//
// Query serves read-only lookups over the committed log. It sees all
// previously committed writes and never mutates.
type Ledger interface {
	SubmitTransaction(ctx context.Context, tx Tx) (*Commit, error)
	Query(ctx context.Context, op string, args map[string]string) (any, error)
}
