package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ledger return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record or identity does not exist in the store
// - ErrInvalidState: record's committed status fails a transition precondition
// - ErrConflict: concurrent write lost a uniqueness or ordering race
// - ErrUnavailable: backing resource temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
