package storage

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors; validation
// failures belong in pkg/errors, not here.
var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a conditional update lost against the persisted
	// state, e.g. a manifest status changed under the caller.
	ErrConflict = errors.New("conflict with persisted state")
)
