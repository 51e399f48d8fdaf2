package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict marks an upstream data-quality conflict: the same link with a
	// different media id, or the same media id with a different link.
	ErrConflict = errors.New("media identity conflict")

	ErrInvalidMediaID = errors.New("invalid media id")
	ErrMissingLink    = errors.New("missing media link")
	ErrUnknownKind    = errors.New("unknown media kind")

	// ErrSyncInProgress is returned when a sync is triggered while another one
	// is still running.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// FetchError aborts a single kind's sync.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReconcileError is scoped to one upstream item and never aborts the kind.
type ReconcileError struct {
	Kind       Kind
	ExternalID string
	Err        error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile %s item %q: %v", e.Kind, e.ExternalID, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// PurgeError is returned when deleting a kind's records fails.
type PurgeError struct {
	Kind Kind
	Err  error
}

func (e *PurgeError) Error() string {
	return fmt.Sprintf("purge %s: %v", e.Kind, e.Err)
}

func (e *PurgeError) Unwrap() error {
	return e.Err
}
