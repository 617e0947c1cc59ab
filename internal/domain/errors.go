package domain

import "errors"

var (
	// ErrConflict is returned when a reservation attempt overlaps an
	// existing claim for the same cell and altitude band. The caller
	// lost a check-then-reserve race and may retry with a fresh
	// conflict check.
	ErrConflict = errors.New("airspace reservation conflict")

	// ErrInvalidStateTransition is returned for illegal flight request
	// status changes. The request is left unmodified.
	ErrInvalidStateTransition = errors.New("invalid flight status transition")

	// ErrInvalidGeometry is returned for degenerate or out-of-range
	// route input rejected at ingestion.
	ErrInvalidGeometry = errors.New("invalid route geometry")

	ErrNotFound = errors.New("not found")
)
