package models

import "errors"

// Store errors shared by the repositories and their callers.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule, such as a duplicate code.
	ErrConflict = errors.New("conflict")
	// ErrCatalogEmptied is returned when a bulk replace removed every listing but failed to insert the new ones.
	ErrCatalogEmptied = errors.New("import left the catalog empty, retry immediately")
)
