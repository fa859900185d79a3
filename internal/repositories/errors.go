package repositories

import "errors"

// Sentinel errors shared by every repository in this package. Callers branch
// on them with errors.Is instead of inspecting driver error codes; each
// repository translates the relevant SQLSTATE values into one of these.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)
