package domain

import "errors"

// Sentinel errors shared by storage, the review session and the HTTP layer.
// Use errors.Is to check: errors.Is(err, domain.ErrNotFound)
var (
	ErrNotFound     = errors.New("not found")
	ErrDeckNotFound = errors.New("deck not found")
	ErrCardNotFound = errors.New("card not found")
	ErrInvalidGrade = errors.New("grade must be between 0 and 5")
	ErrEmptyImport  = errors.New("no cards found in import")
)
