package analysis

import "errors"

// Acquisition and persistence failures. Callers match with errors.Is.
var (
	ErrEmptyInput          = errors.New("input is empty")
	ErrExtraction          = errors.New("no text could be extracted from document")
	ErrFetch               = errors.New("article fetch failed")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTimeout             = errors.New("operation timed out")
	ErrPersistence         = errors.New("history store failure")

	ErrUnknownInputKind = errors.New("unknown input kind")
	ErrInvalidFilter    = errors.New("invalid verdict filter")
	ErrNotFound         = errors.New("analysis not found")
)
