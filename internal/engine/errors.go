package engine

import "errors"

// Errors returned by engine operations. Callers match them with errors.Is.
var (
	ErrEmptyCatalog          = errors.New("no available book to select")
	ErrNotFound              = errors.New("book not found")
	ErrNoActiveSession       = errors.New("no book is being read")
	ErrOutOfRange            = errors.New("progress must be between 0 and 100")
	ErrMalformedState        = errors.New("malformed persisted state")
	ErrDataSourceUnavailable = errors.New("data source unavailable")
	ErrEmptyQuestion         = errors.New("question text is empty")
	ErrQuestionNotFound      = errors.New("question not found")
)
