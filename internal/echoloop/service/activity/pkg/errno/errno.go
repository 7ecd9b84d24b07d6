package errno

import (
	"errors"
)

var (
	ErrActivityNotFound  = errors.New("activity not found")
	ErrInvalidTransition = errors.New("invalid activity state transition")
	ErrEmptyQuery        = errors.New("user query is required")
	ErrOracleRequired    = errors.New("decision oracle is required")
	ErrOracleFailed      = errors.New("decision oracle call failed")
	ErrSummarizeFailed   = errors.New("history summarization failed")
	ErrAborted           = errors.New("activity aborted")
	ErrTimedOut          = errors.New("activity timed out")
	ErrInvalidActivity   = errors.New("activity result needs an activity id")
)
