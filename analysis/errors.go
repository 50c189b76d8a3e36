package analysis

import "errors"

var (
	// ErrInsufficientHistory is returned when a week comparison has fewer than two weeks to choose from.
	ErrInsufficientHistory = errors.New("insufficient history: at least two weeks of data are required")
	// ErrEmptySelection is returned when no sensor produced a reading for the requested range.
	ErrEmptySelection = errors.New("empty selection: no readings in the requested range")
	// ErrAlignmentMismatch is returned when two non-empty streams share no timestamp.
	ErrAlignmentMismatch = errors.New("alignment mismatch: streams share no timestamps")
	ErrUnknownWeek       = errors.New("unknown week")
	ErrInvalidRequest    = errors.New("invalid request")
)
