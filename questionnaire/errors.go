package questionnaire

import "errors"

var (
	// ErrInvalidState is returned when an operation is called outside the
	// phase it is valid in, e.g. Commit with nothing staged.
	ErrInvalidState = errors.New("questionnaire: invalid state")

	ErrUnknownCategory = errors.New("questionnaire: unknown category")
)
