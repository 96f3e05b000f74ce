// Package experience derives the candidate experience items a user picks from during
// the Experience stage, and tracks which ones they selected and elaborated on.
package experience

import "fmt"

// DecodeError is returned when an analysis section cannot be read.
type DecodeError struct {
	Section string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Section, e.Cause)
	}
	return fmt.Sprintf("decode error: %s", e.Section)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// UnknownItemError is returned when a selection refers to an item that is not a candidate.
type UnknownItemError struct {
	ID string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown experience item %q", e.ID)
}
