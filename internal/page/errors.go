package page

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("element not found")
	ErrStale       = errors.New("stale element reference")
	ErrTimeout     = errors.New("timed out")
	ErrUnsupported = errors.New("locator kind not supported")
)

// Error is returned by Accessor operations. Every Error is local to the unit
// of work that triggered it.
type Error struct {
	Op      string
	Locator string
	Err     error
}

func (e *Error) Error() string {
	if e.Locator != "" {
		return fmt.Sprintf("page %s %s: %v", e.Op, e.Locator, e.Err)
	}
	return fmt.Sprintf("page %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err.
func Wrap(op string, loc *Locator, err error) error {
	if err == nil {
		return nil
	}
	pe := &Error{Op: op, Err: err}
	if loc != nil {
		pe.Locator = loc.String()
	}
	return pe
}
