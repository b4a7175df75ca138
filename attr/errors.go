package attr

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrNonFiniteNumber = errors.New("non-finite number")
)

// DecodeError describes a tagged value that could not be unwrapped.
type DecodeError struct {
	// Tag is the member that was found. Empty when the value carried none of
	// S, N, BOOL, L or M.
	Tag string
	Err error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("invalid %s value: %s", e.Tag, e.Err.Error())
	case e.Tag == "":
		return "value carries none of S, N, BOOL, L, M"
	default:
		return fmt.Sprintf("unrecognised tag %s", e.Tag)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SkipError is returned by Result.Err when a conversion left something out.
type SkipError struct {
	Skipped []Skip
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%d value(s) skipped: %s", len(e.Skipped), describeSkips(e.Skipped))
}

func (e *SkipError) Unwrap() []error {
	errs := make([]error, 0, len(e.Skipped))
	for _, s := range e.Skipped {
		errs = append(errs, s.Err)
	}
	return errs
}
