package model

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired = errors.New("model: name is required")
	ErrItemNotFound = errors.New("model: routine item not found")
	ErrDuplicateID  = errors.New("model: duplicate id")

	// ErrDuplicateName is returned when a routine already has an item with
	// the same name, compared case-insensitively.
	ErrDuplicateName = errors.New("model: duplicate item name")

	// ErrDecode matches every *DecodeError through errors.Is.
	ErrDecode = errors.New("model: malformed persisted data")
)

// DecodeError reports persisted data that could not be turned back into an
// aggregate. Source names the record (a table row or document path) and
// Field the offending attribute.
type DecodeError struct {
	Source string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decode field %s: %v", e.Field, e.Err)
	}
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("decode %s: field %s: %v", e.Source, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
