package frustal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidScale = errors.New("scale must be positive and finite")
	ErrOutOfRange   = errors.New("value out of range")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

// ParamError reports a rejected assignment to a Domain or Options field.
// The target is left unchanged whenever a ParamError is returned.
type ParamError struct {
	Field string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("%s=%s: %s", e.Field, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

func paramErr(field string, value any, err error) *ParamError {
	return &ParamError{Field: field, Value: fmt.Sprint(value), Err: err}
}
