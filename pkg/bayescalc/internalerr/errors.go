package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrUnknownVariable    = errors.New("unknown variable")
	ErrDomainValue        = errors.New("value not in variable domain")
	ErrImpossibleEvidence = errors.New("evidence has zero probability")
	ErrMalformedQuery     = errors.New("malformed query")
	ErrInvalidNetwork     = errors.New("invalid network definition")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// UnknownVariableError reports a reference to a variable that is not part of
// the network. Matches ErrUnknownVariable via errors.Is.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

func (e *UnknownVariableError) Unwrap() error { return ErrUnknownVariable }

// DomainValueError reports an assignment of a value outside a variable's
// declared domain. Matches ErrDomainValue via errors.Is.
type DomainValueError struct {
	Variable string
	Value    string
}

func (e *DomainValueError) Error() string {
	return fmt.Sprintf("value %q is not in the domain of variable %q", e.Value, e.Variable)
}

func (e *DomainValueError) Unwrap() error { return ErrDomainValue }
