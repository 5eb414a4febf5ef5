package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the dispatcher wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrDuplicateID       = errors.New("duplicate id")
	ErrNotFound          = errors.New("not found")
	ErrNotEmpty          = errors.New("cabin not empty")
	ErrNoCabinAtLocation = errors.New("no cabin at location")
	ErrCabinFull         = errors.New("cabin full")
	ErrNoCabinAvailable  = errors.New("no cabin available")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrPassengerNotFound = errors.New("passenger not found")
	ErrAlreadyMoving     = errors.New("cabin already moving")
	ErrAlreadyStopped    = errors.New("cabin already stopped")
	ErrInvalid           = errors.New("invalid input")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrDuplicateID, "duplicate_id"},
	{ErrNotFound, "not_found"},
	{ErrNotEmpty, "not_empty"},
	{ErrNoCabinAtLocation, "no_cabin_at_location"},
	{ErrCabinFull, "cabin_full"},
	{ErrNoCabinAvailable, "no_cabin_available"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrPassengerNotFound, "passenger_not_found"},
	{ErrAlreadyMoving, "already_moving"},
	{ErrAlreadyStopped, "already_stopped"},
	{ErrInvalid, "validation_error"},
}

// Code returns the stable snake_case code of the error kind, or "" when err
// carries none.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

type NotFoundError struct {
	Resource string
	ID       ID
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.ID != 0 {
		return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error {
	if e.Err == nil {
		return ErrNotFound
	}
	return e.Err
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return ErrInvalid }

// ConflictError reports an operation rejected by the current state of a
// resource (duplicate id, occupied cabin, wrong movement state, full cabin).
type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "" && e.Err != nil:
		return fmt.Sprintf("%s conflict: %v", e.Resource, e.Err)
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// DispatchError reports that no cabin could be selected at a station.
// Err is one of ErrNoCabinAtLocation, ErrCabinFull, ErrNoCabinAvailable.
type DispatchError struct {
	Station Station
	Err     error
}

func (e DispatchError) Error() string {
	return fmt.Sprintf("dispatch at %s: %v", e.Station, e.Err)
}

func (e DispatchError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsDispatch(err error) bool {
	var target DispatchError
	return errors.As(err, &target)
}
