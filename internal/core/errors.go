package core

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of a domain error.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindOutOfRange         Kind = "OUT_OF_RANGE"
	KindTooEarly           Kind = "TOO_EARLY"
	KindShiftNotConfigured Kind = "SHIFT_NOT_CONFIGURED"
	KindAlreadyCheckedIn   Kind = "ALREADY_CHECKED_IN"
	KindAlreadyCheckedOut  Kind = "ALREADY_CHECKED_OUT"
	KindNoCheckInYet       Kind = "NO_CHECK_IN_YET"
	KindOnLeave            Kind = "ON_LEAVE"
	KindOverlap            Kind = "OVERLAP"
	KindInvalidRange       Kind = "INVALID_RANGE"
	KindAlreadyDecided     Kind = "ALREADY_DECIDED"
	KindNotFound           Kind = "NOT_FOUND"
	KindForbidden          Kind = "FORBIDDEN"
	KindStorage            Kind = "STORAGE"
)

// Error is a domain error. Two errors match under errors.Is when their kinds are equal.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil && e.kind == KindStorage {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	t, ok := target.(interface{ Kind() Kind })
	return ok && t.Kind() == e.kind
}

// Sentinels for errors.Is.
var (
	ErrValidation         = &Error{kind: KindValidation, msg: "validation failed"}
	ErrOutOfRange         = &Error{kind: KindOutOfRange, msg: "outside the office geofence"}
	ErrTooEarly           = &Error{kind: KindTooEarly, msg: "shift has not ended yet"}
	ErrShiftNotConfigured = &Error{kind: KindShiftNotConfigured, msg: "shift end time is not configured"}
	ErrAlreadyCheckedIn   = &Error{kind: KindAlreadyCheckedIn, msg: "already checked in today"}
	ErrAlreadyCheckedOut  = &Error{kind: KindAlreadyCheckedOut, msg: "already checked out today"}
	ErrNoCheckInYet       = &Error{kind: KindNoCheckInYet, msg: "no check-in found for today"}
	ErrOnLeave            = &Error{kind: KindOnLeave, msg: "day is covered by approved leave or WFH"}
	ErrOverlap            = &Error{kind: KindOverlap, msg: "request overlaps an existing leave or WFH request"}
	ErrInvalidRange       = &Error{kind: KindInvalidRange, msg: "end date is before start date"}
	ErrAlreadyDecided     = &Error{kind: KindAlreadyDecided, msg: "request has already been decided"}
	ErrNotFound           = &Error{kind: KindNotFound, msg: "not found"}
	ErrForbidden          = &Error{kind: KindForbidden, msg: "forbidden"}
	ErrStorage            = &Error{kind: KindStorage, msg: "storage failure"}
)

func validationf(format string, args ...any) error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return &Error{kind: KindNotFound, msg: what + " not found"}
}

func forbidden(msg string) error {
	return &Error{kind: KindForbidden, msg: msg}
}

// storage wraps an adapter error that has no domain meaning.
func storage(op string, err error) error {
	return &Error{kind: KindStorage, msg: op, err: err}
}

// OutOfRangeError reports how far outside the geofence a coordinate was.
type OutOfRangeError struct {
	Distance float64
	Radius   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("outside the office geofence: %.1f m from office, allowed radius %.1f m", e.Distance, e.Radius)
}

func (e *OutOfRangeError) Kind() Kind { return KindOutOfRange }

func (e *OutOfRangeError) Is(target error) bool {
	t, ok := target.(interface{ Kind() Kind })
	return ok && t.Kind() == KindOutOfRange
}

// KindOf returns the kind of the first domain error in err's chain. Errors
// that carry no kind are STORAGE.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindStorage
}
