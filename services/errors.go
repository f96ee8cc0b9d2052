package services

import (
	"errors"
	"fmt"
	"time"

	"bnbillains/utils"
)

// ErrValidation is matched by every business-rule failure via errors.Is.
var ErrValidation = errors.New("validation")

type ErrorKind string

const (
	KindInvalidRange ErrorKind = "invalid_range"
	KindOverbooking  ErrorKind = "overbooking"
	KindNotFound     ErrorKind = "not_found"
	KindDuplicate    ErrorKind = "duplicate"
	KindInvalidInput ErrorKind = "invalid_input"
)

// ValidationError carries a message that can be shown to the end user as is.
type ValidationError struct {
	Kind    ErrorKind
	Message string

	// Set for KindOverbooking: the range of the first conflicting reservation.
	ConflictStart time.Time
	ConflictEnd   time.Time
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// KindOf returns the kind of a ValidationError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func errInvalidRange() error {
	return &ValidationError{Kind: KindInvalidRange, Message: "The end date must be after the start date."}
}

func errOverbooking(lairID uint, conflict Stay) error {
	return &ValidationError{
		Kind: KindOverbooking,
		Message: fmt.Sprintf("Lair %d is already booked from %s to %s.",
			lairID, utils.FormatDate(conflict.Start), utils.FormatDate(conflict.End)),
		ConflictStart: conflict.Start,
		ConflictEnd:   conflict.End,
	}
}

func errNotFound(entity string, id uint) error {
	return &ValidationError{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found.", entity, id)}
}

func errDuplicate(format string, args ...any) error {
	return &ValidationError{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

func errInvalidInput(format string, args ...any) error {
	return &ValidationError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}
