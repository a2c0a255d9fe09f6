package planner

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by operations that need a configured
// planner calendar when none is set.
var ErrNotConfigured = errors.New("no planner calendar configured")

// ErrorCode categorizes reconciliation errors.
type ErrorCode string

const (
	// ErrCodeStoreFailure indicates a structural calendar-store failure:
	// the store was unreachable or returned a malformed response. The
	// operation aborted and no state was mutated on its behalf.
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"

	// ErrCodeCalendarGone indicates the configured calendar could not be
	// resolved at a point where the operation cannot proceed without it.
	ErrCodeCalendarGone ErrorCode = "CALENDAR_GONE"

	// ErrCodeProvisionFailed indicates the planner calendar could not be
	// found or created. Escalated to the user: the calendar feature can
	// not be enabled.
	ErrCodeProvisionFailed ErrorCode = "PROVISION_FAILED"
)

// ReconcileError is a categorized error from one of the reconciliation
// engines.
type ReconcileError struct {
	Code    ErrorCode
	Message string
	Handle  int64 // affected calendar handle, 0 when not applicable
	Err     error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Handle != 0 {
		msg = fmt.Sprintf("%s (calendar=%d)", msg, e.Handle)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// IsStoreFailure reports whether err is a structural store failure.
// Uses errors.As to handle wrapped errors.
func IsStoreFailure(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Code == ErrCodeStoreFailure
}

// IsProvisionFailed reports whether err is a provisioning failure.
func IsProvisionFailed(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Code == ErrCodeProvisionFailed
}

// IsCalendarGone reports whether err means the configured calendar could
// not be resolved.
func IsCalendarGone(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Code == ErrCodeCalendarGone
}

func newStoreFailure(message string, handle int64, err error) *ReconcileError {
	return &ReconcileError{Code: ErrCodeStoreFailure, Message: message, Handle: handle, Err: err}
}

func newCalendarGone(handle int64) *ReconcileError {
	return &ReconcileError{
		Code:    ErrCodeCalendarGone,
		Message: "could not retrieve configured calendar",
		Handle:  handle,
	}
}

func newProvisionFailed(message string, err error) *ReconcileError {
	return &ReconcileError{Code: ErrCodeProvisionFailed, Message: message, Err: err}
}
