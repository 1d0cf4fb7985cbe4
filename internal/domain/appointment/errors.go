package appointment

import (
	"fmt"
	"net/http"
)

// RejectCode identifies why a booking or mutation request was refused.
// These are expected outcomes of normal use, not faults: handlers return
// them to the client without error-level logging.
type RejectCode string

const (
	CodePastTime          RejectCode = "PAST_TIME"
	CodeDoctorNotFound    RejectCode = "DOCTOR_NOT_FOUND"
	CodeDoctorNotApproved RejectCode = "DOCTOR_NOT_APPROVED"
	CodeMissingDate       RejectCode = "MISSING_DATE"
	CodeMissingStart      RejectCode = "MISSING_START"
	CodeInvalidTime       RejectCode = "INVALID_TIME"
	CodeNotesTooLong      RejectCode = "NOTES_TOO_LONG"
	CodeDoctorOnLeave     RejectCode = "DOCTOR_ON_LEAVE"
	CodeNotWorkingThisDay RejectCode = "DOCTOR_NOT_WORKING_THIS_DAY"
	CodeOutsideHours      RejectCode = "OUTSIDE_WORKING_HOURS"
	CodeSlotTaken         RejectCode = "SLOT_TAKEN"
	CodeAlreadyCancelled  RejectCode = "ALREADY_CANCELLED"
	CodeInvalidStatus     RejectCode = "INVALID_STATUS"
	CodeForbidden         RejectCode = "FORBIDDEN"
	CodeNotFound          RejectCode = "NOT_FOUND"
)

// RejectError is a structured business-rule rejection with a machine-readable
// code and a human-readable message.
type RejectError struct {
	Code    RejectCode `json:"code"`
	Message string     `json:"message"`
}

func (e *RejectError) Error() string { return e.Message }

// HTTPStatus maps the rejection to its response status.
func (e *RejectError) HTTPStatus() int {
	switch e.Code {
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func reject(code RejectCode, format string, args ...interface{}) *RejectError {
	return &RejectError{Code: code, Message: fmt.Sprintf(format, args...)}
}
