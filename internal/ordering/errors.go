package ordering

import "net/http"

type ErrorCode string

const (
	ErrValidation           ErrorCode = "VALIDATION_ERROR"
	ErrInvalidPhone         ErrorCode = "INVALID_PHONE"
	ErrInvalidPostalCode    ErrorCode = "INVALID_POSTAL_CODE"
	ErrInvalidDateTime      ErrorCode = "INVALID_DATETIME"
	ErrLeadTimeNotMet       ErrorCode = "LEAD_TIME_NOT_MET"
	ErrItemNotEligible      ErrorCode = "ITEM_NOT_ELIGIBLE"
	ErrItemUnavailable      ErrorCode = "ITEM_UNAVAILABLE"
	ErrBranchNotFound       ErrorCode = "BRANCH_NOT_FOUND"
	ErrBranchNoCoordinates  ErrorCode = "BRANCH_LOCATION_MISSING"
	ErrInvalidPaymentMethod ErrorCode = "INVALID_PAYMENT_METHOD"
	ErrOrderNotFound        ErrorCode = "ORDER_NOT_FOUND"
	ErrPaymentStateConflict ErrorCode = "PAYMENT_STATE_CONFLICT"
	ErrPaymentNotConfirmed  ErrorCode = "PAYMENT_NOT_CONFIRMED"
	ErrCourierNotRequired   ErrorCode = "COURIER_NOT_REQUIRED"
	ErrCourierAlreadyBooked ErrorCode = "COURIER_ALREADY_BOOKED"
	ErrCourierInProgress    ErrorCode = "COURIER_BOOKING_IN_PROGRESS"
	ErrMissingCoordinates   ErrorCode = "MISSING_COORDINATES"
	ErrCourierLeadTime      ErrorCode = "COURIER_LEAD_TIME_NOT_MET"
	ErrCourierProvider      ErrorCode = "COURIER_PROVIDER_ERROR"
	ErrInternal             ErrorCode = "INTERNAL_ERROR"
)

// Error carries a machine-checkable code alongside the human-readable
// reason, so clients can branch on rejections instead of string-matching.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string, status int) *Error {
	return &Error{Code: code, Message: message, StatusCode: status}
}

func ValidationError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusBadRequest)
}

func ConflictError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusConflict)
}

func NotFoundError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusNotFound)
}

func InternalError(message string) *Error {
	return newError(ErrInternal, message, http.StatusInternalServerError)
}

func BadGatewayError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusBadGateway)
}
