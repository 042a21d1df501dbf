package errutil

import "net/http"

// CoreStatus is the transport-agnostic error class carried by BaseError.
type CoreStatus string

const (
	StatusBadRequest          CoreStatus = "BAD_REQUEST"
	StatusUnauthorized        CoreStatus = "UNAUTHORIZED"
	StatusForbidden           CoreStatus = "FORBIDDEN"
	StatusNotFound            CoreStatus = "NOT_FOUND"
	StatusConflict            CoreStatus = "CONFLICT"
	StatusUnprocessableEntity CoreStatus = "UNPROCESSABLE_ENTITY"
	StatusValidationFailed    CoreStatus = "VALIDATION_FAILED"
	StatusTooManyRequests     CoreStatus = "TOO_MANY_REQUESTS"
	StatusClientClosedRequest CoreStatus = "CLIENT_CLOSED_REQUEST"
	StatusTimeout             CoreStatus = "TIMEOUT"
	StatusInternal            CoreStatus = "INTERNAL"
	StatusNotImplemented      CoreStatus = "NOT_IMPLEMENTED"
	StatusBadGateway          CoreStatus = "BAD_GATEWAY"
	StatusUnknown             CoreStatus = "UNKNOWN"
)

// HTTPStatus maps the CoreStatus to its closest HTTP status code.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict:
		return http.StatusConflict
	case StatusUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case StatusTooManyRequests:
		return http.StatusTooManyRequests
	case StatusClientClosedRequest:
		// non-standard nginx code, closest fit for a cancelled caller
		return 499
	case StatusTimeout:
		return http.StatusGatewayTimeout
	case StatusNotImplemented:
		return http.StatusNotImplemented
	case StatusBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
