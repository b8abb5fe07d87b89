package errors

import "net/http"

func BadRequest(reason, msg string) *Error {
	return NewError(http.StatusBadRequest, reason, msg)
}

func InternalServer(reason, message string) *Error {
	return NewError(http.StatusInternalServerError, reason, message)
}

func ServiceUnavailable(reason, message string) *Error {
	return NewError(http.StatusServiceUnavailable, reason, message)
}

func TooManyRequests(reason, message string) *Error {
	return NewError(http.StatusTooManyRequests, reason, message)
}

func Timeout(reason, message string) *Error {
	return NewError(http.StatusGatewayTimeout, reason, message)
}

// Configuration builds a configuration error for reason, naming the offending type and,
// when known, the member (constructor, method or parameter) at fault.
func Configuration(reason, typeName, member, msg string) *Error {
	code, ok := configurationCodes[reason]
	if !ok {
		code = ConfigurationMinCode
	}
	md := map[string]string{"type": typeName}
	if member != "" {
		md["member"] = member
	}
	e := NewError(code, reason, msg)
	e.Metadata = md
	return e
}

// IsConfiguration reports whether err is, or wraps, a configuration error.
func IsConfiguration(err error) bool {
	se := new(Error)
	if !As(err, &se) {
		return false
	}
	return se.Code >= ConfigurationMinCode && se.Code <= ConfigurationMaxCode
}

func IsReason(err error, reason string) bool {
	se := new(Error)
	if !As(err, &se) {
		return false
	}
	return se.Reason == reason
}

func IsServiceUnavailable(err error) bool {
	return Code(err) == http.StatusServiceUnavailable
}

func IsInternalServer(err error) bool {
	return Code(err) == http.StatusInternalServerError
}

func IsTimeout(err error) bool {
	return Code(err) == http.StatusGatewayTimeout
}
