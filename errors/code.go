package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

const (
	UnknownReason = "UNKNOWN_REASON"
	UnknownCode   = 600

	InvalidParam   = "PARAM_INVALID"
	ParamValidCode = 601

	Panic     = "SERVER_SLEEPY"
	PanicCode = 603

	RequestBad          = "BAD_REQUEST"
	InternalServerError = "INTERNAL_SERVER"
	Unavailable         = "SERVICE_UNAVAILABLE"
	RateLimited         = "RATE_LIMITED"
	DeadlineExceeded    = "DEADLINE_EXCEEDED"

	ClientClosed = 499
)

// configuration errors: structural, raised while a pipeline is built

const (
	ConfigurationMinCode = 700
	ConfigurationMaxCode = 799

	NoConstructor                       = "NO_CONSTRUCTOR"
	MultipleConstructors                = "MULTIPLE_CONSTRUCTORS"
	NoCompatibleConstructor             = "NO_COMPATIBLE_CONSTRUCTOR"
	NoInvokeMethod                      = "NO_INVOKE_METHOD"
	MultipleInvokeMethods               = "MULTIPLE_INVOKE_METHODS"
	InvokeMethodWrongReturnType         = "INVOKE_METHOD_WRONG_RETURN_TYPE"
	InvokeMethodMissingContextParameter = "INVOKE_METHOD_MISSING_CONTEXT_PARAMETER"
	ByRefParameterNotSupported          = "BY_REF_PARAMETER_NOT_SUPPORTED"
	ContextNotServiceProvider           = "CONTEXT_NOT_SERVICE_PROVIDER"
	ServiceResolutionFailure            = "SERVICE_RESOLUTION_FAILURE"
	VariadicParameterNotSupported       = "VARIADIC_PARAMETER_NOT_SUPPORTED"
	ArgumentMismatch                    = "ARGUMENT_MISMATCH"
	ConstructionFailure                 = "CONSTRUCTION_FAILURE"
	NilMiddleware                       = "NIL_MIDDLEWARE"
	UnknownMiddleware                   = "UNKNOWN_MIDDLEWARE"
)

var configurationCodes = map[string]int{
	NoConstructor:                       701,
	MultipleConstructors:                702,
	NoCompatibleConstructor:             703,
	NoInvokeMethod:                      704,
	MultipleInvokeMethods:               705,
	InvokeMethodWrongReturnType:         706,
	InvokeMethodMissingContextParameter: 707,
	ByRefParameterNotSupported:          708,
	ContextNotServiceProvider:           709,
	ServiceResolutionFailure:            710,
	VariadicParameterNotSupported:       711,
	ArgumentMismatch:                    712,
	ConstructionFailure:                 713,
	NilMiddleware:                       714,
	UnknownMiddleware:                   715,
}

func HTTPToGRPCCode(code int) codes.Code {
	switch code {
	case http.StatusOK:
		return codes.OK
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.Aborted
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusInternalServerError:
		return codes.Internal
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case ClientClosed:
		return codes.Canceled
	}
	return codes.Unknown
}

// ToGRPCCode maps http style codes and the pipeline's own code ranges onto grpc codes.
func ToGRPCCode(code int) codes.Code {
	switch {
	case code >= ConfigurationMinCode && code <= ConfigurationMaxCode:
		return codes.FailedPrecondition
	case code == PanicCode:
		return codes.Internal
	case code == ParamValidCode:
		return codes.InvalidArgument
	}
	return HTTPToGRPCCode(code)
}

func FromGRPCCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return ClientClosed
	case codes.Unknown:
		return http.StatusInternalServerError
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Aborted:
		return http.StatusConflict
	case codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Internal:
		return http.StatusInternalServerError
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DataLoss:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
