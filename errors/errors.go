package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

const errStack = "err_stack"

type Status struct {
	Code     int32             `json:"code"`
	Reason   string            `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error is a Status that may wrap a cause. Err holds a cause's text once it has crossed a
// grpc boundary and the cause itself is gone.
type Error struct {
	Status
	Err string `json:"error,omitempty"`
	error
}

// Error reads "REASON (code): message key=value...: cause".
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d): %s", e.Reason, e.Code, e.Message)
	keys := make([]string, 0, len(e.Metadata))
	for k, v := range e.Metadata {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, e.Metadata[k])
	}
	switch {
	case e.error != nil:
		b.WriteString(": " + e.error.Error())
	case e.Err != "":
		b.WriteString(": " + e.Err)
	}
	return b.String()
}

func NewError(code int, reason, msg string) *Error {
	return &Error{
		Status: Status{
			Code:    int32(code),
			Reason:  reason,
			Message: msg,
		},
	}
}

func (e *Error) Unwrap() error {
	return e.error
}

// Is reports whether err is an *Error with the same code and reason.
func (e *Error) Is(err error) bool {
	if se := new(Error); errors.As(err, &se) {
		return se.Code == e.Code && se.Reason == e.Reason
	}
	return false
}

func (e *Error) WithError(cause error) *Error {
	err := clone(e)
	err.error = cause
	return err
}

func (e *Error) WithMetadata(md map[string]string) *Error {
	err := clone(e)
	for k, v := range md {
		err.Metadata[k] = v
	}
	return err
}

func (e *Error) WithMessage(msg string) *Error {
	err := clone(e)
	err.Message = msg
	return err
}

// GRPCStatus writes the code, reason and metadata into a grpc status so the error
// survives a grpc boundary.
func (e *Error) GRPCStatus() *status.Status {
	eInfo := &errdetails.ErrorInfo{
		Reason:   e.Reason,
		Metadata: make(map[string]string, len(e.Metadata)+1),
	}
	for k, v := range e.Metadata {
		eInfo.Metadata[k] = v
	}
	if e.error != nil {
		eInfo.Metadata[errStack] = fmt.Sprintf("%+v", e.error)
	}
	s, _ := status.New(ToGRPCCode(int(e.Code)), e.Message).WithDetails(eInfo)
	return s
}

func Code(err error) int {
	if err == nil {
		return 0
	}
	return int(FromError(err).Code)
}

func Reason(err error) string {
	if err == nil {
		return UnknownReason
	}
	return FromError(err).Reason
}

func clone(err *Error) *Error {
	metadata := make(map[string]string, len(err.Metadata))
	for k, v := range err.Metadata {
		metadata[k] = v
	}
	return &Error{
		error: err.error,
		Status: Status{
			Code:     err.Code,
			Reason:   err.Reason,
			Message:  err.Message,
			Metadata: metadata,
		},
		Err: err.Err,
	}
}

// FromError converts err to an *Error, decoding grpc status details when present.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if se := new(Error); errors.As(err, &se) {
		return se
	}
	gs, ok := status.FromError(err)
	if !ok {
		return NewError(UnknownCode, UnknownReason, err.Error()).WithError(err)
	}
	ret := NewError(FromGRPCCode(gs.Code()), UnknownReason, gs.Message())
	for _, detail := range gs.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			ret.Reason = d.Reason
			ret = ret.WithMetadata(d.Metadata)
			ret.Err = ret.Metadata[errStack]
			delete(ret.Metadata, errStack)
			return ret
		}
	}
	return ret
}

// Wrap annotates err with a stack trace and message.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// HasStack reports whether err, or anything it wraps, carries a stack trace.
func HasStack(err error) bool {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	var st stackTracer
	return errors.As(err, &st)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}
