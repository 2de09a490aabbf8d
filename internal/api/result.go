package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindNone      ErrorKind = iota
	KindTransport           // network, timeout, cancelled context
	KindStatus              // non-2xx response
	KindDecode              // body could not be decoded
	KindRejected            // 2xx with a failing success predicate
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindRejected:
		return "rejected"
	default:
		return "none"
	}
}

var (
	ErrTransport = errors.New("transport failure")
	ErrStatus    = errors.New("unexpected status")
	ErrDecode    = errors.New("malformed response")
	ErrRejected  = errors.New("request rejected")
)

// Error is the error form of a failed Result.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrRejected:
		return e.Kind == KindRejected
	}
	return false
}

// Result is the outcome of every remote operation. Exactly one of Data or
// Error is meaningful, as selected by Success.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	Kind    ErrorKind
	Status  int
}

// Err returns nil on success and an *Error otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Status: r.Status, Message: r.Error}
}

func ok[T any](data T, status int) Result[T] {
	return Result[T]{Success: true, Data: data, Status: status}
}

func fail[T any](kind ErrorKind, status int, format string, args ...interface{}) Result[T] {
	return Result[T]{Kind: kind, Status: status, Error: fmt.Sprintf(format, args...)}
}

// Failed re-types the error variant of r.
func Failed[T, U any](r Result[U]) Result[T] {
	return Result[T]{Kind: r.Kind, Status: r.Status, Error: r.Error}
}
