package engine

import (
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

type Kind int

const (
	// KindTransport means the service could not be reached.
	KindTransport Kind = iota
	// KindAuthentication means the credentials or the session were rejected.
	KindAuthentication
	// KindParse means the page did not contain the expected markers.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuthentication:
		return "authentication"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

var (
	ErrTransport      = errors.New("transport error")
	ErrAuthentication = errors.New("authentication error")
	ErrParse          = errors.New("parse error")
)

// Error is returned by every failing Engine.Query.
type Error struct {
	Kind    Kind
	Engine  string
	Message string
	// DebugInfo is the raw page (or transport error) that caused the failure,
	// it is only shown to the operator in debug mode.
	DebugInfo string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) and friends match on Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrParse:
		return e.Kind == KindParse
	}
	return false
}

// DebugInfo returns the diagnostic payload carried by err, if any.
func DebugInfo(err error) string {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.DebugInfo
	}
	return ""
}

func transportError(engine, url string, err error) *Error {
	return &Error{
		Kind:      KindTransport,
		Engine:    engine,
		Message:   fmt.Sprintf("can't query %s (%s)", engine, url),
		DebugInfo: err.Error(),
		Err:       err,
	}
}

func authError(engine, message, body string, err error) *Error {
	return &Error{
		Kind:      KindAuthentication,
		Engine:    engine,
		Message:   message,
		DebugInfo: body,
		Err:       err,
	}
}

func parseError(engine, message, body string, err error) *Error {
	return &Error{
		Kind:      KindParse,
		Engine:    engine,
		Message:   message,
		DebugInfo: body,
		Err:       err,
	}
}

// statusError is a transport error for a response that came back with a 4xx or 5xx.
func statusError(engine string, res *resty.Response, body string) *Error {
	return &Error{
		Kind:      KindTransport,
		Engine:    engine,
		Message:   fmt.Sprintf("can't query %s (%s)", engine, res.Request.URL),
		DebugInfo: body,
		Err:       fmt.Errorf("unexpected status %s", res.Status()),
	}
}
