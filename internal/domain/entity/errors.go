package entity

import (
	"errors"
	"fmt"
)

// RequestError is returned by the remote task client for transport failures
// and non-2xx responses.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	ErrorKindTransport     ErrorKind = "transport"
	ErrorKindRemoteFailure ErrorKind = "remote_failure"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindDecode        ErrorKind = "decode"
	ErrorKindCanceled      ErrorKind = "canceled"
)

// OperationError is the failure of one shopping operation. Operation
// boundaries convert it into the operation's normal result type.
type OperationError struct {
	Op      string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first OperationError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind, true
	}
	return "", false
}
