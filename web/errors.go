package web

import (
	"fmt"
)

const (
	// CodeNoOp is the error code the server uses when an operation would
	// not change anything, e.g. adding an object to a folder it is already
	// in.
	CodeNoOp = 99

	// CodeDependencyFailed is the code of the error given to a simulated
	// batch call whose referenced call did not succeed.
	CodeDependencyFailed = -1

	// TypeDependency is the type of a CodeDependencyFailed error.
	TypeDependency = "dependency"
)

// ConnectionError is returned when the server could not be reached or sent
// something that is not a valid response.  It is never retried.
type ConnectionError struct {
	// Function is the remote function that was being called.
	Function string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (err *ConnectionError) Error() string {
	return fmt.Sprintf("connection error calling %q: %v", err.Function, err.Err)
}

// Unwrap returns the cause of the connection error.
func (err *ConnectionError) Unwrap() error { return err.Err }

// ApplicationError is returned when the server explicitly reports that a
// call failed.
type ApplicationError struct {
	// Call is the name of the failed call: the batch call name or the
	// remote function for a single call.
	Call string

	Message string
	Code    int
	Type    string
}

// Error implements the error interface.
func (err *ApplicationError) Error() string {
	return fmt.Sprintf(
		"call %q failed: %v (code: %d, type: %q)",
		err.Call, err.Message, err.Code, err.Type)
}

// IsConnectionError reports whether err is a *ConnectionError.
func IsConnectionError(err error) bool {
	_, ok := err.(*ConnectionError)
	return ok
}

// IsApplicationError gets the *ApplicationError from err, if it is one.
func IsApplicationError(err error) (*ApplicationError, bool) {
	ae, ok := err.(*ApplicationError)
	return ae, ok
}

// Translate checks the result of the named call.  It returns nil if the
// call succeeded.  Otherwise the failure is logged and returned as an
// *ApplicationError.
func Translate(call string, r Result) error {
	if r.Success {
		return nil
	}
	err := newApplicationError(call, r)
	logger.Error(
		"error from call %q: %v (code: %d, type: %q)",
		err.Call, err.Message, err.Code, err.Type)
	return err
}

func newApplicationError(call string, r Result) *ApplicationError {
	e := r.Err
	if e == nil {
		e = &RemoteError{Message: "unspecified error"}
	}
	return &ApplicationError{
		Call:    call,
		Message: e.Message,
		Code:    e.Code,
		Type:    e.Type,
	}
}

// Outcome distinguishes a call that changed something from one that had
// nothing to do.
type Outcome int

const (
	// Failure is the outcome of a call that failed.  It always comes with
	// an error.
	Failure Outcome = iota

	// Success means the call did what was asked.
	Success

	// NoOp means the server reported that there was nothing to do.
	NoOp
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NoOp:
		return "no-op"
	}
	return "failure"
}

// Changed reports whether the outcome is Success.
func (o Outcome) Changed() bool { return o == Success }

// OutcomeOf classifies the result of the named call.  Failures with one of
// the noOpCodes are reported as NoOp without an error; all other failures
// are translated.
func OutcomeOf(call string, r Result, noOpCodes ...int) (Outcome, error) {
	if r.Success {
		return Success, nil
	}
	if r.Err != nil {
		for _, code := range noOpCodes {
			if r.Err.Code == code {
				logger.Debug2(
					"call %q had nothing to do: %v",
					call, r.Err.Message)
				return NoOp, nil
			}
		}
	}
	return Failure, Translate(call, r)
}
