package fetch

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes pipeline failures.
type ErrorKind string

const (
	// KindNetwork is a failed round trip: DNS, refused connection, timeout.
	KindNetwork ErrorKind = "network"
	// KindStatus is a response with a non-2xx status code.
	KindStatus ErrorKind = "status"
	// KindParse is a body that could not be read or understood.
	KindParse ErrorKind = "parse"
	// KindIntegrity is data that is structurally present but unusable.
	KindIntegrity ErrorKind = "integrity"
)

// Error describes a failed fetch of URL.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: %s returned %s", e.Kind, e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.URL)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is a non-2xx response, returning its status code.
func IsStatus(err error) (int, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == KindStatus {
		return fe.StatusCode, true
	}
	return 0, false
}

// KindOf returns the ErrorKind of err, or an empty kind when err is not an *Error.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
