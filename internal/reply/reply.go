// Package reply defines the business status codes shared by every route and
// the JSON envelopes they are rendered into.
package reply

import (
	"errors"
	"fmt"
)

// Code is the application-level status carried in every envelope. It is
// independent of the transport status.
type Code uint16

const (
	CodeOK Code = iota
	CodeWorkspaceRoot
	CodeIsAbsolute
	CodeAlreadyExists
	CodeMissingParent
	CodeNotFound
	CodeNotADirectory
	CodeIsADirectory
	CodeUserNotFound
	CodeIncorrectPassword
	CodeFileExpected
	CodeMissingFileName
	CodeResourceTooLarge
	CodeOutsideWorkspace
	CodeInvalidName
	CodeNotRegularFile
)

// Error is a business error with a stable code. Two errors are equal under
// errors.Is when their codes match, so parameterised messages still compare
// against the sentinels below.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrWorkspaceRoot     = &Error{CodeWorkspaceRoot, "try to operate the workspace root"}
	ErrIsAbsolute        = &Error{CodeIsAbsolute, "path is absolute"}
	ErrAlreadyExists     = &Error{CodeAlreadyExists, "file has already existed"}
	ErrMissingParent     = &Error{CodeMissingParent, "missing parent directory"}
	ErrNotFound          = &Error{CodeNotFound, "no such file or directory"}
	ErrNotADirectory     = &Error{CodeNotADirectory, "path isn't a directory"}
	ErrIsADirectory      = &Error{CodeIsADirectory, "path is a directory"}
	ErrUserNotFound      = &Error{CodeUserNotFound, "no such user in registry"}
	ErrIncorrectPassword = &Error{CodeIncorrectPassword, "input password is incorrect"}
	ErrFileExpected      = &Error{CodeFileExpected, "a file is expected in request"}
	ErrMissingFileName   = &Error{CodeMissingFileName, "missing file name in Content-Disposition"}
	ErrResourceTooLarge  = &Error{CodeResourceTooLarge, "uploaded resource is larger than the upper limit"}
	ErrOutsideWorkspace  = &Error{CodeOutsideWorkspace, "path escapes the workspace"}
	ErrInvalidName       = &Error{CodeInvalidName, "name must be a single path element"}
	ErrNotRegularFile    = &Error{CodeNotRegularFile, "path isn't a regular file"}
)

// ResourceTooLarge reports an upload that exceeded limit.
func ResourceTooLarge(limit fmt.Stringer) *Error {
	return &Error{
		Code: CodeResourceTooLarge,
		Msg:  fmt.Sprintf("uploaded resource is larger than the upper limit %s", limit),
	}
}

// internalError carries an unanticipated failure. Its cause is logged but
// never rendered.
type internalError struct {
	err error
}

func (e *internalError) Error() string { return "internal: " + e.err.Error() }
func (e *internalError) Unwrap() error { return e.err }

// Internal wraps err as an opaque server failure. A nil err stays nil and a
// business error is returned unchanged.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &internalError{err: err}
}

// AsBusiness extracts the business error from err, if there is one.
func AsBusiness(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
