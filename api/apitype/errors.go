package apitype

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

type ErrorKind int

const (
	UnknownError ErrorKind = iota
	NotFound
	AlreadyExists
	PermissionDenied
	IOFailure
	Unsupported
	InvalidName
	Cancelled
)

func (s ErrorKind) String() string {
	switch s {
	case NotFound:
		return "not found"
	case AlreadyExists:
		return "already exists"
	case PermissionDenied:
		return "permission denied"
	case IOFailure:
		return "io failure"
	case Unsupported:
		return "unsupported"
	case InvalidName:
		return "invalid name"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// OperationError is returned by every storage mutation.
type OperationError struct {
	Op   string
	Kind ErrorKind
	Name string
	Err  error
}

func NewOperationError(op string, kind ErrorKind, name string, err error) *OperationError {
	return &OperationError{Op: op, Kind: kind, Name: name, Err: err}
}

// WrapError classifies err and wraps it. Nil stays nil and an existing
// OperationError keeps its kind.
func WrapError(op string, name string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return NewOperationError(op, KindOf(err), name, err)
}

func (s *OperationError) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("%s '%s': %s: %s", s.Op, s.Name, s.Kind, s.Err.Error())
	}
	return fmt.Sprintf("%s '%s': %s", s.Op, s.Name, s.Kind)
}

func (s *OperationError) Unwrap() error {
	return s.Err
}

func (s *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	return ok && t.Kind == s.Kind && t.Op == "" && t.Name == ""
}

var (
	ErrNotFound         = &OperationError{Kind: NotFound}
	ErrAlreadyExists    = &OperationError{Kind: AlreadyExists}
	ErrPermissionDenied = &OperationError{Kind: PermissionDenied}
	ErrIOFailure        = &OperationError{Kind: IOFailure}
	ErrUnsupported      = &OperationError{Kind: Unsupported}
	ErrInvalidName      = &OperationError{Kind: InvalidName}
	ErrCancelled        = &OperationError{Kind: Cancelled}
)

// KindOf maps an error to the taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return UnknownError
	}
	var opErr *OperationError
	switch {
	case errors.As(err, &opErr):
		return opErr.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, syscall.EXDEV):
		return Unsupported
	}
	return IOFailure
}
