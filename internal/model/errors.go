package model

import (
	"errors"
	"fmt"
)

// ErrKind classifies a pipeline failure. Kinds decide retry behavior and the
// remediation text shown to the user; the raw error text carries the cause.
type ErrKind string

const (
	KindDependencyMissing ErrKind = "dependency_missing"
	KindProviderTransient ErrKind = "provider_transient"
	KindProviderExhausted ErrKind = "provider_exhausted"
	KindProviderPermanent ErrKind = "provider_permanent"
	KindTaggingWarning    ErrKind = "tagging_warning"
	KindArchiveIO         ErrKind = "archive_io"
	KindInputInvalid      ErrKind = "input_invalid"
)

// Error pairs an underlying cause with its classification.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapErr attaches a kind to err. A nil err returns nil.
func WrapErr(kind ErrKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrKind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification from err, or empty when unclassified.
func KindOf(err error) ErrKind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}
