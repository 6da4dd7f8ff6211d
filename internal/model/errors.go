// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed; callers branch on Kind
// and never on message text.
type Kind int

const (
	// KindRemoteOperation is a failed create/update/delete/upload against a backend.
	KindRemoteOperation Kind = iota
	// KindConfiguration means a backend is not configured and runs as an inert stub.
	KindConfiguration
	// KindValidation is malformed input detected before any write.
	KindValidation
	// KindUniquenessConflict is a duplicate registration number, phone or profile.
	KindUniquenessConflict
	// KindAuthorization is an identity without the required privilege.
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindUniquenessConflict:
		return "uniqueness_conflict"
	case KindAuthorization:
		return "authorization"
	default:
		return "remote_operation"
	}
}

// Error is the domain error carried across package boundaries.
type Error struct {
	Kind    Kind
	Op      string            // operation that failed, e.g. "sponsors.create"
	Message string            // single human-readable message
	Fields  map[string]string // per-field messages for validation failures
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return e.Op + ": " + e.Message
	case e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err. Errors that are not domain errors are
// treated as remote operation failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRemoteOperation
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// ValidationError returns a validation error with a single message.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ConflictError returns a uniqueness conflict with a single message.
func ConflictError(message string) *Error {
	return &Error{Kind: KindUniquenessConflict, Message: message}
}

// RemoteError wraps a failed backend call.
func RemoteError(op string, err error) *Error {
	return &Error{Kind: KindRemoteOperation, Op: op, Message: "Operation failed. Please try again.", Err: err}
}

// NotConfiguredError reports an operation against an inert backend stub.
func NotConfiguredError(op string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: "This feature is not configured."}
}

// AuthorizationError reports a missing privilege.
func AuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}
