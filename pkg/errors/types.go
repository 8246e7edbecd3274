// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"fmt"
	"time"
)

// Kind classifies a BBError by its error-handling treatment: each kind
// has its own propagation rule.
type Kind string

const (
	// KindConfiguration covers a missing config file or a malformed value.
	// Fatal at load time.
	KindConfiguration Kind = "CONFIGURATION"

	// KindResolution covers an unknown user name. Logged per-token, skipped.
	KindResolution Kind = "RESOLUTION"

	// KindAccounting covers a used/total space underflow. Clamped to zero,
	// logged.
	KindAccounting Kind = "ACCOUNTING"

	// KindHelper covers a non-zero helper exit, a timeout, or a parse
	// failure. Falls back to an empty inventory.
	KindHelper Kind = "HELPER"

	// KindTransport covers connect, send, receive, or shutdown failures
	// against a remote target. Drives that target to FAILED.
	KindTransport Kind = "TRANSPORT"

	// KindProtocol covers an unexpected response type from a target.
	// Drives that target to FAILED.
	KindProtocol Kind = "PROTOCOL"

	// KindInvariant covers a violation on the critical path. Fatal.
	KindInvariant Kind = "INVARIANT"
)

// Fatal reports whether an error of this kind should abort the caller
// rather than degrade to a logged warning.
func (k Kind) Fatal() bool {
	return k == KindConfiguration || k == KindInvariant
}

// BBError is the structured error type used throughout the burst buffer
// state engine and the parallel RPC agent.
type BBError struct {
	Kind      Kind
	Op        string
	Message   string
	Timestamp time.Time
	Cause     error
}

// Error implements the error interface.
func (e *BBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *BBError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same Kind.
func (e *BBError) Is(target error) bool {
	t, ok := target.(*BBError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates a BBError without an underlying cause.
func New(kind Kind, op, message string) *BBError {
	return &BBError{Kind: kind, Op: op, Message: message, Timestamp: time.Now()}
}

// Wrap creates a BBError around an underlying cause.
func Wrap(kind Kind, op, message string, cause error) *BBError {
	return &BBError{Kind: kind, Op: op, Message: message, Timestamp: time.Now(), Cause: cause}
}
