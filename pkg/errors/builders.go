// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package errors

import "fmt"

// Configuration wraps a config-load failure. Callers must treat this as
// fatal: the plugin cannot start without a valid configuration.
func Configuration(op, message string, cause error) *BBError {
	return Wrap(KindConfiguration, op, message, cause)
}

// Resolution reports a user-name token that failed to resolve to a uid.
// Callers log and skip the token; they never propagate this upward.
func Resolution(token string, cause error) *BBError {
	return Wrap(KindResolution, "userlist.resolve", fmt.Sprintf("ignoring invalid user %q", token), cause)
}

// Accounting reports a used/total space counter that would have gone
// negative. Callers clamp the counter to zero and continue.
func Accounting(op, message string) *BBError {
	return New(KindAccounting, op, message)
}

// Helper wraps a pool-importer helper-program failure (non-zero exit,
// timeout, or parse error). Callers fall back to an empty inventory.
func Helper(op, message string, cause error) *BBError {
	return Wrap(KindHelper, op, message, cause)
}

// Transport wraps a connect/send/receive/shutdown failure against one RPC
// target. Callers drive that target's state to FAILED.
func Transport(op, message string, cause error) *BBError {
	return Wrap(KindTransport, op, message, cause)
}

// Protocol reports an unexpected response type from an RPC target. Callers
// drive that target's state to FAILED.
func Protocol(op, message string) *BBError {
	return New(KindProtocol, op, message)
}

// Invariant reports a violated invariant on the critical path. Fatal.
func Invariant(op, message string) *BBError {
	return New(KindInvariant, op, message)
}
