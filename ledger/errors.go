// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
)

// Failure codes. Every error returned by a ledger operation carries
// exactly one of these; there are no uncategorized failures. The
// codes cross the host boundary unchanged so external callers can
// branch on them without parsing messages.
const (
	// CodeUnauthorized: the caller lacks the role the operation
	// requires (admin for mint/void, current owner for
	// transfer/redeem).
	CodeUnauthorized = "UNAUTHORIZED"

	// CodeNotFound: the referenced ticket id has never been issued.
	CodeNotFound = "NOT_FOUND"

	// CodeInvalidState: the operation is not legal for the ticket's
	// current status (e.g., redeeming an already-redeemed ticket).
	CodeInvalidState = "INVALID_STATE"

	// CodeInvalidArgument: the call itself is malformed — unknown
	// selector, undecodable arguments, zero identities, or a
	// self-transfer.
	CodeInvalidArgument = "INVALID_ARGUMENT"
)

// Error is a categorized ledger failure. Callers use [ErrorCode] or
// errors.As to branch on the code:
//
//	var ledgerErr *ledger.Error
//	if errors.As(err, &ledgerErr) {
//	    if ledgerErr.Code == ledger.CodeNotFound { ... }
//	}
type Error struct {
	// Code is one of the Code* constants above.
	Code string
	// Message is the human-readable description.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger: %s: %s", e.Code, e.Message)
}

// errorf builds a categorized *Error with a formatted message.
func errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the failure code from err, or returns the empty
// string if err is not a ledger *Error.
func ErrorCode(err error) string {
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Code
	}
	return ""
}

// IsCode checks whether err is a ledger *Error with the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
