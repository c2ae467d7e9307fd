// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"github.com/turnstile-systems/turnstile/auditlog"
	"github.com/turnstile-systems/turnstile/ledger"
)

// Wire shapes of the operational actions, shared by the daemon's
// handlers and the CLI. The ledger selectors use the arg and value
// types from the ledger package directly.

// AuditArgs are the arguments of the audit action.
type AuditArgs struct {
	// FromSeq is the first sequence to return; zero means from the
	// beginning.
	FromSeq uint64 `cbor:"from_seq,omitempty"`

	// Limit caps the returned entries; zero means no cap.
	Limit int `cbor:"limit,omitempty"`
}

// AuditValue is the success value of the audit action.
type AuditValue struct {
	Entries []auditlog.Entry `cbor:"entries"`
}

// AuditVerifyValue is the success value of the audit-verify action.
type AuditVerifyValue struct {
	Entries uint64 `cbor:"entries"`
}

// AuditExportValue is the success value of the audit-export action:
// the complete journal as a zstd-compressed CBOR stream.
type AuditExportValue struct {
	Archive []byte `cbor:"archive"`
}

// StateRootValue is the success value of the state-root action.
type StateRootValue struct {
	StateRoot ledger.Hash `cbor:"state_root"`
}
