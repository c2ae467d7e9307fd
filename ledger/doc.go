// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger implements the Turnstile ticket ledger core: a
// deterministic state machine over uniquely identified ticket records,
// driven entirely by discrete host-delivered calls.
//
// The ledger has no goroutines, no clocks, no I/O, and no ambient
// state. A [Registry] value holds the complete ledger state — the
// ticket map, the id counter, the audit sequence counter, and the
// admin identity — and is threaded explicitly through every operation
// for the duration of exactly one call. The host executes calls one
// at a time and commits or discards each call's effects atomically;
// the engine cooperates by completing every precondition check before
// issuing any write, so a rejected call leaves the Registry
// bit-for-bit untouched.
//
// Operations enter through [Dispatch], which decodes a [Call]
// (selector, CBOR arguments, caller identity), routes it to exactly
// one lifecycle operation, and returns the operation's value plus the
// audit events the call produced. Every failure carries exactly one
// code from the taxonomy in errors.go so callers can branch
// deterministically on outcome.
//
// Ticket lifecycle: Issued is the sole initial state; a ticket may
// change owner any number of times while Issued, and terminates in
// exactly one of Redeemed (owner) or Void (admin). Terminal states
// are final — no record is ever deleted or reopened.
package ledger
