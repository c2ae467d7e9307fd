// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledgerstore persists the ticket registry in SQLite and
// implements the one-call-one-transaction commit contract.
//
// The store loads the full registry into memory at open and keeps it
// there: calls dispatch against the in-memory [ledger.Registry], and
// each accepted mutation commits its ticket writes, counter updates,
// and audit journal rows in a single immediate transaction. A
// rejected call touches neither memory nor disk. If a commit fails
// mid-flight the transaction rolls back and the store reloads the
// registry and the audit tail from the database, so memory never
// drifts from what was durably committed.
//
// The admin identity is fixed at first open. Reopening an existing
// database with a different admin is refused rather than silently
// rebound.
package ledgerstore
