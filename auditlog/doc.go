// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package auditlog persists the ledger's event stream as a
// hash-chained journal.
//
// Every accepted mutation produces exactly one [ledger.Event]; the
// journal stores them in sequence order, each row carrying the
// deterministic CBOR encoding of its entry and a BLAKE3 chain digest
// linking it to the previous row. Recomputing the chain detects any
// retroactive edit, insertion, or deletion in the history.
//
// Appends run inside the store's per-call transaction: the journal
// rows and the ticket-state writes either all commit or all roll
// back. The Log keeps the chain tail (last sequence and hash) in
// memory; after a failed transaction the caller must reopen the Log
// so the tail matches what was actually committed.
//
// Export writes the full journal as a zstd-compressed stream of CBOR
// entries for off-host archival and external verification.
package auditlog
