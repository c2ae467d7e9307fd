// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// turnstile-state-check is the offline ledger verifier. It opens a
// ledger database directly — no daemon required — re-derives the
// registry from the raw tables, and checks every structural
// invariant: record decodability, id uniqueness and counter bounds,
// status validity, journal contiguity, and the BLAKE3 audit chain.
// On success it prints the state root for comparison against a
// running daemon or an exported archive.
//
// Exit codes: 0 all checks passed, 1 invariant violations found,
// 2 operational error (unreadable database, bad arguments).
//
// The verifier deliberately re-implements registry loading rather
// than reusing the store: a checker that shares the code under test
// would inherit its bugs.
package main
