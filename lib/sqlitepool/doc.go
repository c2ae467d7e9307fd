// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides Turnstile's standard SQLite connection
// pool.
//
// The ledger store and the audit journal share one database file
// through this package. It wraps zombiezen.com/go/sqlite with
// durability-first defaults: WAL journal mode, FULL synchronous (a
// committed call must survive power loss — the ledger is the source
// of truth, not a cache), and a busy timeout so concurrent readers
// never see SQLITE_BUSY from the single writer.
//
// The pool is built on zombiezen's sqlitex.Pool. Callers [Pool.Take]
// a connection, perform work, and [Pool.Put] it back. Connections are
// NOT safe for concurrent use — each goroutine must hold its own
// connection for the duration of its work. Turnstile's write path is
// serialized by the host contract anyway; the pool exists so audit
// readers and the status action can read while a call commits.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: readers never block the writer and vice
//     versa.
//   - synchronous=FULL: a committed transaction survives OS crash and
//     power failure. The ledger's all-or-nothing call contract is
//     only as strong as commit durability.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock
//     instead of failing immediately.
//   - foreign_keys=OFF: referential integrity between tickets and
//     journal rows is enforced by the store, which writes both in one
//     transaction.
//   - temp_store=MEMORY: temporary structures stay off disk.
package sqlitepool
