// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// turnstile-ledgerd is the ticket ledger daemon. It opens the SQLite
// store, loads the registry into memory, and serves the CBOR call
// protocol on a Unix socket: the five ledger operations (mint,
// transfer, redeem, void, query) plus operational actions (status,
// audit, audit-verify, audit-export, state-root).
//
// Configuration comes from a single YAML file named by --config or
// the TURNSTILE_CONFIG environment variable. The daemon shuts down
// cleanly on SIGINT or SIGTERM, draining in-flight connections.
package main
