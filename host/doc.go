// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package host implements the ledger's call boundary: a CBOR
// request-response protocol over a Unix socket.
//
// Each connection carries exactly one request and one response. The
// request envelope names the action (a ledger selector or an
// operational action like status), the caller identity, and the
// action's arguments; the response envelope is {ok, error_code,
// error, data}. Ledger failure codes cross the wire unchanged in
// error_code so clients can branch on them without parsing messages.
//
// Access control is filesystem-level: whoever can open the socket
// may speak the protocol, and the host trusts the caller field of
// the envelope. Calls are executed one at a time — the handler side
// (the store) holds a single lock across dispatch and commit, so
// concurrent connections never interleave mutations.
package host
