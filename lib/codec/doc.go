// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Turnstile's standard CBOR encoding
// configuration.
//
// Everything durable or wire-visible in Turnstile is CBOR: the
// registry snapshot, per-ticket records, audit journal entries, the
// host socket protocol, and audit exports. This package provides the
// shared encoding and decoding modes so every package encodes
// identically without duplicating configuration.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. The same logical registry state always produces identical
// bytes — a requirement for the ledger's state root and audit chain
// hashes, which are computed over encoded bytes.
//
// For buffer-oriented operations (state snapshots, journal entries):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets, audit exports):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization contract:
//
//   - `cbor` tag: the type is only ever serialized as CBOR (socket
//     envelopes, on-disk records).
//   - `json` tag: the type serves both JSON and CBOR (fxamacker/cbor
//     reads `json` tags as fallback when `cbor` tags are absent).
//     Used for types the CLI also prints as --json output, such as
//     audit events.
//   - both tags: only for durable records with integer CBOR keys
//     (`keyasint`) that the CLI also prints as JSON, such as tickets.
//     The `cbor` tag fixes the compact on-disk key, the `json` tag
//     the human-readable name; fxamacker/cbor prefers the `cbor` tag
//     when both are present.
//
// Outside the keyasint case, never put both tags on the same field.
package codec
