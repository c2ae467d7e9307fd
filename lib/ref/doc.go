// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier value types for the
// Turnstile ledger.
//
// Identities are never passed around as bare strings. Every account
// reference entering the module — the caller of a host call, a mint
// recipient, a transfer recipient — is parsed into an [AccountID] at
// the boundary, so interior code can rely on structural validity and
// a non-zero check instead of re-validating strings everywhere.
//
// All types in this package are immutable value types. The zero value
// is never valid; use IsZero to check.
package ref
