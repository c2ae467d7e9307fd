// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import "github.com/turnstile-systems/turnstile/lib/ref"

// Access control is two pure predicates over the registry state and
// the caller identity the host supplies for the current call. No side
// effects, no storage access beyond the ticket already in hand.

// IsAdmin reports whether caller is the registry's admin identity.
// A zero caller is never the admin.
func (r *Registry) IsAdmin(caller ref.AccountID) bool {
	return !caller.IsZero() && caller == r.admin
}

// IsOwner reports whether caller currently owns ticket. A zero caller
// owns nothing.
func IsOwner(caller ref.AccountID, ticket Ticket) bool {
	return !caller.IsZero() && caller == ticket.Owner
}
