// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"

	"github.com/turnstile-systems/turnstile/lib/ref"
)

// TicketID uniquely identifies a ticket within one registry. IDs are
// assigned sequentially at issuance from the registry's counter and
// are never reused, even after a ticket reaches a terminal status.
type TicketID uint64

// Status is a ticket's lifecycle state.
type Status string

const (
	// StatusIssued is the sole initial status. The ticket is live:
	// it can be transferred by its owner, redeemed by its owner, or
	// voided by the admin.
	StatusIssued Status = "issued"

	// StatusRedeemed is terminal: the owner has consumed the
	// entitlement. No further mutation is permitted.
	StatusRedeemed Status = "redeemed"

	// StatusVoid is terminal: the admin has cancelled the ticket.
	// No further mutation is permitted.
	StatusVoid Status = "void"
)

// Valid reports whether s is one of the three recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIssued, StatusRedeemed, StatusVoid:
		return true
	}
	return false
}

// Terminal reports whether s permits no further mutation.
func (s Status) Terminal() bool {
	return s == StatusRedeemed || s == StatusVoid
}

// MaxMetadataSize bounds the opaque metadata payload attached at
// issuance. The ledger stores metadata verbatim and never inspects
// it; the bound exists so a single mint cannot bloat the durable
// snapshot.
const MaxMetadataSize = 8 * 1024

// Ticket is one ledger record. Records are created by Mint, mutated
// only through the lifecycle engine, and never deleted — history is
// preserved by marking tickets Redeemed or Void rather than removing
// them.
//
// Integer CBOR keys keep the durable encoding compact and decouple it
// from Go field names; the encoding must stay stable across upgrades
// of this module. The `json` names serve CLI --json output.
type Ticket struct {
	// ID is the ticket's identifier, assigned at issuance. Never
	// reused.
	ID TicketID `cbor:"1,keyasint" json:"id"`

	// Owner is the identity of the current holder. Changes only via
	// an authorized transfer while Status is StatusIssued.
	Owner ref.AccountID `cbor:"2,keyasint" json:"owner"`

	// Issuer is the identity that minted the ticket. Immutable.
	Issuer ref.AccountID `cbor:"3,keyasint" json:"issuer"`

	// Status is the lifecycle state.
	Status Status `cbor:"4,keyasint" json:"status"`

	// Metadata is the opaque payload attached at issuance (e.g., an
	// event/seat description). Immutable; the ledger never parses it.
	Metadata []byte `cbor:"5,keyasint,omitempty" json:"metadata,omitempty"`
}

// Validate checks that all required fields are present and
// well-formed. Used when loading records from durable storage; a
// record that fails validation indicates storage corruption, not a
// caller error.
func (t *Ticket) Validate() error {
	if t.Owner.IsZero() {
		return errors.New("ticket: owner is required")
	}
	if t.Issuer.IsZero() {
		return errors.New("ticket: issuer is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("ticket: unknown status %q", t.Status)
	}
	if len(t.Metadata) > MaxMetadataSize {
		return fmt.Errorf("ticket: metadata is %d bytes, limit %d", len(t.Metadata), MaxMetadataSize)
	}
	return nil
}
