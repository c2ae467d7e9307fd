// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"

	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// Registry is the complete ledger state. One Registry value is
// exclusively owned by the current call for its duration; the module
// has no other mutable state.
//
// All mutation goes through the lifecycle operations in engine.go,
// which validate every precondition before the first write. Code
// outside this package reads the Registry through accessors and the
// Snapshot type.
type Registry struct {
	// admin is the identity authorized to mint and void tickets.
	// Fixed at instantiation, immutable thereafter.
	admin ref.AccountID

	// nextID is the id the next successful Mint will assign.
	// Strictly exceeds every id ever issued; never decreases, never
	// reused even after a ticket is voided.
	nextID TicketID

	// nextSeq is the audit sequence the next recorded event will
	// carry. Monotone across the registry's whole history, giving
	// external observers a total order of committed changes.
	nextSeq uint64

	// tickets is the persistent ticket map.
	tickets Store
}

// NewRegistry creates an empty registry with the given admin
// identity. The admin is the deployment-time configuration of the
// ledger: it is supplied exactly once, at instantiation.
func NewRegistry(admin ref.AccountID) (*Registry, error) {
	if admin.IsZero() {
		return nil, errors.New("registry: admin identity is required")
	}
	return &Registry{
		admin:   admin,
		nextID:  1,
		nextSeq: 1,
		tickets: NewMapStore(),
	}, nil
}

// Admin returns the identity authorized to mint and void tickets.
func (r *Registry) Admin() ref.AccountID { return r.admin }

// NextID returns the id the next successful Mint will assign.
func (r *Registry) NextID() TicketID { return r.nextID }

// NextSeq returns the audit sequence the next event will carry.
func (r *Registry) NextSeq() uint64 { return r.nextSeq }

// TicketCount returns the number of tickets ever issued and retained
// (records are never deleted, so this equals issued count).
func (r *Registry) TicketCount() int { return r.tickets.Len() }

// Ticket returns the stored record for id, if present. Read-only
// access for the service shell (persistence, audit); host callers go
// through the Query operation, which maps absence to CodeNotFound.
func (r *Registry) Ticket(id TicketID) (Ticket, bool) {
	return r.tickets.Get(id)
}

// Snapshot is the durable form of a Registry. The CBOR encoding is
// deterministic (lib/codec), so the same logical state always
// produces identical bytes — the state root in hash.go depends on
// that.
type Snapshot struct {
	Admin   ref.AccountID       `cbor:"1,keyasint"`
	NextID  TicketID            `cbor:"2,keyasint"`
	NextSeq uint64              `cbor:"3,keyasint"`
	Tickets map[TicketID]Ticket `cbor:"4,keyasint"`
}

// Snapshot captures the registry's complete state. The returned value
// shares no mutable structure with the registry.
func (r *Registry) Snapshot() Snapshot {
	tickets := make(map[TicketID]Ticket, r.tickets.Len())
	r.tickets.Range(func(ticket Ticket) bool {
		tickets[ticket.ID] = ticket
		return true
	})
	return Snapshot{
		Admin:   r.admin,
		NextID:  r.nextID,
		NextSeq: r.nextSeq,
		Tickets: tickets,
	}
}

// EncodeSnapshot returns the deterministic CBOR encoding of the
// registry's complete state.
func (r *Registry) EncodeSnapshot() ([]byte, error) {
	data, err := codec.Marshal(r.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("registry: encoding snapshot: %w", err)
	}
	return data, nil
}

// FromSnapshot reconstructs a Registry, validating every invariant
// the durable layer is supposed to uphold: a present admin, valid
// ticket records stored under their own ids, and counters that bound
// the stored data. A validation failure means the durable state is
// corrupt; it is not a caller error.
func FromSnapshot(snapshot Snapshot) (*Registry, error) {
	if snapshot.Admin.IsZero() {
		return nil, errors.New("registry snapshot: admin is required")
	}
	if snapshot.NextID < 1 {
		return nil, fmt.Errorf("registry snapshot: next_id must be >= 1, got %d", snapshot.NextID)
	}
	if snapshot.NextSeq < 1 {
		return nil, fmt.Errorf("registry snapshot: next_seq must be >= 1, got %d", snapshot.NextSeq)
	}

	store := NewMapStore()
	for id, ticket := range snapshot.Tickets {
		if ticket.ID != id {
			return nil, fmt.Errorf("registry snapshot: ticket stored under id %d carries id %d", id, ticket.ID)
		}
		if id >= snapshot.NextID {
			return nil, fmt.Errorf("registry snapshot: ticket id %d is not below next_id %d", id, snapshot.NextID)
		}
		if err := ticket.Validate(); err != nil {
			return nil, fmt.Errorf("registry snapshot: ticket %d: %w", id, err)
		}
		store.Put(id, ticket)
	}

	return &Registry{
		admin:   snapshot.Admin,
		nextID:  snapshot.NextID,
		nextSeq: snapshot.NextSeq,
		tickets: store,
	}, nil
}

// DecodeSnapshot decodes and validates a registry from its durable
// CBOR encoding.
func DecodeSnapshot(data []byte) (*Registry, error) {
	var snapshot Snapshot
	if err := codec.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("registry: decoding snapshot: %w", err)
	}
	return FromSnapshot(snapshot)
}
