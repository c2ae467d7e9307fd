// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import "github.com/turnstile-systems/turnstile/lib/ref"

// Lifecycle operations. Each runs within a single host call and
// follows write-after-validate ordering: every precondition check
// completes before the first Put, so a rejected call leaves the
// registry untouched and records no event.
//
// When several preconditions fail at once, the reported code follows
// the check order documented on each operation: argument validity,
// then record existence, then status, then role.

// Mint creates a new ticket owned by recipient with the given opaque
// metadata, assigns it a fresh id, and records a minted event.
// Admin-only.
//
// Check order: caller is admin; recipient is present; metadata is
// within bounds.
func (r *Registry) Mint(rec *Recorder, caller, recipient ref.AccountID, metadata []byte) (TicketID, error) {
	if !r.IsAdmin(caller) {
		return 0, errorf(CodeUnauthorized, "caller %q is not the admin", caller)
	}
	if recipient.IsZero() {
		return 0, errorf(CodeInvalidArgument, "mint: recipient is required")
	}
	if len(metadata) > MaxMetadataSize {
		return 0, errorf(CodeInvalidArgument, "mint: metadata is %d bytes, limit %d", len(metadata), MaxMetadataSize)
	}

	id := r.nextID
	r.nextID++
	r.tickets.Put(id, Ticket{
		ID:       id,
		Owner:    recipient,
		Issuer:   caller,
		Status:   StatusIssued,
		Metadata: metadata,
	})
	rec.record(r.nextEvent(EventMinted, id, caller))
	return id, nil
}

// Transfer moves ticket id from its current owner (the caller) to
// recipient and records a transferred event. The status is unchanged:
// only Issued tickets move, and they stay Issued.
//
// Check order: recipient is present; ticket exists; status is Issued;
// caller is the owner; recipient differs from the owner.
func (r *Registry) Transfer(rec *Recorder, caller ref.AccountID, id TicketID, recipient ref.AccountID) error {
	if recipient.IsZero() {
		return errorf(CodeInvalidArgument, "transfer: recipient is required")
	}
	ticket, ok := r.tickets.Get(id)
	if !ok {
		return errorf(CodeNotFound, "ticket %d does not exist", id)
	}
	if ticket.Status != StatusIssued {
		return errorf(CodeInvalidState, "ticket %d is %s, not issued", id, ticket.Status)
	}
	if !IsOwner(caller, ticket) {
		return errorf(CodeUnauthorized, "caller %q does not own ticket %d", caller, id)
	}
	if recipient == ticket.Owner {
		return errorf(CodeInvalidArgument, "transfer: ticket %d already belongs to %q", id, recipient)
	}

	ticket.Owner = recipient
	r.tickets.Put(id, ticket)
	rec.record(r.nextEvent(EventTransferred, id, caller))
	return nil
}

// Redeem consumes ticket id, moving it to the terminal Redeemed
// status, and records a redeemed event. Owner-only.
//
// Check order: ticket exists; status is Issued; caller is the owner.
func (r *Registry) Redeem(rec *Recorder, caller ref.AccountID, id TicketID) error {
	ticket, ok := r.tickets.Get(id)
	if !ok {
		return errorf(CodeNotFound, "ticket %d does not exist", id)
	}
	if ticket.Status != StatusIssued {
		return errorf(CodeInvalidState, "ticket %d is %s, not issued", id, ticket.Status)
	}
	if !IsOwner(caller, ticket) {
		return errorf(CodeUnauthorized, "caller %q does not own ticket %d", caller, id)
	}

	ticket.Status = StatusRedeemed
	r.tickets.Put(id, ticket)
	rec.record(r.nextEvent(EventRedeemed, id, caller))
	return nil
}

// Void cancels ticket id, moving it to the terminal Void status, and
// records a voided event. Admin-only, and only while the ticket is
// still Issued — a redeemed ticket cannot be retroactively voided.
//
// Check order: ticket exists; status is Issued; caller is admin.
func (r *Registry) Void(rec *Recorder, caller ref.AccountID, id TicketID) error {
	ticket, ok := r.tickets.Get(id)
	if !ok {
		return errorf(CodeNotFound, "ticket %d does not exist", id)
	}
	if ticket.Status != StatusIssued {
		return errorf(CodeInvalidState, "ticket %d is %s, not issued", id, ticket.Status)
	}
	if !r.IsAdmin(caller) {
		return errorf(CodeUnauthorized, "caller %q is not the admin", caller)
	}

	ticket.Status = StatusVoid
	r.tickets.Put(id, ticket)
	rec.record(r.nextEvent(EventVoided, id, caller))
	return nil
}

// Query returns a snapshot of ticket id. No authorization — ticket
// state is public within the ledger — and no event: queries do not
// mutate.
func (r *Registry) Query(id TicketID) (Ticket, error) {
	ticket, ok := r.tickets.Get(id)
	if !ok {
		return Ticket{}, errorf(CodeNotFound, "ticket %d does not exist", id)
	}
	return ticket, nil
}
