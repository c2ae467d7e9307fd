// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"

	"github.com/turnstile-systems/turnstile/lib/ref"
)

// EventKind identifies which lifecycle operation produced an audit
// event.
type EventKind string

const (
	EventMinted      EventKind = "minted"
	EventTransferred EventKind = "transferred"
	EventRedeemed    EventKind = "redeemed"
	EventVoided      EventKind = "voided"
)

// Valid reports whether k is one of the four recognized kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventMinted, EventTransferred, EventRedeemed, EventVoided:
		return true
	}
	return false
}

// Event is one immutable audit entry. The engine emits exactly one
// event per accepted mutation, after the state change has been
// applied; rejected calls emit nothing. Seq is the registry-wide
// monotone sequence, so the event stream is a total order of every
// committed change.
//
// Dual json/CBOR use: events are CBOR in the journal and the audit
// export, JSON in CLI --json output.
type Event struct {
	// Kind names the operation that produced this entry.
	Kind EventKind `json:"kind"`

	// TicketID is the ticket the operation acted on.
	TicketID TicketID `json:"ticket_id"`

	// Actor is the caller whose operation was accepted.
	Actor ref.AccountID `json:"actor"`

	// Seq is the registry-wide sequence of this entry. Assigned when
	// the mutation is accepted; never reused.
	Seq uint64 `json:"seq"`
}

// Validate checks that all fields are present and well-formed. Used
// when reading entries back from the journal.
func (e *Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("event: unknown kind %q", e.Kind)
	}
	if e.TicketID == 0 {
		return errors.New("event: ticket_id is required")
	}
	if e.Actor.IsZero() {
		return errors.New("event: actor is required")
	}
	if e.Seq == 0 {
		return errors.New("event: seq is required")
	}
	return nil
}

// Recorder accumulates the audit entries produced by a single call.
// The dispatcher creates one per call and hands the recorded events
// to the host alongside the operation's value; the host persists them
// in the same atomic unit as the state writes.
//
// Recording never fails independently of the triggering operation:
// the engine records only after a mutation has been accepted.
type Recorder struct {
	events []Event
}

// record appends one entry. Engine-internal.
func (rec *Recorder) record(event Event) {
	rec.events = append(rec.events, event)
}

// Events returns the entries recorded so far, in commit order.
func (rec *Recorder) Events() []Event {
	return rec.events
}

// nextEvent builds the audit entry for an accepted mutation and
// advances the registry's sequence counter.
func (r *Registry) nextEvent(kind EventKind, id TicketID, actor ref.AccountID) Event {
	event := Event{
		Kind:     kind,
		TicketID: id,
		Actor:    actor,
		Seq:      r.nextSeq,
	}
	r.nextSeq++
	return event
}
