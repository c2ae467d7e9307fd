// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

// Store is the persistent ticket map: the only durable collection in
// the registry. Reads and writes are synchronous and immediately
// visible to the remainder of the current call; the host commits or
// discards a whole call's writes atomically, so Store implementations
// need no transaction support of their own.
//
// No iteration order is guaranteed and no component relies on one.
type Store interface {
	// Get returns the ticket stored under id, if present.
	Get(id TicketID) (Ticket, bool)

	// Put stores ticket under id, overwriting any existing record.
	Put(id TicketID, ticket Ticket)

	// Contains reports whether a record exists under id.
	Contains(id TicketID) bool

	// Len returns the number of stored records.
	Len() int

	// Range calls visit for every stored record until visit returns
	// false. Iteration order is unspecified.
	Range(visit func(Ticket) bool)
}

// MapStore is the standard in-memory Store. The service loads the
// durable registry into a MapStore at startup and persists accepted
// mutations back out per call; tests use it directly.
type MapStore struct {
	tickets map[TicketID]Ticket
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{tickets: make(map[TicketID]Ticket)}
}

// Get returns the ticket stored under id, if present.
func (s *MapStore) Get(id TicketID) (Ticket, bool) {
	ticket, ok := s.tickets[id]
	return ticket, ok
}

// Put stores ticket under id, overwriting any existing record.
func (s *MapStore) Put(id TicketID, ticket Ticket) {
	s.tickets[id] = ticket
}

// Contains reports whether a record exists under id.
func (s *MapStore) Contains(id TicketID) bool {
	_, ok := s.tickets[id]
	return ok
}

// Len returns the number of stored records.
func (s *MapStore) Len() int { return len(s.tickets) }

// Range calls visit for every stored record until visit returns
// false. Iteration order is unspecified.
func (s *MapStore) Range(visit func(Ticket) bool) {
	for _, ticket := range s.tickets {
		if !visit(ticket) {
			return
		}
	}
}
