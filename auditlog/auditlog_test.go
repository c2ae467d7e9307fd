// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package auditlog

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/ref"
	"github.com/turnstile-systems/turnstile/lib/sqlitepool"
)

var (
	alice = ref.MustAccountID("alice@main")
	bob   = ref.MustAccountID("bob@main")
)

func testConn(t *testing.T) *sqlite.Conn {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      filepath.Join(t.TempDir(), "audit.db"),
		PoolSize:  1,
		OnConnect: Schema,
	})
	if err != nil {
		t.Fatalf("opening pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("taking connection: %v", err)
	}
	t.Cleanup(func() { pool.Put(conn) })
	return conn
}

func testEvents(count int) []ledger.Event {
	kinds := []ledger.EventKind{
		ledger.EventMinted,
		ledger.EventTransferred,
		ledger.EventRedeemed,
		ledger.EventVoided,
	}
	events := make([]ledger.Event, count)
	for i := range events {
		events[i] = ledger.Event{
			Kind:     kinds[i%len(kinds)],
			TicketID: ledger.TicketID(i/len(kinds) + 1),
			Actor:    alice,
			Seq:      uint64(i + 1),
		}
	}
	return events
}

func TestOpenEmptyJournal(t *testing.T) {
	conn := testConn(t)

	log, err := Open(conn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if log.LastSeq() != 0 {
		t.Errorf("LastSeq = %d, want 0", log.LastSeq())
	}
	if !log.LastHash().IsZero() {
		t.Errorf("LastHash = %s, want zero", log.LastHash())
	}
}

func TestAppendAdvancesTail(t *testing.T) {
	conn := testConn(t)
	log, err := Open(conn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	receivedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := log.Append(conn, testEvents(3), receivedAt); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if log.LastSeq() != 3 {
		t.Errorf("LastSeq = %d, want 3", log.LastSeq())
	}
	if log.LastHash().IsZero() {
		t.Error("LastHash still zero after append")
	}

	// A reopened Log reconstructs the same tail from the rows.
	reopened, err := Open(conn)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	if reopened.LastSeq() != log.LastSeq() {
		t.Errorf("reopened LastSeq = %d, want %d", reopened.LastSeq(), log.LastSeq())
	}
	if reopened.LastHash() != log.LastHash() {
		t.Errorf("reopened LastHash = %s, want %s", reopened.LastHash(), log.LastHash())
	}
}

func TestAppendRejectsSequenceGap(t *testing.T) {
	conn := testConn(t)
	log, err := Open(conn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	gapped := ledger.Event{Kind: ledger.EventMinted, TicketID: 1, Actor: alice, Seq: 5}
	if err := log.Append(conn, []ledger.Event{gapped}, time.Now()); err == nil {
		t.Fatal("append of seq 5 onto empty journal should fail")
	}
	if log.LastSeq() != 0 {
		t.Errorf("LastSeq = %d after rejected append, want 0", log.LastSeq())
	}
}

func TestReadReturnsEntriesInOrder(t *testing.T) {
	conn := testConn(t)
	log, err := Open(conn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	events := testEvents(5)
	receivedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := log.Append(conn, events, receivedAt); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := Read(conn, 1, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	for i, entry := range entries {
		if entry.Event != events[i] {
			t.Errorf("entry %d: event = %+v, want %+v", i, entry.Event, events[i])
		}
		if entry.ReceivedAt != receivedAt.UnixMilli() {
			t.Errorf("entry %d: received_at = %d, want %d", i, entry.ReceivedAt, receivedAt.UnixMilli())
		}
		if entry.ChainHash.IsZero() {
			t.Errorf("entry %d: zero chain hash", i)
		}
	}

	// fromSeq and limit narrow the window.
	window, err := Read(conn, 2, 2)
	if err != nil {
		t.Fatalf("Read window: %v", err)
	}
	if len(window) != 2 || window[0].Event.Seq != 2 || window[1].Event.Seq != 3 {
		t.Errorf("Read(2, 2) = seqs %v, want [2 3]", entrySeqs(window))
	}
}

func TestVerifyAcceptsIntactJournal(t *testing.T) {
	conn := testConn(t)
	log, err := Open(conn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := log.Append(conn, testEvents(8), time.Now()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	count, err := Verify(conn)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if count != 8 {
		t.Errorf("Verify counted %d entries, want 8", count)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	tamper := []struct {
		name string
		sql  string
	}{
		{"edited entry", `UPDATE journal SET entry = X'00' WHERE seq = 2`},
		{"deleted row", `DELETE FROM journal WHERE seq = 2`},
		{"rewritten digest", `UPDATE journal SET chain_hash = zeroblob(32) WHERE seq = 3`},
		{"rewritten column", `UPDATE journal SET ticket_id = 99 WHERE seq = 1`},
	}
	for _, tc := range tamper {
		t.Run(tc.name, func(t *testing.T) {
			conn := testConn(t)
			log, err := Open(conn)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := log.Append(conn, testEvents(4), time.Now()); err != nil {
				t.Fatalf("Append: %v", err)
			}

			if err := sqlitex.ExecuteTransient(conn, tc.sql, nil); err != nil {
				t.Fatalf("tampering: %v", err)
			}
			if _, err := Verify(conn); err == nil {
				t.Error("Verify accepted a tampered journal")
			}
		})
	}
}

func TestExportRoundTrip(t *testing.T) {
	conn := testConn(t)
	log, err := Open(conn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	events := []ledger.Event{
		{Kind: ledger.EventMinted, TicketID: 1, Actor: alice, Seq: 1},
		{Kind: ledger.EventTransferred, TicketID: 1, Actor: alice, Seq: 2},
		{Kind: ledger.EventRedeemed, TicketID: 1, Actor: bob, Seq: 3},
	}
	if err := log.Append(conn, events, time.Now()); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var exported bytes.Buffer
	if err := Export(conn, &exported); err != nil {
		t.Fatalf("Export: %v", err)
	}

	entries, err := ReadExport(&exported)
	if err != nil {
		t.Fatalf("ReadExport: %v", err)
	}
	if len(entries) != len(events) {
		t.Fatalf("got %d entries, want %d", len(entries), len(events))
	}
	for i, entry := range entries {
		if entry.Event != events[i] {
			t.Errorf("entry %d: event = %+v, want %+v", i, entry.Event, events[i])
		}
	}
}

func TestExportEmptyJournal(t *testing.T) {
	conn := testConn(t)

	var exported bytes.Buffer
	if err := Export(conn, &exported); err != nil {
		t.Fatalf("Export: %v", err)
	}
	entries, err := ReadExport(&exported)
	if err != nil {
		t.Fatalf("ReadExport: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from empty journal, want 0", len(entries))
	}
}

func entrySeqs(entries []Entry) []uint64 {
	seqs := make([]uint64, len(entries))
	for i := range entries {
		seqs[i] = entries[i].Event.Seq
	}
	return seqs
}
