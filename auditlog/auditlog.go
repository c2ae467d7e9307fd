// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package auditlog

import (
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

// Entry is one journal row: the ledger event, the wall-clock time
// the host committed it, and the chain digest over the row's
// deterministic encoding and its predecessor's digest.
//
// Dual json/CBOR use: entries are CBOR in the export stream, JSON in
// CLI --json output. The chain digest is computed over the encoding
// of entryRecord, not of Entry itself, so the digest field cannot be
// part of its own input.
type Entry struct {
	Event ledger.Event `json:"event"`

	// ReceivedAt is the commit wall-clock time in Unix milliseconds.
	// Informational only: ordering and identity come from Event.Seq.
	ReceivedAt int64 `json:"received_at"`

	// ChainHash links this entry to its predecessor. The first
	// entry's predecessor is the zero hash.
	ChainHash ledger.Hash `json:"chain_hash"`
}

// entryRecord is the durable encoding the chain digest covers.
// Integer keys keep the bytes compact and stable; any change to this
// layout invalidates every existing chain.
type entryRecord struct {
	Seq        uint64           `cbor:"1,keyasint"`
	Kind       ledger.EventKind `cbor:"2,keyasint"`
	TicketID   ledger.TicketID  `cbor:"3,keyasint"`
	Actor      ref.AccountID    `cbor:"4,keyasint"`
	ReceivedAt int64            `cbor:"5,keyasint"`
}

// Schema creates the journal table. Idempotent; run from the store's
// per-connection setup.
func Schema(conn *sqlite.Conn) error {
	err := sqlitex.ExecuteScript(conn, `
		CREATE TABLE IF NOT EXISTS journal (
			seq         INTEGER PRIMARY KEY,
			kind        TEXT NOT NULL,
			ticket_id   INTEGER NOT NULL,
			actor       TEXT NOT NULL,
			received_at INTEGER NOT NULL,
			entry       BLOB NOT NULL,
			chain_hash  BLOB NOT NULL
		);
	`, nil)
	if err != nil {
		return fmt.Errorf("auditlog: creating schema: %w", err)
	}
	return nil
}

// Log tracks the journal's chain tail. One Log per open store; the
// store serializes Append calls through its per-call transaction
// lock, the mutex here only guards tail reads against concurrent
// status queries.
type Log struct {
	mu       sync.Mutex
	lastSeq  uint64
	lastHash ledger.Hash
}

// Open loads the chain tail from the journal's last row. An empty
// journal starts from sequence zero and the zero hash.
func Open(conn *sqlite.Conn) (*Log, error) {
	log := &Log{}
	err := sqlitex.Execute(conn, `
		SELECT seq, chain_hash FROM journal ORDER BY seq DESC LIMIT 1
	`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			log.lastSeq = uint64(stmt.ColumnInt64(0))
			hashLen := stmt.ColumnLen(1)
			if hashLen != len(log.lastHash) {
				return fmt.Errorf("auditlog: row %d: chain hash is %d bytes, want %d", log.lastSeq, hashLen, len(log.lastHash))
			}
			stmt.ColumnBytes(1, log.lastHash[:])
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("auditlog: loading chain tail: %w", err)
	}
	return log, nil
}

// LastSeq returns the sequence of the newest committed entry, zero
// if the journal is empty.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// LastHash returns the chain digest of the newest committed entry,
// the zero hash if the journal is empty.
func (l *Log) LastHash() ledger.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastHash
}

// Append writes one row per event inside the caller's open
// transaction and advances the in-memory tail. Events must arrive in
// sequence order, contiguous with the tail. If the enclosing
// transaction later rolls back the tail is stale and the Log must be
// reopened.
func (l *Log) Append(conn *sqlite.Conn, events []ledger.Event, receivedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	receivedAtMillis := receivedAt.UnixMilli()
	for _, event := range events {
		if event.Seq != l.lastSeq+1 {
			return fmt.Errorf("auditlog: event seq %d does not extend tail %d", event.Seq, l.lastSeq)
		}

		record := entryRecord{
			Seq:        event.Seq,
			Kind:       event.Kind,
			TicketID:   event.TicketID,
			Actor:      event.Actor,
			ReceivedAt: receivedAtMillis,
		}
		encoded, err := codec.Marshal(record)
		if err != nil {
			return fmt.Errorf("auditlog: encoding entry %d: %w", event.Seq, err)
		}
		chainHash := ledger.ChainHash(l.lastHash, encoded)

		err = sqlitex.Execute(conn, `
			INSERT INTO journal (seq, kind, ticket_id, actor, received_at, entry, chain_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, &sqlitex.ExecOptions{
			Args: []any{
				int64(event.Seq),
				string(event.Kind),
				int64(event.TicketID),
				event.Actor.String(),
				receivedAtMillis,
				encoded,
				chainHash[:],
			},
		})
		if err != nil {
			return fmt.Errorf("auditlog: inserting entry %d: %w", event.Seq, err)
		}

		l.lastSeq = event.Seq
		l.lastHash = chainHash
	}
	return nil
}

// Read returns up to limit entries with sequence >= fromSeq, in
// sequence order. A limit of zero or less means no limit.
func Read(conn *sqlite.Conn, fromSeq uint64, limit int) ([]Entry, error) {
	query := `
		SELECT entry, chain_hash FROM journal
		WHERE seq >= ? ORDER BY seq
	`
	args := []any{int64(fromSeq)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, int64(limit))
	}

	var entries []Entry
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			entry, err := decodeRow(stmt)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("auditlog: reading entries: %w", err)
	}
	return entries, nil
}

// Verify walks the complete journal, recomputing the chain from the
// zero hash and checking sequence contiguity from 1. Returns the
// number of verified entries. Any mismatch — edited entry bytes, a
// gap, a tampered digest — fails with the offending sequence.
func Verify(conn *sqlite.Conn) (uint64, error) {
	var (
		previous ledger.Hash
		expected uint64 = 1
	)
	err := sqlitex.Execute(conn, `
		SELECT seq, entry, chain_hash, kind, ticket_id, actor FROM journal ORDER BY seq
	`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			seq := uint64(stmt.ColumnInt64(0))
			if seq != expected {
				return fmt.Errorf("auditlog: sequence gap: got %d, want %d", seq, expected)
			}

			encoded := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, encoded)

			var record entryRecord
			if err := codec.Unmarshal(encoded, &record); err != nil {
				return fmt.Errorf("auditlog: entry %d: decoding: %w", seq, err)
			}
			if record.Seq != seq {
				return fmt.Errorf("auditlog: entry %d: encoded seq %d disagrees with row", seq, record.Seq)
			}

			// The kind, ticket_id, and actor columns are denormalized
			// copies for SQL filtering; they must agree with the
			// hashed entry bytes.
			if stmt.ColumnText(3) != string(record.Kind) ||
				stmt.ColumnInt64(4) != int64(record.TicketID) ||
				stmt.ColumnText(5) != record.Actor.String() {
				return fmt.Errorf("auditlog: entry %d: row columns disagree with entry encoding", seq)
			}
			event := ledger.Event{
				Kind:     record.Kind,
				TicketID: record.TicketID,
				Actor:    record.Actor,
				Seq:      record.Seq,
			}
			if err := event.Validate(); err != nil {
				return fmt.Errorf("auditlog: entry %d: %w", seq, err)
			}

			var stored ledger.Hash
			if stmt.ColumnLen(2) != len(stored) {
				return fmt.Errorf("auditlog: entry %d: chain hash is %d bytes, want %d", seq, stmt.ColumnLen(2), len(stored))
			}
			stmt.ColumnBytes(2, stored[:])

			computed := ledger.ChainHash(previous, encoded)
			if computed != stored {
				return fmt.Errorf("auditlog: entry %d: chain hash mismatch", seq)
			}

			previous = computed
			expected++
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return expected - 1, nil
}

// decodeRow rebuilds an Entry from its stored encoding and digest.
func decodeRow(stmt *sqlite.Stmt) (Entry, error) {
	encoded := make([]byte, stmt.ColumnLen(0))
	stmt.ColumnBytes(0, encoded)

	var record entryRecord
	if err := codec.Unmarshal(encoded, &record); err != nil {
		return Entry{}, fmt.Errorf("auditlog: decoding entry: %w", err)
	}

	entry := Entry{
		Event: ledger.Event{
			Kind:     record.Kind,
			TicketID: record.TicketID,
			Actor:    record.Actor,
			Seq:      record.Seq,
		},
		ReceivedAt: record.ReceivedAt,
	}
	if stmt.ColumnLen(1) != len(entry.ChainHash) {
		return Entry{}, fmt.Errorf("auditlog: entry %d: chain hash is %d bytes, want %d", record.Seq, stmt.ColumnLen(1), len(entry.ChainHash))
	}
	stmt.ColumnBytes(1, entry.ChainHash[:])
	return entry, nil
}
