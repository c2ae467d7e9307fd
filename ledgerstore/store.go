// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/turnstile-systems/turnstile/auditlog"
	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/clock"
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
	"github.com/turnstile-systems/turnstile/lib/sqlitepool"
)

// Config holds the parameters for opening a store.
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// Admin is the sole identity authorized to mint and void. On a
	// fresh database it becomes the registry's admin; on an existing
	// one it must match the recorded admin. Required.
	Admin ref.AccountID

	// PoolSize is the SQLite connection count. Defaults per
	// sqlitepool.
	PoolSize int

	// Logger receives operational messages. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Clock supplies journal timestamps. Defaults to the real clock.
	Clock clock.Clock
}

// Store is the durable registry: the in-memory [ledger.Registry]
// plus its SQLite backing. All mutating access is serialized through
// an internal mutex; one Call is one transaction.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
	clock  clock.Clock

	mu       sync.Mutex
	registry *ledger.Registry
	audit    *auditlog.Log
}

// Status is a snapshot of the store's counters and verification
// anchors, served by the host's status action.
type Status struct {
	Admin       ref.AccountID   `json:"admin"`
	NextID      ledger.TicketID `json:"next_id"`
	NextSeq     uint64          `json:"next_seq"`
	TicketCount int             `json:"ticket_count"`
	AuditSeq    uint64          `json:"audit_seq"`
	AuditHash   ledger.Hash     `json:"audit_hash"`
	StateRoot   ledger.Hash     `json:"state_root"`
}

func schema(conn *sqlite.Conn) error {
	err := sqlitex.ExecuteScript(conn, `
		CREATE TABLE IF NOT EXISTS registry (
			id       INTEGER PRIMARY KEY CHECK (id = 1),
			admin    TEXT NOT NULL,
			next_id  INTEGER NOT NULL,
			next_seq INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tickets (
			id     INTEGER PRIMARY KEY,
			record BLOB NOT NULL
		);
	`, nil)
	if err != nil {
		return fmt.Errorf("ledgerstore: creating schema: %w", err)
	}
	return auditlog.Schema(conn)
}

// Open opens (creating if necessary) the database at cfg.Path and
// loads the registry into memory. The caller must Close the store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Admin.IsZero() {
		return nil, fmt.Errorf("ledgerstore: Admin is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:      cfg.Path,
		PoolSize:  cfg.PoolSize,
		Logger:    logger,
		OnConnect: schema,
	})
	if err != nil {
		return nil, err
	}

	store := &Store{pool: pool, logger: logger, clock: clk}

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer pool.Put(conn)

	if err := store.initialize(conn, cfg.Admin); err != nil {
		pool.Close()
		return nil, err
	}
	if err := store.loadLocked(conn); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("ledger store opened",
		"path", cfg.Path,
		"admin", store.registry.Admin(),
		"tickets", store.registry.TicketCount(),
		"audit_seq", store.audit.LastSeq())
	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// initialize writes the registry row on a fresh database, or checks
// the recorded admin against the configured one on an existing one.
func (s *Store) initialize(conn *sqlite.Conn, admin ref.AccountID) error {
	var recorded string
	err := sqlitex.Execute(conn, `SELECT admin FROM registry WHERE id = 1`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			recorded = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("ledgerstore: reading registry row: %w", err)
	}

	if recorded != "" {
		if recorded != admin.String() {
			return fmt.Errorf("ledgerstore: database admin is %s, refusing to open as %s", recorded, admin)
		}
		return nil
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO registry (id, admin, next_id, next_seq) VALUES (1, ?, 1, 1)
	`, &sqlitex.ExecOptions{
		Args: []any{admin.String()},
	})
	if err != nil {
		return fmt.Errorf("ledgerstore: initializing registry row: %w", err)
	}
	return nil
}

// loadLocked rebuilds the in-memory registry and audit tail from the
// database. Callers hold s.mu (or are still in Open, before the
// store is shared).
func (s *Store) loadLocked(conn *sqlite.Conn) error {
	snapshot := ledger.Snapshot{Tickets: make(map[ledger.TicketID]ledger.Ticket)}

	found := false
	err := sqlitex.Execute(conn, `SELECT admin, next_id, next_seq FROM registry WHERE id = 1`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			admin, err := ref.ParseAccountID(stmt.ColumnText(0))
			if err != nil {
				return fmt.Errorf("ledgerstore: registry admin: %w", err)
			}
			snapshot.Admin = admin
			snapshot.NextID = ledger.TicketID(stmt.ColumnInt64(1))
			snapshot.NextSeq = uint64(stmt.ColumnInt64(2))
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("ledgerstore: reading registry row: %w", err)
	}
	if !found {
		return fmt.Errorf("ledgerstore: registry row missing")
	}

	err = sqlitex.Execute(conn, `SELECT id, record FROM tickets ORDER BY id`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, record)

			var ticket ledger.Ticket
			if err := codec.Unmarshal(record, &ticket); err != nil {
				return fmt.Errorf("ledgerstore: ticket %d: decoding: %w", stmt.ColumnInt64(0), err)
			}
			if int64(ticket.ID) != stmt.ColumnInt64(0) {
				return fmt.Errorf("ledgerstore: ticket row %d holds record for ticket %d", stmt.ColumnInt64(0), ticket.ID)
			}
			snapshot.Tickets[ticket.ID] = ticket
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("ledgerstore: reading tickets: %w", err)
	}

	registry, err := ledger.FromSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("ledgerstore: rebuilding registry: %w", err)
	}

	audit, err := auditlog.Open(conn)
	if err != nil {
		return err
	}

	s.registry = registry
	s.audit = audit
	return nil
}

// Call dispatches one ledger call and durably commits its effects.
// Rejected calls return the taxonomy error unchanged and leave both
// memory and disk untouched. Accepted mutations commit atomically;
// if the commit fails, the in-memory registry is reloaded from the
// database and the call reports failure.
func (s *Store) Call(ctx context.Context, call ledger.Call) (ledger.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := ledger.Dispatch(s.registry, call)
	if err != nil {
		return ledger.Result{}, err
	}
	if len(result.Events) == 0 {
		// Read-only call, nothing to persist.
		return result, nil
	}

	if err := s.commit(ctx, result.Events); err != nil {
		s.logger.Error("commit failed, reloading registry", "error", err)
		if reloadErr := s.reload(ctx); reloadErr != nil {
			// The database is unreachable or corrupt; the store is
			// unusable until reopened.
			return ledger.Result{}, fmt.Errorf("ledgerstore: reload after failed commit: %w", reloadErr)
		}
		return ledger.Result{}, fmt.Errorf("ledgerstore: commit: %w", err)
	}
	return result, nil
}

// commit writes the tickets named by events, the advanced counters,
// and the audit rows in one immediate transaction.
func (s *Store) commit(ctx context.Context, events []ledger.Event) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, event := range events {
		ticket, ok := s.registry.Ticket(event.TicketID)
		if !ok {
			return fmt.Errorf("event %d names unknown ticket %d", event.Seq, event.TicketID)
		}
		record, err := codec.Marshal(ticket)
		if err != nil {
			return fmt.Errorf("encoding ticket %d: %w", ticket.ID, err)
		}
		err = sqlitex.Execute(conn, `
			INSERT INTO tickets (id, record) VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET record = excluded.record
		`, &sqlitex.ExecOptions{
			Args: []any{int64(ticket.ID), record},
		})
		if err != nil {
			return fmt.Errorf("writing ticket %d: %w", ticket.ID, err)
		}
	}

	err = sqlitex.Execute(conn, `UPDATE registry SET next_id = ?, next_seq = ? WHERE id = 1`, &sqlitex.ExecOptions{
		Args: []any{int64(s.registry.NextID()), int64(s.registry.NextSeq())},
	})
	if err != nil {
		return fmt.Errorf("updating counters: %w", err)
	}

	return s.audit.Append(conn, events, s.clock.Now())
}

// reload re-syncs memory with the durable state after a failed
// commit. Callers hold s.mu.
func (s *Store) reload(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return s.loadLocked(conn)
}

// Status reports the store's counters, audit tail, and state root.
func (s *Store) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stateRoot, err := s.registry.StateRoot()
	if err != nil {
		return Status{}, fmt.Errorf("ledgerstore: computing state root: %w", err)
	}
	return Status{
		Admin:       s.registry.Admin(),
		NextID:      s.registry.NextID(),
		NextSeq:     s.registry.NextSeq(),
		TicketCount: s.registry.TicketCount(),
		AuditSeq:    s.audit.LastSeq(),
		AuditHash:   s.audit.LastHash(),
		StateRoot:   stateRoot,
	}, nil
}

// ReadAudit returns up to limit journal entries with sequence >=
// fromSeq. A limit of zero or less means no limit.
func (s *Store) ReadAudit(ctx context.Context, fromSeq uint64, limit int) ([]auditlog.Entry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)
	return auditlog.Read(conn, fromSeq, limit)
}

// VerifyAudit recomputes the full journal chain, returning the
// verified entry count.
func (s *Store) VerifyAudit(ctx context.Context) (uint64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)
	return auditlog.Verify(conn)
}

// ExportAudit writes the journal to w as a zstd-compressed CBOR
// stream.
func (s *Store) ExportAudit(ctx context.Context, w io.Writer) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return auditlog.Export(conn, w)
}
