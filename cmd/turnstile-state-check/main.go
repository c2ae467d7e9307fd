// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/turnstile-systems/turnstile/auditlog"
	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
	"github.com/turnstile-systems/turnstile/lib/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		databasePath string
		showVersion  bool
	)
	flag.StringVar(&databasePath, "database", "", "path to the ledger database (required)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("turnstile-state-check %s\n", version.Info())
		return 0
	}
	if databasePath == "" {
		fmt.Fprintf(os.Stderr, "error: --database is required\n")
		return 2
	}

	report, err := check(context.Background(), databasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	for _, violation := range report.Violations {
		fmt.Fprintf(os.Stderr, "violation: %s\n", violation)
	}
	if len(report.Violations) > 0 {
		fmt.Fprintf(os.Stderr, "%d violation(s) in %s\n", len(report.Violations), databasePath)
		return 1
	}

	fmt.Printf("ok: %d tickets, %d audit entries\n", report.TicketCount, report.AuditEntries)
	fmt.Printf("admin:      %s\n", report.Admin)
	fmt.Printf("state root: %s\n", report.StateRoot)
	return 0
}

// report is the outcome of one verification pass.
type report struct {
	Admin        ref.AccountID
	TicketCount  int
	AuditEntries uint64
	StateRoot    ledger.Hash
	Violations   []string
}

func (r *report) violate(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// check opens the database read-only and runs every structural
// invariant. Returns an error only for operational failures; ledger
// inconsistencies land in the report's violations.
func check(ctx context.Context, databasePath string) (*report, error) {
	if _, err := os.Stat(databasePath); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	conn, err := sqlite.OpenConn(databasePath, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", databasePath, err)
	}
	defer conn.Close()

	rep := &report{}

	snapshot, err := loadSnapshot(conn, rep)
	if err != nil {
		return nil, err
	}

	checkTickets(snapshot, rep)
	auditSeq, err := checkJournal(conn, snapshot, rep)
	if err != nil {
		return nil, err
	}
	rep.AuditEntries = auditSeq

	// The state root is only meaningful when the snapshot itself is
	// coherent enough to rebuild a registry.
	if len(rep.Violations) == 0 {
		registry, err := ledger.FromSnapshot(*snapshot)
		if err != nil {
			rep.violate("rebuilding registry: %v", err)
			return rep, nil
		}
		root, err := registry.StateRoot()
		if err != nil {
			return nil, fmt.Errorf("computing state root: %w", err)
		}
		rep.StateRoot = root
	}
	return rep, nil
}

// loadSnapshot reads the raw registry and ticket tables. Decode
// failures are violations, not operational errors: a corrupt record
// is exactly what this tool exists to find.
func loadSnapshot(conn *sqlite.Conn, rep *report) (*ledger.Snapshot, error) {
	snapshot := &ledger.Snapshot{Tickets: make(map[ledger.TicketID]ledger.Ticket)}

	found := false
	err := sqlitex.Execute(conn, `SELECT admin, next_id, next_seq FROM registry WHERE id = 1`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			admin, err := ref.ParseAccountID(stmt.ColumnText(0))
			if err != nil {
				rep.violate("registry admin %q: %v", stmt.ColumnText(0), err)
				return nil
			}
			snapshot.Admin = admin
			rep.Admin = admin
			snapshot.NextID = ledger.TicketID(stmt.ColumnInt64(1))
			snapshot.NextSeq = uint64(stmt.ColumnInt64(2))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading registry row: %w", err)
	}
	if !found {
		rep.violate("registry row missing")
		return snapshot, nil
	}
	if snapshot.NextID < 1 {
		rep.violate("next_id is %d, must be >= 1", snapshot.NextID)
	}
	if snapshot.NextSeq < 1 {
		rep.violate("next_seq is %d, must be >= 1", snapshot.NextSeq)
	}

	err = sqlitex.Execute(conn, `SELECT id, record FROM tickets ORDER BY id`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			rowID := stmt.ColumnInt64(0)
			record := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, record)

			var ticket ledger.Ticket
			if err := codec.Unmarshal(record, &ticket); err != nil {
				rep.violate("ticket row %d: undecodable record: %v", rowID, err)
				return nil
			}
			if int64(ticket.ID) != rowID {
				rep.violate("ticket row %d holds record for ticket %d", rowID, ticket.ID)
				return nil
			}
			snapshot.Tickets[ticket.ID] = ticket
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading tickets: %w", err)
	}
	rep.TicketCount = len(snapshot.Tickets)
	return snapshot, nil
}

// checkTickets validates every record against the registry counters.
func checkTickets(snapshot *ledger.Snapshot, rep *report) {
	for id, ticket := range snapshot.Tickets {
		if err := ticket.Validate(); err != nil {
			rep.violate("ticket %d: %v", id, err)
		}
		if id >= snapshot.NextID {
			rep.violate("ticket %d: id is not below next_id %d", id, snapshot.NextID)
		}
	}
}

// checkJournal verifies the audit chain and cross-checks it against
// the registry: sequence contiguity up to next_seq, every entry
// naming an issued ticket, and exactly one mint entry per ticket.
func checkJournal(conn *sqlite.Conn, snapshot *ledger.Snapshot, rep *report) (uint64, error) {
	count, err := auditlog.Verify(conn)
	if err != nil {
		rep.violate("audit chain: %v", err)
		return 0, nil
	}

	if count != snapshot.NextSeq-1 {
		rep.violate("journal has %d entries but next_seq is %d", count, snapshot.NextSeq)
	}

	entries, err := auditlog.Read(conn, 1, 0)
	if err != nil {
		return 0, fmt.Errorf("reading journal: %w", err)
	}

	minted := make(map[ledger.TicketID]int)
	for _, entry := range entries {
		if _, ok := snapshot.Tickets[entry.Event.TicketID]; !ok {
			rep.violate("journal entry %d names unknown ticket %d", entry.Event.Seq, entry.Event.TicketID)
		}
		if entry.Event.Kind == ledger.EventMinted {
			minted[entry.Event.TicketID]++
		}
	}
	for id, times := range minted {
		if times != 1 {
			rep.violate("ticket %d has %d mint entries", id, times)
		}
	}
	for id := range snapshot.Tickets {
		if minted[id] == 0 && count == snapshot.NextSeq-1 {
			rep.violate("ticket %d has no mint entry in the journal", id)
		}
	}
	return count, nil
}
