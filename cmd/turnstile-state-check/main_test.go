// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/turnstile-systems/turnstile/ledger"
	"github.com/turnstile-systems/turnstile/ledgerstore"
	"github.com/turnstile-systems/turnstile/lib/codec"
	"github.com/turnstile-systems/turnstile/lib/ref"
)

var (
	admin = ref.MustAccountID("admin@main")
	alice = ref.MustAccountID("alice@main")
	bob   = ref.MustAccountID("bob@main")
)

// buildLedger runs a short lifecycle through a real store and
// returns the closed database path.
func buildLedger(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := ledgerstore.Open(ctx, ledgerstore.Config{Path: path, Admin: admin})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	mint := func(recipient ref.AccountID) ledger.TicketID {
		args, _ := codec.Marshal(ledger.MintArgs{Recipient: recipient})
		result, err := store.Call(ctx, ledger.Call{Selector: ledger.SelectorMint, Caller: admin, Args: args})
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		return result.Value.(ledger.MintValue).ID
	}
	first := mint(alice)
	second := mint(bob)

	transferArgs, _ := codec.Marshal(ledger.TransferArgs{ID: first, Recipient: bob})
	if _, err := store.Call(ctx, ledger.Call{Selector: ledger.SelectorTransfer, Caller: alice, Args: transferArgs}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	voidArgs, _ := codec.Marshal(ledger.TicketArgs{ID: second})
	if _, err := store.Call(ctx, ledger.Call{Selector: ledger.SelectorVoid, Caller: admin, Args: voidArgs}); err != nil {
		t.Fatalf("void: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}
	return path
}

// tamper applies one SQL statement to the closed database.
func tamper(t *testing.T, path, sql string) {
	t.Helper()
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		t.Fatalf("opening for tampering: %v", err)
	}
	defer conn.Close()
	if err := sqlitex.ExecuteTransient(conn, sql, nil); err != nil {
		t.Fatalf("tampering: %v", err)
	}
}

func TestCheckAcceptsIntactLedger(t *testing.T) {
	path := buildLedger(t)

	rep, err := check(context.Background(), path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(rep.Violations) != 0 {
		t.Fatalf("violations on an intact ledger: %v", rep.Violations)
	}
	if rep.TicketCount != 2 {
		t.Errorf("ticket count = %d, want 2", rep.TicketCount)
	}
	if rep.AuditEntries != 4 {
		t.Errorf("audit entries = %d, want 4", rep.AuditEntries)
	}
	if rep.Admin != admin {
		t.Errorf("admin = %s, want %s", rep.Admin, admin)
	}
	if rep.StateRoot.IsZero() {
		t.Error("state root is zero")
	}
}

func TestCheckMissingDatabase(t *testing.T) {
	if _, err := check(context.Background(), filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Fatal("missing database should be an operational error")
	}
}

func TestCheckDetectsViolations(t *testing.T) {
	cases := []struct {
		name string
		sql  string
	}{
		{"corrupted ticket record", `UPDATE tickets SET record = X'00' WHERE id = 1`},
		{"deleted journal row", `DELETE FROM journal WHERE seq = 2`},
		{"counter behind tickets", `UPDATE registry SET next_id = 1 WHERE id = 1`},
		{"orphan journal entry", `UPDATE journal SET ticket_id = 99 WHERE seq = 1`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := buildLedger(t)
			tamper(t, path, tc.sql)

			rep, err := check(context.Background(), path)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if len(rep.Violations) == 0 {
				t.Error("tampered ledger passed verification")
			}
		})
	}
}
