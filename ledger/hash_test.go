// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import "testing"

func TestChainHashLinksEntries(t *testing.T) {
	entry := []byte("entry-bytes")

	fromZero := ChainHash(Hash{}, entry)
	if fromZero.IsZero() {
		t.Fatal("chain hash is zero")
	}

	// Same predecessor and entry: same digest.
	if again := ChainHash(Hash{}, entry); again != fromZero {
		t.Error("chain hash is not deterministic")
	}

	// Different predecessor: different digest.
	if linked := ChainHash(fromZero, entry); linked == fromZero {
		t.Error("chain hash ignores the predecessor")
	}

	// Different entry: different digest.
	if other := ChainHash(Hash{}, []byte("other-bytes")); other == fromZero {
		t.Error("chain hash ignores the entry")
	}
}

func TestChainAndStateDomainsAreSeparated(t *testing.T) {
	registry := newTestRegistry(t)
	snapshot, err := registry.EncodeSnapshot()
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}

	root, err := registry.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}
	// Same input bytes, different domain key, different digest.
	if ChainHash(Hash{}, snapshot) == root {
		t.Error("chain and state domains collide")
	}
}

func TestParseHashRoundtrip(t *testing.T) {
	original := ChainHash(Hash{}, []byte("x"))

	parsed, err := ParseHash(original.String())
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != original {
		t.Errorf("roundtrip mismatch: %s != %s", parsed, original)
	}

	if _, err := ParseHash("zz"); err == nil {
		t.Error("ParseHash accepted non-hex input")
	}
	if _, err := ParseHash("abcd"); err == nil {
		t.Error("ParseHash accepted short input")
	}
}
