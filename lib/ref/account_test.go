// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseAccountID(t *testing.T) {
	valid := []string{
		"alice@main",
		"box-office@venue.west",
		"svc_mint.bot@prod-1",
		"0@0",
	}
	for _, raw := range valid {
		account, err := ParseAccountID(raw)
		if err != nil {
			t.Errorf("ParseAccountID(%q): unexpected error: %v", raw, err)
			continue
		}
		if account.String() != raw {
			t.Errorf("ParseAccountID(%q).String() = %q", raw, account.String())
		}
		if account.IsZero() {
			t.Errorf("ParseAccountID(%q) produced zero value", raw)
		}
	}

	invalid := []string{
		"",
		"alice",
		"@main",
		"alice@",
		"Alice@main",
		"alice@Main",
		"alice bob@main",
		"alice@main@extra", // '@' is not a valid realm character
	}
	for _, raw := range invalid {
		if _, err := ParseAccountID(raw); err == nil {
			t.Errorf("ParseAccountID(%q): expected error, got none", raw)
		}
	}
}

func TestAccountIDParts(t *testing.T) {
	account := MustAccountID("box-office@venue.west")
	if got := account.Name(); got != "box-office" {
		t.Errorf("Name() = %q, want %q", got, "box-office")
	}
	if got := account.Realm(); got != "venue.west" {
		t.Errorf("Realm() = %q, want %q", got, "venue.west")
	}
}

func TestAccountIDZeroValuePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Name on zero value did not panic")
		}
	}()
	var zero AccountID
	zero.Name()
}

func TestAccountIDTextRoundtrip(t *testing.T) {
	type payload struct {
		Owner AccountID `json:"owner"`
	}
	original := payload{Owner: MustAccountID("alice@main")}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Owner != original.Owner {
		t.Errorf("roundtrip mismatch: got %v, want %v", decoded.Owner, original.Owner)
	}
}

func TestAccountIDUnmarshalRejectsInvalid(t *testing.T) {
	var account AccountID
	if err := account.UnmarshalText([]byte("not-an-identity")); err == nil {
		t.Error("UnmarshalText accepted identity with no realm")
	}
}

func TestAccountIDUnmarshalEmptyIsZero(t *testing.T) {
	account := MustAccountID("alice@main")
	if err := account.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil): %v", err)
	}
	if !account.IsZero() {
		t.Error("UnmarshalText(nil) did not produce zero value")
	}
}
