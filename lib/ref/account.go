// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccountID is a validated ledger account identity (e.g.,
// "alice@main"). The part before the '@' is the account name within a
// realm; the part after is the realm the host authenticated the
// account against. Turnstile does not interpret realms beyond
// equality — two identities are the same account iff the full strings
// match.
//
// The host call boundary supplies the caller's AccountID with every
// call; the ledger stores AccountIDs as ticket owners and issuers.
//
// AccountID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type AccountID struct {
	id string
}

// ParseAccountID validates and wraps a raw account identity string.
// Returns an error if the string is empty, has no '@' separator, has
// an empty name or realm, or contains characters outside the allowed
// set (lowercase letters, digits, '.', '_', '-' in the name; lowercase
// letters, digits, '.', '-' in the realm).
func ParseAccountID(raw string) (AccountID, error) {
	if err := validateAccountID(raw); err != nil {
		return AccountID{}, err
	}
	return AccountID{id: raw}, nil
}

// MustAccountID wraps a raw account identity string, panicking if it
// is invalid. For tests and compiled-in constants only.
func MustAccountID(raw string) AccountID {
	account, err := ParseAccountID(raw)
	if err != nil {
		panic("ref.MustAccountID: " + err.Error())
	}
	return account
}

// String returns the full account identity string (e.g., "alice@main").
func (a AccountID) String() string { return a.id }

// IsZero reports whether the AccountID is the zero value (uninitialized).
func (a AccountID) IsZero() bool { return a.id == "" }

// Name returns the account name portion (before the '@'). Panics if
// called on a zero-value AccountID.
func (a AccountID) Name() string {
	if a.id == "" {
		panic("AccountID.Name called on zero value")
	}
	name, _, _ := strings.Cut(a.id, "@")
	return name
}

// Realm returns the realm portion (after the '@'). Panics if called
// on a zero-value AccountID.
func (a AccountID) Realm() string {
	if a.id == "" {
		panic("AccountID.Realm called on zero value")
	}
	_, realm, _ := strings.Cut(a.id, "@")
	return realm
}

// MarshalText implements encoding.TextMarshaler for JSON, CBOR, and
// other text-based serialization formats.
func (a AccountID) MarshalText() ([]byte, error) {
	if a.id == "" {
		return []byte{}, nil
	}
	return []byte(a.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// account identity format. An empty input produces the zero value
// (unset account).
func (a *AccountID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = AccountID{}
		return nil
	}
	parsed, err := ParseAccountID(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML encodes the account ID as its string form.
func (a AccountID) MarshalYAML() (any, error) {
	return a.String(), nil
}

// UnmarshalYAML decodes an account ID from a YAML string node.
// yaml.v3 does not consult encoding.TextUnmarshaler, so config files
// need this explicitly.
func (a *AccountID) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(raw))
}

// maxAccountIDLength bounds identity strings entering from the host
// boundary. Generous for any human- or machine-generated name.
const maxAccountIDLength = 255

func validateAccountID(raw string) error {
	if raw == "" {
		return fmt.Errorf("account identity is empty")
	}
	if len(raw) > maxAccountIDLength {
		return fmt.Errorf("account identity exceeds %d bytes", maxAccountIDLength)
	}
	name, realm, found := strings.Cut(raw, "@")
	if !found {
		return fmt.Errorf("account identity %q has no '@' separator", raw)
	}
	if name == "" {
		return fmt.Errorf("account identity %q has an empty name", raw)
	}
	if realm == "" {
		return fmt.Errorf("account identity %q has an empty realm", raw)
	}
	for _, r := range name {
		if !isNameRune(r) {
			return fmt.Errorf("account identity %q: invalid character %q in name", raw, r)
		}
	}
	for _, r := range realm {
		if !isRealmRune(r) {
			return fmt.Errorf("account identity %q: invalid character %q in realm", raw, r)
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '_' || r == '-'
}

func isRealmRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '-'
}
