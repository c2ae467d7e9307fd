// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. All ledger hashes — the state root
// and the audit chain links — are this size.
type Hash [32]byte

// IsZero reports whether h is the all-zero digest. The zero hash is
// the chain predecessor of the first audit entry.
func (h Hash) IsZero() bool { return h == Hash{} }

// String returns the hex encoding of the digest.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// MarshalText encodes the digest as hex. Gives hashes a readable
// form in JSON output and text-keyed CBOR maps.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hex-encoded 32-byte digest.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a hex-encoded 32-byte digest.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing hash: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("parsing hash: got %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures the same input bytes produce different hashes in
// different contexts. The byte values are the ASCII encoding of the
// domain name, zero-padded to 32 bytes — readable in hex dumps
// without sacrificing any cryptographic property.
type domainKey [32]byte

var (
	stateDomainKey = domainKey{
		't', 'u', 'r', 'n', 's', 't', 'i', 'l', 'e', '.',
		's', 't', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	chainDomainKey = domainKey{
		't', 'u', 'r', 'n', 's', 't', 'i', 'l', 'e', '.',
		'c', 'h', 'a', 'i', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func keyedHash(key domainKey, data []byte) Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// The key is a compiled-in 32-byte constant — NewKeyed only
		// fails on wrong key length.
		panic("ledger: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(data)

	var digest Hash
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// StateRoot computes the state-domain digest of the registry's
// deterministic snapshot encoding. Two registries with the same
// logical state have the same root; any divergence in tickets,
// counters, or admin changes it. External parties compare roots to
// verify a ledger copy without replaying its history.
func (r *Registry) StateRoot() (Hash, error) {
	data, err := r.EncodeSnapshot()
	if err != nil {
		return Hash{}, err
	}
	return keyedHash(stateDomainKey, data), nil
}

// ChainHash computes the chain-domain digest linking an audit entry
// to its predecessor: BLAKE3(previous || entry encoding). The journal
// stores the digest with each entry; recomputing the chain detects
// any retroactive edit, insertion, or deletion in the audit history.
func ChainHash(previous Hash, encodedEntry []byte) Hash {
	input := make([]byte, 0, len(previous)+len(encodedEntry))
	input = append(input, previous[:]...)
	input = append(input, encodedEntry...)
	return keyedHash(chainDomainKey, input)
}
