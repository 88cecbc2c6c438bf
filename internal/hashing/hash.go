// Package hashing computes the tamper-evidence digest stored on the ledger.
//
// The digest covers only the descriptive fields of a product, serialized as
// key-sorted JSON so that two records with the same field values always hash
// identically regardless of how the fields were assembled.
package hashing

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/crypto"
)

// ProductFields is the descriptive projection covered by the content hash.
// Ownership, timestamps and the hash itself are deliberately excluded: the
// ledger owns those, and including them would make the digest self-referential.
type ProductFields struct {
	Name         string
	Manufacturer string
	Origin       string
	Description  string
}

// Map returns the canonical field map used for hashing.
func (f ProductFields) Map() map[string]string {
	return map[string]string{
		"name":         f.Name,
		"manufacturer": f.Manufacturer,
		"origin":       f.Origin,
		"description":  f.Description,
	}
}

// ComputeHash returns the 0x-prefixed keccak256 digest of the canonical JSON
// encoding of the descriptive fields.
func ComputeHash(fields ProductFields) string {
	return ComputeHashFromMap(fields.Map())
}

// ComputeHashFromMap hashes an arbitrary field map. encoding/json marshals map
// keys in sorted order, which is the canonicalization this digest relies on.
func ComputeHashFromMap(fields map[string]string) string {
	payload, err := json.Marshal(fields)
	if err != nil {
		// a map[string]string cannot fail to marshal
		panic(err)
	}
	return crypto.Keccak256Hash(payload).Hex()
}
