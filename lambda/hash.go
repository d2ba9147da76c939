package lambda

import (
	"crypto/sha256"
	"encoding/hex"
)

// Canonical renders it as Mark with map entries sorted by name, so that
// maps with equal fields in different order render identically.
func Canonical(it Item) string {
	return EmitMarkWithOptions(it, MarkOptions{SortKeys: true})
}

// Hash computes sha256(Canonical(it)).
func Hash(it Item) [32]byte {
	return sha256.Sum256([]byte(Canonical(it)))
}

// HashHex returns Hash(it) as lowercase hex.
func HashHex(it Item) string {
	h := Hash(it)
	return hex.EncodeToString(h[:])
}
