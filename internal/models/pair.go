package models

import (
	"bytes"

	"github.com/google/uuid"
)

// NormalizePair orders two user ids bytewise so an unordered pair maps to a
// single (low, high) key. Friend requests and conversations are keyed this
// way: {A,B} and {B,A} always resolve to the same row.
func NormalizePair(a, b uuid.UUID) (low, high uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
