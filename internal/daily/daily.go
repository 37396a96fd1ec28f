// Package daily derives the deterministic daily round and stores daily results.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic generator seed for a date using HMAC(salt, YYYY-MM-DD).
// Everyone playing on the same date with the same salt gets the same hand.
func Seed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes; clear the sign bit so the seed is non-negative
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}
