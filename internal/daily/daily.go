// apps/go-server/internal/daily/daily.go
//
// Deterministic "deck of the day".
// The shuffle seed is HMAC-SHA256(salt, YYYY-MM-DD), so every player using
// the same salt gets the same layout for a given day and difficulty.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed derives the two PCG seed words for a date.
func Seed(date time.Time, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Shuffler returns a generator seeded for date. It satisfies game.Shuffler.
func Shuffler(date time.Time, salt string) *rand.Rand {
	a, b := Seed(date, salt)
	return rand.New(rand.NewPCG(a, b))
}
