package atproto

import (
	"math/rand"
	"sync"
	"time"
)

// base32-sortable alphabet used for TIDs
const s32Alphabet = "234567abcdefghijklmnopqrstuvwxyz"

var (
	tidMu   sync.Mutex
	lastTID int64
	tidClk  = rand.Int63n(32) // stable per-process clock identifier
)

// NewTID returns a timestamp identifier suitable as a record key. TIDs sort
// lexicographically by creation time; the guard below keeps them strictly
// increasing even when the clock does not advance between calls.
func NewTID() string {
	tidMu.Lock()
	defer tidMu.Unlock()

	now := time.Now().UnixMicro()
	if now <= lastTID {
		now = lastTID + 1
	}
	lastTID = now

	return encodeTID(now, tidClk)
}

func encodeTID(usec int64, clkid int64) string {
	// 13 chars: 53 bits of microseconds + 10 bits of clock identifier,
	// top bit always zero
	v := (usec << 10) | (clkid & 0x3ff)

	var buf [13]byte
	for i := 12; i >= 0; i-- {
		buf[i] = s32Alphabet[v&0x1f]
		v >>= 5
	}
	return string(buf[:])
}
