package main

import (
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/dchest/siphash"
	"github.com/setsync/rateless/riblt"
)

const txDataSize = 128

// txData is the payload gossiped between nodes. The first 8 bytes carry the
// creation time in microseconds so receivers can measure propagation delay.
type txData [txDataSize]byte

func (d txData) XOR(t2 txData) txData {
	for i := 0; i < txDataSize; i++ {
		d[i] ^= t2[i]
	}
	return d
}

func (d txData) Hash() uint64 {
	return siphash.Hash(567, 890, d[:])
}

func randomTransaction() riblt.HashedSymbol[txData] {
	d := txData{}
	binary.LittleEndian.PutUint64(d[0:8], uint64(time.Now().UnixMicro()))
	rand.Read(d[8:])
	return riblt.HashedSymbol[txData]{Symbol: d, Hash: d.Hash()}
}

func txDelay(d txData) time.Duration {
	sent := int64(binary.LittleEndian.Uint64(d[0:8]))
	return time.Duration(time.Now().UnixMicro()-sent) * time.Microsecond
}
