package main

import (
	"github.com/setsync/rateless/riblt"
)

type codewordMsg struct {
	Symbol   riblt.CodedSymbol[txData]
	NewRound bool
	Round    int
}

type ackMsg struct {
	Done  bool
	Round int
	Txs   []riblt.HashedSymbol[txData]
}

// wireMessage is the tagged union sent over a peer connection; exactly one
// field is set.
type wireMessage struct {
	Codeword *codewordMsg
	Ack      *ackMsg
}
