package main

import (
	"github.com/setsync/rateless/des"
	"github.com/setsync/rateless/lt"
	"github.com/setsync/rateless/riblt"
)

type codeword struct {
	riblt.CodedSymbol[transaction]
	newRound bool
	round    int
}

type ack struct {
	done  bool
	txs   []riblt.HashedSymbol[transaction] // receiver-only transactions, returned when the round completes
	round int
}

type ltCodeword struct {
	lt.Codeword[ltPayload]
}

type announce struct {
	hash uint64
}

type request struct {
	hash uint64
}

type response struct {
	payload riblt.HashedSymbol[transaction]
}

type txArrival struct {
	n int
}

type roundTimer struct {
	peer des.Module // the peer whose sender should start a round
}
