package main

import (
	"math/rand"
	"time"

	"github.com/setsync/rateless/des"
	"github.com/setsync/rateless/lt"
	"github.com/setsync/rateless/riblt"
	"github.com/yangl1996/soliton"
)

// ltPeer is the fixed-rate baseline: a classic LT code with robust soliton
// degrees. The sender emits a fixed number of codewords per buffered
// transaction, so the rate must be provisioned for the worst case instead
// of adapting to the actual difference.

type ltConfig struct {
	codewordRate float64 // codewords sent per new transaction
	windowSize   int
	solitonK     uint64
}

var ltSalt = [lt.SaltSize]byte{0x42, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

func connectLTServers(a, b *server, delay time.Duration, config ltConfig, rngSeed int64) {
	mkDist := func(seed int64) lt.DegreeDistribution {
		return soliton.NewRobustSoliton(rand.New(rand.NewSource(seed)), config.solitonK, 0.03, 0.5)
	}
	a.handlers[b] = peer{&ltPeer{
		encoder:  lt.NewEncoder[ltPayload](rand.New(rand.NewSource(rngSeed)), ltSalt, mkDist(rngSeed), config.windowSize),
		decoder:  lt.NewDecoder[ltPayload](ltSalt),
		ltConfig: config,
	}, delay}
	a.peers = append(a.peers, b)
	b.handlers[a] = peer{&ltPeer{
		encoder:  lt.NewEncoder[ltPayload](rand.New(rand.NewSource(rngSeed+1)), ltSalt, mkDist(rngSeed+1), config.windowSize),
		decoder:  lt.NewDecoder[ltPayload](ltSalt),
		ltConfig: config,
	}, delay}
	b.peers = append(b.peers, a)
}

type ltPeer struct {
	encoder *lt.Encoder[ltPayload]
	decoder *lt.Decoder[ltPayload]
	credit  float64
	outbox  []any
	// items unblocked by out-of-band adds, surfaced with the next codeword
	backlog []lt.Item[ltPayload]

	ltConfig
}

func (c *ltPeer) collectOutgoingMessages(peer des.Module, delay time.Duration, outbox []des.OutgoingMessage) []des.OutgoingMessage {
	for _, msg := range c.outbox {
		outbox = append(outbox, des.OutgoingMessage{Payload: msg, To: peer, Delay: delay})
	}
	c.outbox = c.outbox[:0]
	return outbox
}

func (c *ltPeer) forwardTransaction(tx riblt.HashedSymbol[transaction]) {
	item := lt.NewItem[ltPayload](ltPayload{tx.Symbol})
	c.backlog = append(c.backlog, c.decoder.AddItem(item)...)
	if !c.encoder.AddItem(item) {
		return
	}
	c.credit += c.codewordRate
	for c.credit >= 1 {
		c.outbox = append(c.outbox, ltCodeword{c.encoder.ProduceCodeword()})
		c.credit -= 1
	}
}

func (c *ltPeer) onTimer() {}

func (c *ltPeer) handleMessage(msg any) []riblt.HashedSymbol[transaction] {
	switch m := msg.(type) {
	case ltCodeword:
		_, newItems := c.decoder.AddCodeword(m.Codeword)
		newItems = append(newItems, c.backlog...)
		c.backlog = c.backlog[:0]
		var res []riblt.HashedSymbol[transaction]
		for _, item := range newItems {
			tx := item.Data().tx
			res = append(res, riblt.HashedSymbol[transaction]{Symbol: tx, Hash: tx.Hash()})
		}
		return res
	default:
		panic("unknown message type")
	}
}
