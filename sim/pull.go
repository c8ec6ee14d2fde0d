package main

import (
	"time"

	"github.com/setsync/rateless/des"
	"github.com/setsync/rateless/riblt"
)

// pull is the classic announce/request/response baseline: every transaction
// hash is announced to every peer, and missing ones are pulled explicitly.

func connectPullServers(a, b *server, delay time.Duration) {
	a.handlers[b] = peer{&pull{
		known: make(map[uint64]riblt.HashedSymbol[transaction]),
	}, delay}
	a.peers = append(a.peers, b)
	b.handlers[a] = peer{&pull{
		known: make(map[uint64]riblt.HashedSymbol[transaction]),
	}, delay}
	b.peers = append(b.peers, a)
}

type pull struct {
	known  map[uint64]riblt.HashedSymbol[transaction]
	outbox []any
}

func (c *pull) collectOutgoingMessages(peer des.Module, delay time.Duration, outbox []des.OutgoingMessage) []des.OutgoingMessage {
	for _, msg := range c.outbox {
		outbox = append(outbox, des.OutgoingMessage{Payload: msg, To: peer, Delay: delay})
	}
	c.outbox = c.outbox[:0]
	return outbox
}

func (c *pull) forwardTransaction(tx riblt.HashedSymbol[transaction]) {
	c.known[tx.Hash] = tx
	c.outbox = append(c.outbox, announce{tx.Hash})
}

func (c *pull) onTimer() {}

func (c *pull) handleMessage(msg any) []riblt.HashedSymbol[transaction] {
	switch m := msg.(type) {
	case announce:
		if _, there := c.known[m.hash]; !there {
			c.outbox = append(c.outbox, request{m.hash})
		}
		return nil
	case request:
		if tx, there := c.known[m.hash]; there {
			c.outbox = append(c.outbox, response{tx})
		}
		return nil
	case response:
		c.known[m.payload.Hash] = m.payload
		return []riblt.HashedSymbol[transaction]{m.payload}
	default:
		panic("unknown message type")
	}
}
