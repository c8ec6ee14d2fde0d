package main

import (
	"time"

	"github.com/setsync/rateless/des"
	"github.com/setsync/rateless/riblt"
)

// Each connected pair runs rounds of rateless reconciliation. One side
// streams coded symbols of its buffered transactions, the other collapses
// them against its own buffer and acks each one until it decodes; the completion ack
// carries the receiver-only transactions back, so one sender/receiver pair
// synchronises both directions.

type senderConfig struct {
	controlOverhead float64
}

type sender struct {
	buffer []riblt.HashedSymbol[transaction]
	*riblt.Encoder[transaction]

	encodingRound bool
	round         int
	inFlight      int
	sendWindow    float64
	lastRoundDiff int

	outbox []any

	senderConfig
}

func (n *sender) onTransaction(tx riblt.HashedSymbol[transaction]) {
	if n == nil {
		return
	}
	n.buffer = append(n.buffer, tx)
}

func (n *sender) startRound() {
	if n == nil || n.encodingRound {
		return
	}
	n.Encoder.Reset()
	for _, v := range n.buffer {
		n.Encoder.AddHashedSymbol(v)
	}
	n.buffer = n.buffer[:0]
	n.encodingRound = true
	n.round += 1
	n.inFlight = 0
	// prime the window with the previous round's difference scaled by the
	// control overhead, with a floor of one coded symbol
	n.sendWindow = float64(n.lastRoundDiff) * n.controlOverhead
	if n.sendWindow < 1 {
		n.sendWindow = 1
	}
	n.outbox = append(n.outbox, codeword{n.Encoder.ProduceNextCodedSymbol(), true, n.round})
	n.inFlight += 1
	n.fillSendWindow()
}

func (n *sender) fillSendWindow() {
	for float64(n.inFlight) < n.sendWindow {
		n.outbox = append(n.outbox, codeword{n.Encoder.ProduceNextCodedSymbol(), false, n.round})
		n.inFlight += 1
	}
}

func (n *sender) onAck(m ack) []riblt.HashedSymbol[transaction] {
	if n == nil || !n.encodingRound || m.round != n.round {
		return nil
	}
	if m.done {
		n.encodingRound = false
		n.lastRoundDiff = len(m.txs) + 1
		return m.txs
	}
	n.inFlight -= 1
	n.sendWindow += n.controlOverhead
	n.fillSendWindow()
	return nil
}

type receiver struct {
	buffer []riblt.HashedSymbol[transaction]
	*riblt.Decoder[transaction]

	decodingRound bool
	round         int
	snapshotLen   int

	outbox []any
}

func (n *receiver) onTransaction(tx riblt.HashedSymbol[transaction]) {
	if n == nil {
		return
	}
	n.buffer = append(n.buffer, tx)
}

func (n *receiver) onCodeword(m codeword) []riblt.HashedSymbol[transaction] {
	if n == nil {
		return nil
	}
	if m.newRound {
		n.Decoder.Reset()
		n.round = m.round
		n.snapshotLen = len(n.buffer)
		for _, v := range n.buffer[:n.snapshotLen] {
			n.Decoder.AddHashedSymbol(v)
		}
		n.decodingRound = true
	}
	if !n.decodingRound || m.round != n.round {
		return nil
	}
	n.Decoder.AddCodedSymbol(m.CodedSymbol)
	n.Decoder.TryDecode()
	if n.Decoder.Decoded() {
		n.decodingRound = false
		// everything reconciled this round is now shared with the peer
		n.buffer = n.buffer[n.snapshotLen:]
		local := n.Decoder.Local()
		txs := make([]riblt.HashedSymbol[transaction], len(local))
		copy(txs, local)
		n.outbox = append(n.outbox, ack{true, txs, n.round})
		remote := n.Decoder.Remote()
		res := make([]riblt.HashedSymbol[transaction], len(remote))
		copy(res, remote)
		return res
	}
	n.outbox = append(n.outbox, ack{false, nil, n.round})
	return nil
}

func connectCodingServers(simulator *des.Simulator, a, b *server, delay time.Duration, config senderConfig) {
	a.handlers[b] = peer{&coding{
		sender: &sender{
			Encoder:      &riblt.Encoder[transaction]{},
			senderConfig: config,
		},
	}, delay}
	a.peers = append(a.peers, b)
	b.handlers[a] = peer{&coding{
		receiver: &receiver{
			Decoder: &riblt.Decoder[transaction]{},
		},
	}, delay}
	b.peers = append(b.peers, a)
	// the sending side paces the rounds
	simulator.ScheduleMessage(des.OutgoingMessage{Payload: roundTimer{b}, To: nil, Delay: a.syncInterval}, a)
}

type coding struct {
	*sender
	*receiver
}

func (c *coding) collectOutgoingMessages(peer des.Module, delay time.Duration, outbox []des.OutgoingMessage) []des.OutgoingMessage {
	if c.sender != nil {
		for _, msg := range c.sender.outbox {
			outbox = append(outbox, des.OutgoingMessage{Payload: msg, To: peer, Delay: delay})
		}
		c.sender.outbox = c.sender.outbox[:0]
	}
	if c.receiver != nil {
		for _, msg := range c.receiver.outbox {
			outbox = append(outbox, des.OutgoingMessage{Payload: msg, To: peer, Delay: delay})
		}
		c.receiver.outbox = c.receiver.outbox[:0]
	}
	return outbox
}

func (c *coding) forwardTransaction(tx riblt.HashedSymbol[transaction]) {
	c.sender.onTransaction(tx)
	c.receiver.onTransaction(tx)
}

func (c *coding) onTimer() {
	c.sender.startRound()
}

func (c *coding) handleMessage(msg any) []riblt.HashedSymbol[transaction] {
	switch m := msg.(type) {
	case codeword:
		return c.receiver.onCodeword(m)
	case ack:
		return c.sender.onAck(m)
	default:
		panic("unknown message type")
	}
}
