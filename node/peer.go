package main

import (
	"encoding/gob"
	"log"
	"net"
	"time"

	"github.com/setsync/rateless/riblt"
)

type nodeConfig struct {
	syncInterval    time.Duration
	controlOverhead float64
}

type decodedTx struct {
	tx   riblt.HashedSymbol[txData]
	from *peer
}

// peer runs reconciliation rounds against one TCP neighbor. Both directions
// of the link run the round protocol independently: we encode our buffered
// transactions for the neighbor, and decode the neighbor's stream against
// ours. The completion ack of each round carries the transactions only we
// had, so each direction repairs both sides.
type peer struct {
	conn     net.Conn
	name     string
	config   nodeConfig
	out      chan wireMessage
	newTx    chan riblt.HashedSymbol[txData]
	incoming chan wireMessage
	decoded  chan<- decodedTx
}

func newPeer(conn net.Conn, config nodeConfig, decoded chan<- decodedTx) *peer {
	return &peer{
		conn:     conn,
		name:     conn.RemoteAddr().String(),
		config:   config,
		out:      make(chan wireMessage, 1024),
		newTx:    make(chan riblt.HashedSymbol[txData], 1024),
		incoming: make(chan wireMessage, 1024),
		decoded:  decoded,
	}
}

func (p *peer) run() {
	go p.readLoop()
	go p.writeLoop()
	go p.loop()
}

func (p *peer) readLoop() {
	dec := gob.NewDecoder(p.conn)
	for {
		var m wireMessage
		if err := dec.Decode(&m); err != nil {
			log.Println("disconnecting from", p.name, ":", err)
			close(p.incoming)
			p.conn.Close()
			return
		}
		p.incoming <- m
	}
}

func (p *peer) writeLoop() {
	enc := gob.NewEncoder(p.conn)
	for m := range p.out {
		if err := enc.Encode(m); err != nil {
			log.Println("error sending to", p.name, ":", err)
			p.conn.Close()
			return
		}
	}
}

func (p *peer) loop() {
	ticker := time.NewTicker(p.config.syncInterval)
	defer ticker.Stop()

	var (
		sendBuffer []riblt.HashedSymbol[txData]
		enc        = &riblt.Encoder[txData]{}
		encoding   bool
		round      int
		inFlight   int
		sendWindow float64
		lastDiff   = 1
	)
	var (
		rxBuffer []riblt.HashedSymbol[txData]
		dec      = &riblt.Decoder[txData]{}
		decoding bool
		rxRound  int
		snapLen  int
	)

	sendCodeword := func(newRound bool) {
		p.out <- wireMessage{Codeword: &codewordMsg{enc.ProduceNextCodedSymbol(), newRound, round}}
		inFlight += 1
	}
	fillWindow := func() {
		for float64(inFlight) < sendWindow {
			sendCodeword(false)
		}
	}

	for {
		select {
		case <-ticker.C:
			if encoding {
				continue
			}
			enc.Reset()
			for _, v := range sendBuffer {
				enc.AddHashedSymbol(v)
			}
			sendBuffer = sendBuffer[:0]
			encoding = true
			round += 1
			inFlight = 0
			sendWindow = float64(lastDiff) * p.config.controlOverhead
			if sendWindow < 1 {
				sendWindow = 1
			}
			sendCodeword(true)
			fillWindow()
		case tx := <-p.newTx:
			sendBuffer = append(sendBuffer, tx)
			rxBuffer = append(rxBuffer, tx)
		case m, ok := <-p.incoming:
			if !ok {
				close(p.out)
				return
			}
			switch {
			case m.Codeword != nil:
				cw := m.Codeword
				if cw.NewRound {
					dec.Reset()
					rxRound = cw.Round
					snapLen = len(rxBuffer)
					for _, v := range rxBuffer[:snapLen] {
						dec.AddHashedSymbol(v)
					}
					decoding = true
				}
				if !decoding || cw.Round != rxRound {
					continue
				}
				dec.AddCodedSymbol(cw.Symbol)
				dec.TryDecode()
				if dec.Decoded() {
					decoding = false
					rxBuffer = rxBuffer[snapLen:]
					local := append([]riblt.HashedSymbol[txData]{}, dec.Local()...)
					p.out <- wireMessage{Ack: &ackMsg{true, rxRound, local}}
					for _, tx := range dec.Remote() {
						p.decoded <- decodedTx{tx, p}
					}
				} else {
					p.out <- wireMessage{Ack: &ackMsg{false, rxRound, nil}}
				}
			case m.Ack != nil:
				a := m.Ack
				if !encoding || a.Round != round {
					continue
				}
				if a.Done {
					encoding = false
					lastDiff = len(a.Txs) + 1
					for _, tx := range a.Txs {
						p.decoded <- decodedTx{tx, p}
					}
				} else {
					inFlight -= 1
					sendWindow += p.config.controlOverhead
					fillWindow()
				}
			}
		}
	}
}
