package main

import (
	"math/rand"
	"time"

	"github.com/setsync/rateless/des"
	"github.com/setsync/rateless/riblt"
)

type serverMetric struct {
	decodedTransactions   int
	receivedTransactions  int
	duplicateTransactions int
	receivedCodewords     int
}

func (s *serverMetric) resetMetric() {
	s.decodedTransactions = 0
	s.receivedTransactions = 0
	s.duplicateTransactions = 0
	s.receivedCodewords = 0
}

type serverConfig struct {
	blockArrivalIntv  float64
	blockArrivalBurst int
	syncInterval      time.Duration
}

// peerHandler runs one reconciliation protocol against one peer.
type peerHandler interface {
	collectOutgoingMessages(peer des.Module, delay time.Duration, outbox []des.OutgoingMessage) []des.OutgoingMessage
	forwardTransaction(tx riblt.HashedSymbol[transaction])
	handleMessage(msg any) []riblt.HashedSymbol[transaction]
	onTimer()
}

type peer struct {
	handler peerHandler
	delay   time.Duration
}

type server struct {
	handlers map[des.Module]peer
	peers    []des.Module
	rng      *rand.Rand

	serverConfig

	latencySketch *distributionSketch
	serverMetric

	received map[uint64]struct{}
}

func newServers(simulator *des.Simulator, n int, config serverConfig) []*server {
	res := []*server{}
	for i := 0; i < n; i++ {
		s := &server{
			handlers:     make(map[des.Module]peer),
			serverConfig: config,
			rng:          rand.New(rand.NewSource(int64(i))),
			received:     make(map[uint64]struct{}),
		}
		intv := time.Duration(s.rng.ExpFloat64() / s.blockArrivalIntv)
		simulator.ScheduleMessage(des.OutgoingMessage{Payload: txArrival{s.blockArrivalBurst}, To: nil, Delay: intv}, s)
		res = append(res, s)
	}
	return res
}

func (s *server) collectOutgoingMessages(outbox []des.OutgoingMessage) []des.OutgoingMessage {
	for _, p := range s.peers {
		handler := s.handlers[p]
		outbox = handler.handler.collectOutgoingMessages(p, handler.delay, outbox)
	}
	return outbox
}

func (s *server) forwardTransaction(tx riblt.HashedSymbol[transaction], exclude des.Module) {
	for _, p := range s.peers {
		if p != exclude {
			s.handlers[p].handler.forwardTransaction(tx)
		}
	}
}

// learn merges transactions recovered from a peer, forwarding the new ones
// to all other peers.
func (s *server) learn(txs []riblt.HashedSymbol[transaction], from des.Module, timestamp time.Duration) {
	for _, tx := range txs {
		if _, there := s.received[tx.Symbol.idx]; !there {
			s.latencySketch.recordTxLatency(tx.Symbol, timestamp)
			s.forwardTransaction(tx, from)
			s.received[tx.Symbol.idx] = struct{}{}
			s.decodedTransactions += 1
			s.receivedTransactions += 1
		} else {
			s.duplicateTransactions += 1
		}
	}
}

func (s *server) HandleMessage(payload any, from des.Module, timestamp time.Duration) []des.OutgoingMessage {
	var outbox []des.OutgoingMessage
	switch m := payload.(type) {
	case txArrival:
		for i := 0; i < m.n; i++ {
			tx := txgen.generate(timestamp)
			s.forwardTransaction(riblt.HashedSymbol[transaction]{Symbol: tx, Hash: tx.Hash()}, nil)
			s.received[tx.idx] = struct{}{}
			s.receivedTransactions += 1
		}
		// schedule the next arrival
		intv := time.Duration(s.rng.ExpFloat64() / s.blockArrivalIntv)
		outbox = append(outbox, des.OutgoingMessage{Payload: txArrival{s.blockArrivalBurst}, To: nil, Delay: intv})
	case roundTimer:
		s.handlers[m.peer].handler.onTimer()
		outbox = append(outbox, des.OutgoingMessage{Payload: m, To: nil, Delay: s.syncInterval})
	default:
		n := s.handlers[from]
		switch payload.(type) {
		case codeword, ltCodeword:
			s.receivedCodewords += 1
		}
		s.learn(n.handler.handleMessage(payload), from, timestamp)
	}
	outbox = s.collectOutgoingMessages(outbox)
	return outbox
}
