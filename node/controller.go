package main

import (
	"log"
	"net"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/setsync/rateless/riblt"
)

type controller struct {
	config  nodeConfig
	newPeer chan net.Conn
	localTx chan riblt.HashedSymbol[txData]
	decoded chan decodedTx

	peers    []*peer
	received map[uint64]struct{}

	decodedCount int
	latency      *ddsketch.DDSketch
}

func newController(config nodeConfig) *controller {
	latency, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		panic(err)
	}
	return &controller{
		config:   config,
		newPeer:  make(chan net.Conn),
		localTx:  make(chan riblt.HashedSymbol[txData], 1024),
		decoded:  make(chan decodedTx, 1024),
		received: make(map[uint64]struct{}),
		latency:  latency,
	}
}

func (c *controller) forward(tx riblt.HashedSymbol[txData], exclude *peer) {
	for _, p := range c.peers {
		if p != exclude {
			select {
			case p.newTx <- tx:
			default:
				log.Println("dropping transaction for slow peer", p.name)
			}
		}
	}
}

func (c *controller) loop() {
	report := time.NewTicker(time.Second)
	defer report.Stop()
	for {
		select {
		case conn := <-c.newPeer:
			p := newPeer(conn, c.config, c.decoded)
			c.peers = append(c.peers, p)
			p.run()
			log.Println("connected to", p.name)
		case tx := <-c.localTx:
			if _, there := c.received[tx.Hash]; there {
				continue
			}
			c.received[tx.Hash] = struct{}{}
			c.forward(tx, nil)
		case d := <-c.decoded:
			if _, there := c.received[d.tx.Hash]; there {
				continue
			}
			c.received[d.tx.Hash] = struct{}{}
			c.decodedCount += 1
			c.latency.Add(txDelay(d.tx.Symbol).Seconds())
			c.forward(d.tx, d.from)
		case <-report.C:
			qs, err := c.latency.GetValuesAtQuantiles([]float64{0.05, 0.50, 0.95})
			if err != nil {
				qs = []float64{0, 0, 0}
			}
			log.Printf("%d total %d decoded latency p5 %.4fs p50 %.4fs p95 %.4fs\n", len(c.received), c.decodedCount, qs[0], qs[1], qs[2])
		}
	}
}
