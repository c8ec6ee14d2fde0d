package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"strings"
	"time"
)

func main() {
	rand.Seed(time.Now().Unix())

	addr := flag.String("l", ":9000", "address to listen")
	conn := flag.String("p", "", "comma-delimited list of addresses to connect to")
	txRate := flag.Float64("tx", 100.0, "local transaction generation rate per second")
	syncInterval := flag.Duration("sync", 200*time.Millisecond, "interval between reconciliation rounds")
	controlOverhead := flag.Float64("c", 0.10, "control overhead (extra coded symbols per decoded symbol)")
	flag.Parse()

	c := newController(nodeConfig{
		syncInterval:    *syncInterval,
		controlOverhead: *controlOverhead,
	})
	go c.loop()

	l, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalln("failed to listen:", err)
	}
	go func() {
		for {
			cn, err := l.Accept()
			if err != nil {
				log.Println("error accepting incoming connection:", err)
			} else {
				c.newPeer <- cn
			}
		}
	}()

	if *conn != "" {
		for _, a := range strings.Split(*conn, ",") {
			cn, err := net.Dial("tcp", a)
			if err != nil {
				log.Fatalln("failed to connect to", a, ":", err)
			}
			c.newPeer <- cn
		}
	}

	if *txRate > 0 {
		intv := time.Duration(float64(time.Second) / *txRate)
		ticker := time.NewTicker(intv)
		defer ticker.Stop()
		for range ticker.C {
			c.localTx <- randomTransaction()
		}
	} else {
		select {}
	}
}
