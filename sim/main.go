package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/setsync/rateless/des"
)

var txgen = &transactionGenerator{}

var L = log.New(os.Stderr, "", 0)

func main() {
	arrivalBurstSize := flag.Int("b", 1, "transaction arrival burst size")
	transactionRate := flag.Float64("txgen", 5, "per-node transaction generation per second")
	simDuration := flag.Duration("dur", 100*time.Second, "simulation duration")
	warmupDuration := flag.Duration("w", 20*time.Second, "warm-up duration")
	controlOverhead := flag.Float64("c", 0.10, "control overhead (extra coded symbols per decoded symbol)")
	syncInterval := flag.Duration("sync", 200*time.Millisecond, "interval between reconciliation rounds")
	topologyFile := flag.String("topo", "", "topology file, lines of a,b,delayMs")
	numServers := flag.Int("n", 16, "number of nodes when no topology file is given")
	ringDelay := flag.Duration("delay", 50*time.Millisecond, "link delay when no topology file is given")
	algorithm := flag.String("a", "coding", "algorithm to use: coding, lt, or pull")
	ltRate := flag.Float64("ltrate", 1.6, "lt: codewords per transaction")
	ltWindow := flag.Int("ltwindow", 200, "lt: coding window size")
	ltK := flag.Uint64("ltk", 50, "lt: soliton distribution parameter")
	flag.Parse()

	serverConfig := serverConfig{
		// Rate parameter for the arrival interval distribution. Transactions
		// arrive in bursts to model decoding batches from unsimulated peers.
		blockArrivalIntv:  *transactionRate / float64(*arrivalBurstSize) / float64(time.Second),
		blockArrivalBurst: *arrivalBurstSize,
		syncInterval:      *syncInterval,
	}
	senderConfig := senderConfig{
		controlOverhead: *controlOverhead,
	}
	ltConfig := ltConfig{
		codewordRate: *ltRate,
		windowSize:   *ltWindow,
		solitonK:     *ltK,
	}

	var topo []connection
	var n int
	if *topologyFile != "" {
		topo, n = loadTopology(*topologyFile)
	} else {
		topo, n = ringTopology(*numServers, *ringDelay), *numServers
	}
	s := &des.Simulator{}
	servers := newServers(s, n, serverConfig)
	for _, srv := range servers {
		srv.latencySketch = newDistributionSketch(*warmupDuration)
	}
	for i, conn := range topo {
		switch *algorithm {
		case "coding":
			connectCodingServers(s, servers[conn.a], servers[conn.b], conn.delay, senderConfig)
		case "lt":
			connectLTServers(servers[conn.a], servers[conn.b], conn.delay, ltConfig, int64(i)*2+1)
		case "pull":
			connectPullServers(servers[conn.a], servers[conn.b], conn.delay)
		default:
			L.Fatalln("unknown algorithm", *algorithm)
		}
	}
	fmt.Println("#", n, "nodes, node 0 num peers", len(servers[0].handlers))

	warmed := false
	numEvents := 0
	lastSimTime := time.Duration(0)
	lastRealTime := time.Now()
	reportInterval := time.Duration(1) * time.Second
	for cur := time.Duration(0); cur < *simDuration; cur += reportInterval {
		s.RunUntil(cur)
		if cur > *warmupDuration && !warmed {
			warmed = true
			for _, srv := range servers {
				srv.resetMetric()
			}
		}

		L.Printf("%.2fs %d queued %.2f ev/s sim %.2fx speed up\n", s.Time().Seconds(), s.EventsQueued(), float64(s.EventsDelivered()-numEvents)/(s.Time()-lastSimTime).Seconds(), (s.Time()-lastSimTime).Seconds()/time.Now().Sub(lastRealTime).Seconds())
		numEvents = s.EventsDelivered()
		lastSimTime = s.Time()
		lastRealTime = time.Now()
	}

	fmt.Println("# moments: mean, stddev, p5, p25, p50, p75, p95")
	fmt.Println("# received transaction rate", collectMoments(servers, func(srv *server) float64 {
		return float64(srv.receivedTransactions) / (s.Time() - *warmupDuration).Seconds()
	}))
	fmt.Println("# duplicate transaction rate", collectMoments(servers, func(srv *server) float64 {
		return float64(srv.duplicateTransactions) / (s.Time() - *warmupDuration).Seconds()
	}))
	fmt.Println("# overhead", collectMoments(servers, func(srv *server) float64 {
		if srv.decodedTransactions == 0 {
			return 0
		}
		return float64(srv.receivedCodewords) / float64(srv.decodedTransactions)
	}))
	fmt.Println("# latency p5", collectMoments(servers, func(srv *server) float64 {
		return srv.latencySketch.getQuantiles([]float64{0.05})[0]
	}))
	fmt.Println("# latency p50", collectMoments(servers, func(srv *server) float64 {
		return srv.latencySketch.getQuantiles([]float64{0.50})[0]
	}))
	fmt.Println("# latency p95", collectMoments(servers, func(srv *server) float64 {
		return srv.latencySketch.getQuantiles([]float64{0.95})[0]
	}))
}

func collectMoments(servers []*server, metric func(s *server) float64) []float64 {
	res := []float64{}
	s := stats.Sample{}
	for _, server := range servers {
		s.Xs = append(s.Xs, metric(server))
	}
	sort.Float64s(s.Xs)
	s.Sorted = true

	res = append(res, s.Mean())
	res = append(res, s.StdDev())
	res = append(res, s.Quantile(0.05))
	res = append(res, s.Quantile(0.25))
	res = append(res, s.Quantile(0.50))
	res = append(res, s.Quantile(0.75))
	res = append(res, s.Quantile(0.95))
	return res
}
