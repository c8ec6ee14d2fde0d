package main

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

type connection struct {
	a     int
	b     int
	delay time.Duration
}

// loadTopology reads "a,b,delayMs" lines and returns the connections and
// the number of nodes.
func loadTopology(path string) ([]connection, int) {
	res := []connection{}
	maxIdx := 0
	file, err := os.Open(path)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	s := bufio.NewScanner(file)
	for s.Scan() {
		var a, b, d int
		n, err := fmt.Sscanf(s.Text(), "%d,%d,%d", &a, &b, &d)
		if err != nil {
			panic(err)
		}
		if n == 3 {
			res = append(res, connection{a, b, time.Duration(d) * time.Millisecond})
			if a > maxIdx {
				maxIdx = a
			}
			if b > maxIdx {
				maxIdx = b
			}
		}
	}
	if err := s.Err(); err != nil {
		panic(err)
	}
	return res, maxIdx + 1
}

// ringTopology connects n nodes in a ring with a uniform delay.
func ringTopology(n int, delay time.Duration) []connection {
	res := []connection{}
	for i := 0; i < n; i++ {
		res = append(res, connection{i, (i + 1) % n, delay})
	}
	return res
}
