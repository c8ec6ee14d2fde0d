// Command overhead-exp measures how many coded symbols the decoder needs
// per difference element, sweeping the difference size.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/dchest/siphash"
	"github.com/setsync/rateless/riblt"
)

type symbol uint64

func (s symbol) XOR(t2 symbol) symbol {
	return s ^ t2
}

func (s symbol) Hash() uint64 {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(uint64(s) >> (8 * i))
	}
	return siphash.Hash(567, 890, b[:])
}

// trial reconciles a difference of size d and returns the number of coded
// symbols consumed.
func trial(rng *rand.Rand, d int) int {
	enc := riblt.Encoder[symbol]{}
	for i := 0; i < d; i++ {
		enc.AddSymbol(symbol(rng.Uint64() | 1))
	}
	dec := riblt.Decoder[symbol]{}
	n := 0
	for {
		dec.AddCodedSymbol(enc.ProduceNextCodedSymbol())
		n += 1
		dec.TryDecode()
		if dec.Decoded() {
			return n
		}
	}
}

func main() {
	ntest := flag.Int("ntest", 100, "number of trials per difference size")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	fmt.Println("# diff size, overhead: mean, p5, p50, p95")
	for _, d := range []int{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000} {
		s := stats.Sample{}
		for i := 0; i < *ntest; i++ {
			s.Xs = append(s.Xs, float64(trial(rng, d))/float64(d))
		}
		sort.Float64s(s.Xs)
		s.Sorted = true
		fmt.Printf("%d %.3f %.3f %.3f %.3f\n", d, s.Mean(), s.Quantile(0.05), s.Quantile(0.50), s.Quantile(0.95))
	}
}
