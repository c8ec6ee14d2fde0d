package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"time"

	"github.com/dchest/siphash"
	"github.com/setsync/rateless/riblt"
	"golang.org/x/sys/unix"
)

const testSymbolSize = 256

type testSymbol [testSymbolSize]byte

func (d *testSymbol) XOR(t2 *testSymbol) *testSymbol {
	if d == nil {
		d = &testSymbol{}
	}
	for i := 0; i < testSymbolSize; i++ {
		d[i] ^= t2[i]
	}
	return d
}

func (d *testSymbol) Hash() uint64 {
	return siphash.Hash(567, 890, d[:])
}

func testSymbols(n int) []testSymbol {
	fmt.Println("allocating memory")
	data := make([]testSymbol, n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(data[i][0:8], uint64(i))
	}
	return data
}

func main() {
	nlocal := flag.Int("local", 0, "number of symbols only at the decoder")
	nremote := flag.Int("remote", 384010, "number of symbols only at the encoder")
	ncommon := flag.Int("common", 0, "number of symbols at both")
	flag.Parse()

	enc := riblt.Encoder[*testSymbol]{}
	dec := riblt.Decoder[*testSymbol]{}

	fmt.Println("preparing data")
	data := testSymbols(*nlocal + *nremote + *ncommon)

	nextId := 0
	for i := 0; i < *nlocal; i++ {
		dec.AddSymbol(&data[nextId])
		nextId += 1
	}
	for i := 0; i < *nremote; i++ {
		enc.AddSymbol(&data[nextId])
		nextId += 1
	}
	for i := 0; i < *ncommon; i++ {
		enc.AddSymbol(&data[nextId])
		dec.AddSymbol(&data[nextId])
		nextId += 1
	}

	ndiff := *nlocal + *nremote
	ncw := 0
	start := time.Now()
	for {
		dec.AddCodedSymbol(enc.ProduceNextCodedSymbol())
		ncw += 1
		dec.TryDecode()
		if dec.Decoded() {
			break
		}
		if ncw%100000 == 0 {
			fmt.Println(ncw, "codewords sent")
		}
	}
	dur := time.Now().Sub(start)
	fmt.Printf("%d codewords, %.2f overhead, %.2f seconds, %.2f diff/s\n", ncw, float64(ncw)/float64(ndiff), dur.Seconds(), float64(ndiff)/dur.Seconds())

	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err == nil {
		fmt.Printf("%.1f MB peak rss\n", float64(ru.Maxrss)/1024.0)
	}
}
