package main

import (
	"fmt"
	"math/rand"
	"time"

	"dolphinmem/dolphin"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/spf13/cobra"
)

var (
	benchCount   int
	benchAddress string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Round-trip random u32 values through emulated RAM and report throughput.",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(benchAddress)
		if err != nil {
			return err
		}
		if benchCount <= 0 {
			return fmt.Errorf("count must be positive")
		}

		s, err := attach(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := roundTrips(s.Accessor(), addr, benchCount)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "transport: %s\n", s.Kind())
		fmt.Fprintf(out, "%.0f per sec\n", float64(benchCount)/res.total.Seconds())
		fmt.Fprintf(out, "time: %v\n", res.total)
		fmt.Fprintln(out, "round-trip latency (µs):")
		return histogram.Fprint(out, histogram.Hist(20, res.latencies), histogram.Linear(50))
	},
}

type benchResult struct {
	total     time.Duration
	latencies []float64
}

// roundTrips writes count random values to addr, reading each back.
func roundTrips(a *dolphin.Accessor, addr uint32, count int) (res benchResult, err error) {
	res.latencies = make([]float64, 0, count)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	start := time.Now()
	for i := 0; i < count; i++ {
		v := rng.Uint32()
		t0 := time.Now()
		if err = a.WriteU32(addr, v); err != nil {
			return
		}
		var got uint32
		if got, err = a.ReadU32(addr); err != nil {
			return
		}
		res.latencies = append(res.latencies, float64(time.Since(t0).Nanoseconds())/1e3)
		if got != v {
			err = fmt.Errorf("round-trip %d: wrote %#08x, read %#08x", i, v, got)
			return
		}
	}
	res.total = time.Since(start)
	return
}

func init() {
	benchCmd.Flags().IntVarP(&benchCount, "count", "n", 500000, "number of round-trips")
	benchCmd.Flags().StringVar(&benchAddress, "address", "0x80000000", "emulated address to exercise")
}
