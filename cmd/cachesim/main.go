// Package main provides the cache simulator CLI. It runs a memory-access
// trace through the write-back data cache model and reports statistics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Shahjahan07/cvw/mem"
	"github.com/Shahjahan07/cvw/timing/config"
	"github.com/Shahjahan07/cvw/timing/dcache"
	"github.com/Shahjahan07/cvw/timing/membus"
	"github.com/Shahjahan07/cvw/trace"
)

var (
	configPath = flag.String("config", "", "Path to cache configuration JSON file")
	flushAtEnd = flag.Bool("flush", false, "Flush the cache after the trace completes")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cachesim [options] <trace file>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tracePath := flag.Arg(0)

	accesses, err := trace.Load(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trace: %v\n", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading cache config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid cache config: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Trace: %s (%d operations)\n", tracePath, len(accesses))
		fmt.Printf("Cache: %d sets x %d ways x %dB lines, bus latency %d\n",
			cfg.Sets, cfg.Ways, cfg.LineSize, cfg.BusAckLatency)
	}

	memory := mem.NewMemory()
	cache := dcache.New(cfg, membus.NewMemoryBacking(memory))

	for i, access := range accesses {
		switch access.Kind {
		case trace.KindRead:
			data, cycles := cache.Read(access.Addr, access.Size)
			if *verbose {
				fmt.Printf("%6d: read  0x%X -> 0x%X (%d cycles)\n", i, access.Addr, data, cycles)
			}
		case trace.KindWrite:
			cycles := cache.Write(access.Addr, access.Size, access.Value)
			if *verbose {
				fmt.Printf("%6d: write 0x%X <- 0x%X (%d cycles)\n", i, access.Addr, access.Value, cycles)
			}
		case trace.KindAmo:
			old, cycles := cache.Amo(access.Addr, access.Size, access.Value)
			if *verbose {
				fmt.Printf("%6d: amo   0x%X: 0x%X -> 0x%X (%d cycles)\n", i, access.Addr, old, access.Value, cycles)
			}
		case trace.KindFlush:
			cycles := cache.Flush()
			if *verbose {
				fmt.Printf("%6d: flush (%d cycles)\n", i, cycles)
			}
		}
	}

	if *flushAtEnd {
		cache.Flush()
	}

	printStats(cache.Stats())
}

func printStats(stats dcache.Statistics) {
	fmt.Printf("\nAccesses:   %d\n", stats.Accesses)
	fmt.Printf("Hits:       %d\n", stats.Accesses-stats.Misses)
	fmt.Printf("Misses:     %d\n", stats.Misses)
	if stats.Accesses > 0 {
		fmt.Printf("Miss rate:  %.2f%%\n",
			100*float64(stats.Misses)/float64(stats.Accesses))
	}
	fmt.Printf("Evictions:  %d\n", stats.Evictions)
	fmt.Printf("Writebacks: %d\n", stats.Writebacks)
	fmt.Printf("Flushes:    %d\n", stats.Flushes)
	fmt.Printf("Cycles:     %d\n", stats.Cycles)
}
