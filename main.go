// Package main provides the entry point for the cache simulator.
// It models a single-level write-back data cache, controller state machine
// included, built on Akita cache components.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("CacheSim - Write-Back Data Cache Simulator")
	fmt.Println("Built on Akita cache components")
	fmt.Println("")
	fmt.Println("Usage: cachesim [options] <trace file>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to cache configuration JSON file")
	fmt.Println("  -flush     Flush the cache after the trace completes")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
