// Package trace loads memory-access traces for the cache simulator.
//
// A trace is a line-oriented text file. Blank lines and lines starting
// with '#' are skipped. Each remaining line is one operation:
//
//	R <addr> [size]          read
//	W <addr> <value> [size]  write
//	A <addr> <value> [size]  atomic read-modify-write
//	F                        whole-cache flush
//
// Addresses and values accept 0x-prefixed hex or decimal. Size defaults
// to 4 bytes. Addresses must be naturally aligned to the access size;
// an aligned access never crosses a cache-line boundary.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Kind identifies one traced operation.
type Kind int

const (
	// KindRead is a load.
	KindRead Kind = iota
	// KindWrite is a store.
	KindWrite
	// KindAmo is an atomic read-modify-write.
	KindAmo
	// KindFlush is a whole-cache flush.
	KindFlush
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindAmo:
		return "amo"
	case KindFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// DefaultSize is the access size used when a line omits one.
const DefaultSize = 4

// Access is one traced operation.
type Access struct {
	Kind  Kind
	Addr  uint64
	Size  int
	Value uint64
}

// Load reads a trace file.
func Load(path string) ([]Access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	accesses, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return accesses, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) ([]Access, error) {
	var accesses []Access

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		access, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		accesses = append(accesses, access)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return accesses, nil
}

func parseLine(line string) (Access, error) {
	fields := strings.Fields(line)
	op := strings.ToUpper(fields[0])

	switch op {
	case "F":
		if len(fields) != 1 {
			return Access{}, fmt.Errorf("flush takes no operands")
		}
		return Access{Kind: KindFlush}, nil

	case "R":
		if len(fields) < 2 || len(fields) > 3 {
			return Access{}, fmt.Errorf("read needs an address and an optional size")
		}
		addr, err := parseNum(fields[1])
		if err != nil {
			return Access{}, fmt.Errorf("bad address %q: %w", fields[1], err)
		}
		size, err := parseSize(fields, 2)
		if err != nil {
			return Access{}, err
		}
		if err := checkAligned(addr, size); err != nil {
			return Access{}, err
		}
		return Access{Kind: KindRead, Addr: addr, Size: size}, nil

	case "W", "A":
		if len(fields) < 3 || len(fields) > 4 {
			return Access{}, fmt.Errorf("%s needs an address, a value, and an optional size", op)
		}
		addr, err := parseNum(fields[1])
		if err != nil {
			return Access{}, fmt.Errorf("bad address %q: %w", fields[1], err)
		}
		value, err := parseNum(fields[2])
		if err != nil {
			return Access{}, fmt.Errorf("bad value %q: %w", fields[2], err)
		}
		size, err := parseSize(fields, 3)
		if err != nil {
			return Access{}, err
		}
		if err := checkAligned(addr, size); err != nil {
			return Access{}, err
		}
		kind := KindWrite
		if op == "A" {
			kind = KindAmo
		}
		return Access{Kind: kind, Addr: addr, Size: size, Value: value}, nil

	default:
		return Access{}, fmt.Errorf("unknown operation %q", fields[0])
	}
}

func parseSize(fields []string, index int) (int, error) {
	if len(fields) <= index {
		return DefaultSize, nil
	}
	size, err := strconv.Atoi(fields[index])
	if err != nil || (size != 1 && size != 2 && size != 4 && size != 8) {
		return 0, fmt.Errorf("bad size %q: must be 1, 2, 4, or 8", fields[index])
	}
	return size, nil
}

func checkAligned(addr uint64, size int) error {
	if addr%uint64(size) != 0 {
		return fmt.Errorf("address %#x is not aligned to the %d-byte access size", addr, size)
	}
	return nil
}

func parseNum(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}
