package membus

import (
	"encoding/binary"

	"github.com/Shahjahan07/cvw/mem"
)

// MemoryBacking exposes mem.Memory to the bus as a line-granular backing
// store. Lines are a power of two of at least eight bytes, so transfers
// move in eight-byte beats.
type MemoryBacking struct {
	memory *mem.Memory
}

// NewMemoryBacking wraps memory as a BackingStore.
func NewMemoryBacking(memory *mem.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadLine fetches size bytes starting at the line address addr.
func (m *MemoryBacking) ReadLine(addr uint64, size int) []byte {
	line := make([]byte, size)
	for i := 0; i+8 <= size; i += 8 {
		binary.LittleEndian.PutUint64(line[i:], m.memory.Read64(addr+uint64(i)))
	}
	return line
}

// WriteLine stores a line payload starting at the line address addr.
func (m *MemoryBacking) WriteLine(addr uint64, data []byte) {
	for i := 0; i+8 <= len(data); i += 8 {
		m.memory.Write64(addr+uint64(i), binary.LittleEndian.Uint64(data[i:]))
	}
}
