// Package mem provides a byte-addressable sparse memory model used as the
// backing store behind the data cache.
package mem

const pageSize = 4096

// Memory is a little-endian, page-granular sparse memory. Pages are
// allocated on first write; reads from unallocated pages return zero.
type Memory struct {
	pages map[uint64][]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint64][]byte),
	}
}

func (m *Memory) page(addr uint64, allocate bool) []byte {
	base := addr / pageSize
	p, ok := m.pages[base]
	if !ok && allocate {
		p = make([]byte, pageSize)
		m.pages[base] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%pageSize]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	p := m.page(addr, true)
	p[addr%pageSize] = value
}

// Read16 reads a 16-bit value.
func (m *Memory) Read16(addr uint64) uint16 {
	return uint16(m.read(addr, 2))
}

// Read32 reads a 32-bit value.
func (m *Memory) Read32(addr uint64) uint32 {
	return uint32(m.read(addr, 4))
}

// Read64 reads a 64-bit value.
func (m *Memory) Read64(addr uint64) uint64 {
	return m.read(addr, 8)
}

// Write16 writes a 16-bit value.
func (m *Memory) Write16(addr uint64, value uint16) {
	m.write(addr, 2, uint64(value))
}

// Write32 writes a 32-bit value.
func (m *Memory) Write32(addr uint64, value uint32) {
	m.write(addr, 4, uint64(value))
}

// Write64 writes a 64-bit value.
func (m *Memory) Write64(addr uint64, value uint64) {
	m.write(addr, 8, value)
}

func (m *Memory) read(addr uint64, size int) uint64 {
	var value uint64
	for i := 0; i < size; i++ {
		value |= uint64(m.Read8(addr+uint64(i))) << (i * 8)
	}
	return value
}

func (m *Memory) write(addr uint64, size int, value uint64) {
	for i := 0; i < size; i++ {
		m.Write8(addr+uint64(i), byte(value>>(i*8)))
	}
}
