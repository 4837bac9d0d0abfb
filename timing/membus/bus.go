// Package membus models the bus interface between the data cache and the
// next memory level: whole-line fetch and writeback with an acknowledge
// pulse after a fixed transfer latency.
package membus

// BackingStore is the next level in the memory hierarchy. The bus only
// moves whole lines, so the surface is line-granular.
type BackingStore interface {
	// ReadLine fetches size bytes starting at the line address addr.
	ReadLine(addr uint64, size int) []byte
	// WriteLine stores a line payload starting at the line address addr.
	WriteLine(addr uint64, data []byte)
}

// Bus carries one line transfer at a time. A fetch or writeback request
// occupies the bus for ackLatency cycles, then Ack pulses for exactly one
// cycle as the transfer commits. The cache controller never issues a second
// request while one is outstanding, so an overlapping request is a
// protocol violation.
type Bus struct {
	backing    BackingStore
	lineSize   int
	ackLatency uint64

	busy      bool
	isWrite   bool
	addr      uint64
	writeData []byte
	line      []byte
	remaining uint64
	ack       bool
}

// New creates a bus in front of backing with the given line size and
// transfer latency in cycles. A latency of zero is clamped to one so the
// acknowledge always trails the request by at least a cycle.
func New(backing BackingStore, lineSize int, ackLatency uint64) *Bus {
	if ackLatency == 0 {
		ackLatency = 1
	}
	return &Bus{
		backing:    backing,
		lineSize:   lineSize,
		ackLatency: ackLatency,
	}
}

// FetchLine starts reading the line at addr from the backing store.
func (b *Bus) FetchLine(addr uint64) {
	if b.busy {
		panic("bus: fetch issued while a transfer is outstanding")
	}
	b.busy = true
	b.isWrite = false
	b.addr = addr
	b.remaining = b.ackLatency
}

// WriteLine starts writing data to the line at addr in the backing store.
func (b *Bus) WriteLine(addr uint64, data []byte) {
	if b.busy {
		panic("bus: writeback issued while a transfer is outstanding")
	}
	b.busy = true
	b.isWrite = true
	b.addr = addr
	b.writeData = make([]byte, len(data))
	copy(b.writeData, data)
	b.remaining = b.ackLatency
}

// Tick advances the bus one cycle. On the completing cycle the transfer
// commits against the backing store and Ack pulses.
func (b *Bus) Tick() {
	b.ack = false
	if !b.busy {
		return
	}

	b.remaining--
	if b.remaining > 0 {
		return
	}

	if b.isWrite {
		b.backing.WriteLine(b.addr, b.writeData)
		b.writeData = nil
	} else {
		b.line = b.backing.ReadLine(b.addr, b.lineSize)
	}
	b.busy = false
	b.ack = true
}

// Ack reports the single-cycle acknowledge pulse.
func (b *Bus) Ack() bool {
	return b.ack
}

// Line returns the data delivered by the last completed fetch. It stays
// valid until the next fetch completes.
func (b *Bus) Line() []byte {
	return b.line
}

// Busy reports whether a transfer is outstanding.
func (b *Bus) Busy() bool {
	return b.busy
}
