// Package linestore models the associative line-storage array of the data
// cache: tags, valid/dirty bits, replacement state, and the line payloads.
// Tag and replacement bookkeeping sit on the Akita cache directory; the
// store only adds the data array and the signal-level operations the
// controller drives.
package linestore

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Store is the tag/data array for one cache.
type Store struct {
	sets     int
	ways     int
	lineSize int

	// Akita directory for tag lookup, valid/dirty bits, and LRU state.
	directory *akitacache.DirectoryImpl

	// Line payloads, indexed by setID*ways + wayID.
	lines [][]byte
}

// New creates a store with the given geometry, all lines invalid.
func New(sets, ways, lineSize int) *Store {
	lines := make([][]byte, sets*ways)
	for i := range lines {
		lines[i] = make([]byte, lineSize)
	}

	return &Store{
		sets:     sets,
		ways:     ways,
		lineSize: lineSize,
		directory: akitacache.NewDirectory(
			sets,
			ways,
			lineSize,
			akitacache.NewLRUVictimFinder(),
		),
		lines: lines,
	}
}

// Sets returns the number of sets.
func (s *Store) Sets() int {
	return s.sets
}

// Ways returns the associativity.
func (s *Store) Ways() int {
	return s.ways
}

// LineSize returns the line size in bytes.
func (s *Store) LineSize() int {
	return s.lineSize
}

// LineAddr returns the line-aligned address containing addr.
func (s *Store) LineAddr(addr uint64) uint64 {
	return addr / uint64(s.lineSize) * uint64(s.lineSize)
}

func (s *Store) blockIndex(block *akitacache.Block) int {
	return block.SetID*s.ways + block.WayID
}

func (s *Store) lookup(addr uint64) *akitacache.Block {
	block := s.directory.Lookup(0, s.LineAddr(addr))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Probe reports whether the line holding addr is present and valid, and
// whether the replacement victim for that address holds unwritten data.
// Both flags feed the controller's per-cycle lookup inputs.
func (s *Store) Probe(addr uint64) (hit, victimDirty bool) {
	hit = s.lookup(addr) != nil

	victim := s.directory.FindVictim(s.LineAddr(addr))
	if victim != nil && victim.IsValid && victim.IsDirty {
		victimDirty = true
	}
	return hit, victimDirty
}

// wordOffset returns the in-line byte offset for a size-byte access at
// addr. An access that crosses a line boundary has no single home line and
// violates the store's addressing invariant.
func (s *Store) wordOffset(addr uint64, size int) uint64 {
	offset := addr % uint64(s.lineSize)
	if offset+uint64(size) > uint64(s.lineSize) {
		panic(fmt.Sprintf(
			"linestore: %d-byte access at %#x crosses a line boundary", size, addr))
	}
	return offset
}

// ReadWord reads size bytes at addr from the hit line, little-endian.
// The second return is false on a miss.
func (s *Store) ReadWord(addr uint64, size int) (uint64, bool) {
	offset := s.wordOffset(addr, size)
	block := s.lookup(addr)
	if block == nil {
		return 0, false
	}

	line := s.lines[s.blockIndex(block)]

	var value uint64
	for i := 0; i < size; i++ {
		value |= uint64(line[int(offset)+i]) << (i * 8)
	}
	return value, true
}

// WriteWord commits size bytes of value at addr into the hit line. It
// reports whether a line accepted the write.
func (s *Store) WriteWord(addr uint64, size int, value uint64) bool {
	offset := s.wordOffset(addr, size)
	block := s.lookup(addr)
	if block == nil {
		return false
	}

	line := s.lines[s.blockIndex(block)]
	for i := 0; i < size; i++ {
		line[int(offset)+i] = byte(value >> (i * 8))
	}
	return true
}

// SetDirty marks the line holding addr dirty.
func (s *Store) SetDirty(addr uint64) {
	if block := s.lookup(addr); block != nil {
		block.IsDirty = true
	}
}

// Visit updates the replacement state for the line holding addr. This is
// the replacement unit's update-on-access trigger.
func (s *Store) Visit(addr uint64) {
	if block := s.lookup(addr); block != nil {
		s.directory.Visit(block)
	}
}

// VictimAddr returns the line address of the eviction victim for addr.
// The second return is false when the victim slot is empty, in which case
// no writeback can be needed.
func (s *Store) VictimAddr(addr uint64) (uint64, bool) {
	victim := s.directory.FindVictim(s.LineAddr(addr))
	if victim == nil || !victim.IsValid {
		return 0, false
	}
	return victim.Tag, true
}

// VictimLine returns a copy of the victim line's payload for addr.
func (s *Store) VictimLine(addr uint64) []byte {
	victim := s.directory.FindVictim(s.LineAddr(addr))
	if victim == nil {
		return nil
	}

	line := make([]byte, s.lineSize)
	copy(line, s.lines[s.blockIndex(victim)])
	return line
}

// FillLine commits a fetched line into the victim slot for addr: tag
// updated, valid set, dirty cleared. It reports whether a valid line was
// displaced. Replacement state is deliberately left untouched; the update
// belongs to the access that follows the fill.
func (s *Store) FillLine(addr uint64, data []byte) (evicted bool) {
	victim := s.directory.FindVictim(s.LineAddr(addr))
	if victim == nil {
		return false
	}

	evicted = victim.IsValid

	line := s.lines[s.blockIndex(victim)]
	copy(line, data)
	for i := len(data); i < len(line); i++ {
		line[i] = 0
	}

	victim.Tag = s.LineAddr(addr)
	victim.IsValid = true
	victim.IsDirty = false
	return evicted
}

func (s *Store) blockAt(set, way int) *akitacache.Block {
	sets := s.directory.GetSets()
	if set < 0 || set >= len(sets) {
		return nil
	}
	for _, block := range sets[set].Blocks {
		if block.WayID == way {
			return block
		}
	}
	return nil
}

// EntryAt reports the flush scanner's view of one (set, way) entry: its
// line address and valid/dirty bits.
func (s *Store) EntryAt(set, way int) (addr uint64, valid, dirty bool) {
	block := s.blockAt(set, way)
	if block == nil {
		return 0, false, false
	}
	return block.Tag, block.IsValid, block.IsDirty
}

// LineAt returns a copy of the payload at one (set, way) entry.
func (s *Store) LineAt(set, way int) []byte {
	block := s.blockAt(set, way)
	if block == nil {
		return nil
	}

	line := make([]byte, s.lineSize)
	copy(line, s.lines[s.blockIndex(block)])
	return line
}

// ClearDirtyAt clears the dirty bit at one (set, way) entry. This is the
// flush path's combined valid/dirty commit; the valid bit holds its value.
func (s *Store) ClearDirtyAt(set, way int) {
	if block := s.blockAt(set, way); block != nil {
		block.IsDirty = false
	}
}

// Reset invalidates every line.
func (s *Store) Reset() {
	s.directory.Reset()
	for _, line := range s.lines {
		for i := range line {
			line[i] = 0
		}
	}
}
