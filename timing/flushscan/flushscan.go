// Package flushscan provides the address/way scan counters that walk every
// cache entry during a whole-cache flush.
package flushscan

// Scanner steps through every (address, way) pair exactly once. The way
// counter advances first and carries into the address counter, mirroring
// the chained hardware counters it models.
type Scanner struct {
	sets int
	ways int

	addr    int
	way     int
	visited int
}

// New creates a scanner over a sets x ways geometry, positioned at the
// first entry.
func New(sets, ways int) *Scanner {
	return &Scanner{sets: sets, ways: ways}
}

// Reset returns the scan to the first entry.
func (s *Scanner) Reset() {
	s.addr = 0
	s.way = 0
	s.visited = 0
}

// Advance moves the scan one entry forward.
func (s *Scanner) Advance() {
	if s.Done() {
		return
	}
	s.visited++
	s.way++
	if s.way == s.ways {
		s.way = 0
		s.addr++
		if s.addr == s.sets {
			s.addr = 0
		}
	}
}

// Addr is the current address-counter value (the set index under scan).
func (s *Scanner) Addr() int {
	return s.addr
}

// Way is the current way-counter value.
func (s *Scanner) Way() int {
	return s.way
}

// Done reports that every (address, way) pair has been visited since the
// last reset.
func (s *Scanner) Done() bool {
	return s.visited >= s.sets*s.ways
}
