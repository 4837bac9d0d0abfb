package controller

// Request carries the requester's intent lines for one cycle. Read, Write,
// and Atomic are independent bits; certain encodings assert more than one,
// which is why the ready-state priority order matters.
type Request struct {
	Read      bool
	Write     bool
	Atomic    bool
	Cacheable bool
}

// Active reports whether any request is asserted this cycle.
func (r Request) Active() bool {
	return r.Read || r.Write || r.Atomic
}

// LookupResult is the line store's answer for the currently addressed line:
// whether it is present and valid, and whether the line selected for
// eviction holds data not yet written back.
type LookupResult struct {
	Hit         bool
	VictimDirty bool
}

// Inputs is the full input signal set, sampled once per clock edge.
type Inputs struct {
	Req    Request
	Lookup LookupResult

	// IgnoreRequest is the page-table-walker interlock. While asserted the
	// controller performs no cache action and holds the address steady.
	IgnoreRequest bool

	// FlushRequested asks for a whole-cache writeback scan.
	FlushRequested bool

	// CPUBusy means the requester has not yet accepted a completion; hold
	// current outputs and address.
	CPUBusy bool

	// BusAck pulses when the bus interface finishes a line transfer.
	BusAck bool

	// FlushDone is the scanner's flag that every entry has been visited.
	FlushDone bool
}

// Outputs is the full output signal set for one evaluation. The whole
// struct is computed per cycle; nothing carries over from earlier cycles.
//
// BusFetchLine and BusWriteLine are single-cycle pulses on the issuing
// edge. The wait states that follow hold Stall until BusAck arrives.
type Outputs struct {
	// Stall gates the requester. Asserted in every state except Ready.
	Stall bool

	// AddrSource selects the address the line store sees this cycle.
	AddrSource AddrSource

	// Valid/dirty bit directives for the addressed line.
	SetValid   bool
	ClearValid bool
	SetDirty   bool
	ClearDirty bool

	// WordWriteEnable commits one word into the addressed line;
	// LineWriteEnable commits a full fetched line.
	WordWriteEnable bool
	LineWriteEnable bool

	// SelectEvictAddr drives the victim's address rather than the
	// request's while the victim is written out.
	SelectEvictAddr bool

	// UpdateReplacement pulses the replacement unit on a completed access.
	UpdateReplacement bool

	// SelectFlushAddr marks flush-scan addressing; SelectLastFlushAddr
	// marks the cycles where the entry just identified as dirty, not the
	// advancing scan position, must be driven.
	SelectFlushAddr     bool
	SelectLastFlushAddr bool

	// Flush scanner counter controls.
	FlushAddrEnable bool
	FlushAddrReset  bool
	FlushWayEnable  bool
	FlushWayReset   bool

	// ValidDirtyWriteEnable commits the valid/dirty bits on the flush path.
	ValidDirtyWriteEnable bool

	// Bus transaction request pulses.
	BusFetchLine bool
	BusWriteLine bool

	// TransactionCommitted tells an external arbiter this sequence cannot
	// be preempted. True in every state except Ready.
	TransactionCommitted bool

	// Event pulses for counting. CacheAccess fires on the Ready cycle that
	// evaluates an active cacheable request; CacheMiss additionally
	// requires the lookup to report no hit.
	CacheAccess bool
	CacheMiss   bool
}
