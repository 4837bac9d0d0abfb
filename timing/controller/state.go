package controller

// State identifies the cache controller's current position in the hit,
// miss-fill, atomic, or flush protocol. Exactly one state is held at a time
// and the machine advances once per clock edge.
type State uint8

const (
	// StateReady evaluates new requests. It is the only state in which the
	// requester is not stalled.
	StateReady State = iota
	// StateMissFetch waits for the bus to deliver the missed line.
	StateMissFetch
	// StateMissFetchDone has the fetched line in hand and decides whether
	// the victim must be written back first.
	StateMissFetchDone
	// StateMissEvictDirty writes the dirty victim out to the bus, driving
	// the victim's address instead of the request's.
	StateMissEvictDirty
	// StateMissWriteLine commits the fetched line into storage.
	StateMissWriteLine
	// StateMissReadWord services the original access against the filled line.
	StateMissReadWord
	// StateMissReadWordDelay resolves read versus atomic completion. The
	// read intent is still asserted while the requester is stalled, so the
	// completion needs this extra cycle to settle.
	StateMissReadWordDelay
	// StateMissWriteWord commits the store that caused the miss.
	StateMissWriteWord
	// StateCPUBusy holds a computed completion until the requester accepts.
	StateCPUBusy
	// StateCPUBusyFinishAMO holds an atomic completion; the write half fires
	// exactly once, on the cycle the requester becomes free.
	StateCPUBusyFinishAMO
	// StateFlush scans every (address, way) entry looking for dirty lines.
	StateFlush
	// StateFlushWriteBack writes one dirty entry out during a flush.
	StateFlushWriteBack
	// StateFlushClearDirty clears the dirty bit of the entry just written.
	StateFlushClearDirty

	numStates
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateMissFetch:
		return "MissFetch"
	case StateMissFetchDone:
		return "MissFetchDone"
	case StateMissEvictDirty:
		return "MissEvictDirty"
	case StateMissWriteLine:
		return "MissWriteLine"
	case StateMissReadWord:
		return "MissReadWord"
	case StateMissReadWordDelay:
		return "MissReadWordDelay"
	case StateMissWriteWord:
		return "MissWriteWord"
	case StateCPUBusy:
		return "CPUBusy"
	case StateCPUBusyFinishAMO:
		return "CPUBusyFinishAMO"
	case StateFlush:
		return "Flush"
	case StateFlushWriteBack:
		return "FlushWriteBack"
	case StateFlushClearDirty:
		return "FlushClearDirty"
	default:
		return "Unknown"
	}
}

// AddrSource selects which address the line store sees this cycle.
type AddrSource uint8

const (
	// AddrSourceRequest drives the requester's address.
	AddrSourceRequest AddrSource = iota
	// AddrSourceHeld drives the address latched when the current sequence
	// began.
	AddrSourceHeld
	// AddrSourceFlushScan drives the flush scanner's (address, way) entry.
	AddrSourceFlushScan
)

func (a AddrSource) String() string {
	switch a {
	case AddrSourceRequest:
		return "Request"
	case AddrSourceHeld:
		return "Held"
	case AddrSourceFlushScan:
		return "FlushScan"
	default:
		return "Unknown"
	}
}
