// Package controller implements the data-cache controller: the state
// machine that sequences every interaction between the requesting CPU, the
// line storage array, the replacement unit, and the memory bus for a
// single-level write-back cache.
//
// The machine interleaves four protocols: hit-path completion, miss-fill
// with victim eviction, atomic read-modify-write, and whole-cache flush.
// At most one miss-fill or flush sequence is in flight at a time; the
// controller stalls the requester until the sequence completes.
package controller

// Next is the combinational next-state/output function. It takes the
// current state and this cycle's inputs and produces the next state plus
// the complete output set for the cycle.
//
// Any state encoding outside the defined set steps to Ready. No defined
// input can produce such an encoding; the fallback is recovery, not a
// handled condition.
func Next(s State, in Inputs) (State, Outputs) {
	var out Outputs
	next := StateReady

	switch s {
	case StateReady:
		next = nextFromReady(in, &out)

	case StateMissFetch:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		if in.BusAck {
			next = StateMissFetchDone
		} else {
			next = StateMissFetch
		}

	case StateMissFetchDone:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		if in.Lookup.VictimDirty {
			// The victim holds unwritten data; it must reach the bus
			// before the fill overwrites it.
			out.BusWriteLine = true
			out.SelectEvictAddr = true
			next = StateMissEvictDirty
		} else {
			next = StateMissWriteLine
		}

	case StateMissEvictDirty:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		out.SelectEvictAddr = true
		if in.BusAck {
			next = StateMissWriteLine
		} else {
			next = StateMissEvictDirty
		}

	case StateMissWriteLine:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		out.SetValid = true
		out.ClearDirty = true
		out.LineWriteEnable = true
		// The replacement update is deferred to the access that follows
		// the fill, not performed on the fill itself.
		next = StateMissReadWord

	case StateMissReadWord:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		if in.Req.Write && !in.Req.Atomic {
			next = StateMissWriteWord
		} else {
			// The read intent is still asserted while the requester is
			// stalled; one more cycle separates read from atomic
			// completion.
			next = StateMissReadWordDelay
		}

	case StateMissReadWordDelay:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		if in.Req.Atomic {
			if in.CPUBusy {
				next = StateCPUBusyFinishAMO
			} else {
				commitWord(&out)
				next = StateReady
			}
		} else {
			out.UpdateReplacement = true
			if in.CPUBusy {
				next = StateCPUBusy
			} else {
				next = StateReady
			}
		}

	case StateMissWriteWord:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		commitWord(&out)
		if in.CPUBusy {
			next = StateCPUBusy
		} else {
			next = StateReady
		}

	case StateCPUBusy:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		if in.CPUBusy {
			next = StateCPUBusy
		} else {
			next = StateReady
		}

	case StateCPUBusyFinishAMO:
		out.Stall = true
		out.AddrSource = AddrSourceHeld
		if in.CPUBusy {
			next = StateCPUBusyFinishAMO
		} else {
			// The write half fires exactly once, on the cycle the
			// requester becomes free.
			commitWord(&out)
			next = StateReady
		}

	case StateFlush:
		out.Stall = true
		out.AddrSource = AddrSourceFlushScan
		out.SelectFlushAddr = true
		if in.Lookup.VictimDirty {
			// Freeze the scan and write this entry back before advancing.
			out.BusWriteLine = true
			out.SelectLastFlushAddr = true
			next = StateFlushWriteBack
		} else if in.FlushDone {
			next = StateReady
		} else {
			out.FlushAddrEnable = true
			out.FlushWayEnable = true
			next = StateFlush
		}

	case StateFlushWriteBack:
		out.Stall = true
		out.AddrSource = AddrSourceFlushScan
		out.SelectFlushAddr = true
		out.SelectLastFlushAddr = true
		if in.BusAck {
			next = StateFlushClearDirty
		} else {
			next = StateFlushWriteBack
		}

	case StateFlushClearDirty:
		out.Stall = true
		out.AddrSource = AddrSourceFlushScan
		out.SelectFlushAddr = true
		out.SelectLastFlushAddr = true
		out.ClearDirty = true
		out.ValidDirtyWriteEnable = true
		if in.FlushDone {
			next = StateReady
		} else {
			out.FlushAddrEnable = true
			out.FlushWayEnable = true
			next = StateFlush
		}
	}

	out.TransactionCommitted = s != StateReady
	return next, out
}

// nextFromReady evaluates a new request. The priority order when several
// conditions hold at once is: interlock, flush, atomic hit, read hit,
// write hit, miss. Atomic and plain intents can be asserted together by
// certain encodings, so this order is load-bearing.
func nextFromReady(in Inputs, out *Outputs) State {
	out.AddrSource = AddrSourceRequest

	if in.IgnoreRequest {
		// The interlock owns this cycle: hold the address, take no action.
		out.AddrSource = AddrSourceHeld
		return StateReady
	}

	if in.FlushRequested {
		out.Stall = true
		out.FlushAddrReset = true
		out.FlushWayReset = true
		return StateFlush
	}

	if !in.Req.Active() || !in.Req.Cacheable {
		return StateReady
	}

	out.CacheAccess = true

	if in.Lookup.Hit {
		switch {
		case in.Req.Atomic:
			if in.CPUBusy {
				return StateCPUBusyFinishAMO
			}
			commitWord(out)
			return StateReady
		case in.Req.Read:
			out.UpdateReplacement = true
			if in.CPUBusy {
				return StateCPUBusy
			}
			return StateReady
		case in.Req.Write:
			commitWord(out)
			if in.CPUBusy {
				return StateCPUBusy
			}
			return StateReady
		}
		return StateReady
	}

	out.CacheMiss = true
	out.Stall = true
	out.BusFetchLine = true
	return StateMissFetch
}

// commitWord drives the one-cycle completion of a write or atomic access:
// word write, dirty set, replacement update.
func commitWord(out *Outputs) {
	out.WordWriteEnable = true
	out.SetDirty = true
	out.UpdateReplacement = true
}

// Controller owns the current state. It is the only internal register of
// the core; all other signals are recomputed every cycle.
type Controller struct {
	state State
}

// New creates a controller in the ready state, as a synchronous reset
// would leave it.
func New() *Controller {
	return &Controller{state: StateReady}
}

// Reset forces the controller back to the ready state, abandoning any
// in-flight sequence.
func (c *Controller) Reset() {
	c.state = StateReady
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Step advances the machine one clock edge: it evaluates this cycle's
// outputs from (state, inputs) and latches the next state.
func (c *Controller) Step(in Inputs) Outputs {
	next, out := Next(c.state, in)
	c.state = next
	return out
}
