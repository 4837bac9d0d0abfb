// Package dcache composes the cache controller with the line store, the
// flush scanner, and the memory bus into a cycle-steppable write-back data
// cache. One Tick is one clock edge: the collaborators are observed, the
// controller steps, and its output directives are applied.
package dcache

import (
	"fmt"

	"github.com/Shahjahan07/cvw/timing/config"
	"github.com/Shahjahan07/cvw/timing/controller"
	"github.com/Shahjahan07/cvw/timing/flushscan"
	"github.com/Shahjahan07/cvw/timing/linestore"
	"github.com/Shahjahan07/cvw/timing/membus"
)

// Statistics holds cache performance statistics, accumulated from the
// controller's event pulses.
type Statistics struct {
	Accesses   uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
	Flushes    uint64
	Cycles     uint64
}

// driveCycleLimit bounds the request drivers. The controller's liveness
// rests on the bus acknowledging and the scanner completing; a request that
// outlives this many cycles means one of those contracts is broken.
const driveCycleLimit = 1 << 20

// DCache is a single-level write-back data cache model.
type DCache struct {
	ctrl  *controller.Controller
	store *linestore.Store
	bus   *membus.Bus
	scan  *flushscan.Scanner

	// Request lines, held steady by the requester until the stall clears.
	req   controller.Request
	addr  uint64
	size  int
	wdata uint64

	flushRequested bool
	ignoreRequest  bool
	cpuBusy        bool

	// heldAddr is latched when a request is accepted and drives the
	// sequence that follows.
	heldAddr uint64
	rdata    uint64

	stats Statistics
}

// New creates a data cache with the given parameters in front of backing.
func New(cfg *config.Config, backing membus.BackingStore) *DCache {
	return &DCache{
		ctrl:  controller.New(),
		store: linestore.New(cfg.Sets, cfg.Ways, cfg.LineSize),
		bus:   membus.New(backing, cfg.LineSize, cfg.BusAckLatency),
		scan:  flushscan.New(cfg.Sets, cfg.Ways),
	}
}

// Stats returns the accumulated statistics.
func (c *DCache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the statistics.
func (c *DCache) ResetStats() {
	c.stats = Statistics{}
}

// State returns the controller's current state.
func (c *DCache) State() controller.State {
	return c.ctrl.State()
}

// SetCPUBusy drives the consumer-busy line: while true, the requester has
// not yet accepted a completion.
func (c *DCache) SetCPUBusy(busy bool) {
	c.cpuBusy = busy
}

// SetIgnoreRequest drives the page-table-walker interlock line: while
// true, the controller performs no cache action.
func (c *DCache) SetIgnoreRequest(ignore bool) {
	c.ignoreRequest = ignore
}

// Tick advances the model one clock edge and returns the controller's
// outputs for the cycle.
func (c *DCache) Tick() controller.Outputs {
	c.stats.Cycles++
	c.bus.Tick()

	addr, lookup := c.observe(c.ctrl.State())

	out := c.ctrl.Step(controller.Inputs{
		Req:            c.req,
		Lookup:         lookup,
		IgnoreRequest:  c.ignoreRequest,
		FlushRequested: c.flushRequested,
		CPUBusy:        c.cpuBusy,
		BusAck:         c.bus.Ack(),
		FlushDone:      c.scan.Done(),
	})

	c.apply(addr, out)
	return out
}

// observe resolves the active address for the cycle from the controller's
// address-source selection and performs the line store lookup against it.
func (c *DCache) observe(state controller.State) (uint64, controller.LookupResult) {
	switch state {
	case controller.StateFlush:
		_, valid, dirty := c.store.EntryAt(c.scan.Addr(), c.scan.Way())
		return 0, controller.LookupResult{VictimDirty: valid && dirty}

	case controller.StateFlushWriteBack, controller.StateFlushClearDirty:
		return 0, controller.LookupResult{}

	case controller.StateReady:
		hit, victimDirty := c.store.Probe(c.addr)
		return c.addr, controller.LookupResult{Hit: hit, VictimDirty: victimDirty}

	default:
		hit, victimDirty := c.store.Probe(c.heldAddr)
		return c.heldAddr, controller.LookupResult{Hit: hit, VictimDirty: victimDirty}
	}
}

// apply carries out the controller's output directives against the
// collaborators.
func (c *DCache) apply(addr uint64, out controller.Outputs) {
	if out.CacheAccess {
		c.stats.Accesses++
		c.heldAddr = addr
	}
	if out.CacheMiss {
		c.stats.Misses++
	}

	if out.FlushAddrReset || out.FlushWayReset {
		c.scan.Reset()
		c.stats.Flushes++
	}

	if out.BusFetchLine {
		c.bus.FetchLine(c.store.LineAddr(c.heldAddr))
	}

	if out.BusWriteLine {
		c.stats.Writebacks++
		switch {
		case out.SelectEvictAddr:
			if victimAddr, ok := c.store.VictimAddr(c.heldAddr); ok {
				c.bus.WriteLine(victimAddr, c.store.VictimLine(c.heldAddr))
			}
		case out.SelectLastFlushAddr:
			entryAddr, valid, _ := c.store.EntryAt(c.scan.Addr(), c.scan.Way())
			if valid {
				c.bus.WriteLine(entryAddr, c.store.LineAt(c.scan.Addr(), c.scan.Way()))
			}
		}
	}

	if out.LineWriteEnable {
		if c.store.FillLine(c.heldAddr, c.bus.Line()) {
			c.stats.Evictions++
		}
	}

	if out.WordWriteEnable {
		if c.req.Atomic {
			// The read half of the atomic: capture the old word before the
			// write half overwrites it.
			if v, ok := c.store.ReadWord(addr, c.size); ok {
				c.rdata = v
			}
		}
		c.store.WriteWord(addr, c.size, c.wdata)
	}
	if out.SetDirty {
		c.store.SetDirty(addr)
	}
	if out.ValidDirtyWriteEnable && out.ClearDirty {
		c.store.ClearDirtyAt(c.scan.Addr(), c.scan.Way())
	}

	if out.UpdateReplacement {
		c.store.Visit(addr)
		if c.req.Read && !c.req.Write && !c.req.Atomic {
			if v, ok := c.store.ReadWord(addr, c.size); ok {
				c.rdata = v
			}
		}
	}

	if out.FlushAddrEnable && out.FlushWayEnable {
		c.scan.Advance()
	}
}

func describeRequest(req controller.Request) string {
	switch {
	case req.Atomic:
		return "atomic"
	case req.Write:
		return "write"
	case req.Read:
		return "read"
	default:
		return "idle request"
	}
}

// drive holds the request lines steady and ticks until the completion
// commit fires, then releases the lines. It returns the cycles consumed.
func (c *DCache) drive() uint64 {
	start := c.stats.Cycles
	for {
		out := c.Tick()
		if out.WordWriteEnable || out.UpdateReplacement {
			break
		}
		if c.stats.Cycles-start > driveCycleLimit {
			panic(fmt.Sprintf("dcache: %s at %#x did not complete within %d cycles",
				describeRequest(c.req), c.addr, driveCycleLimit))
		}
	}
	c.req = controller.Request{}
	return c.stats.Cycles - start
}

// Read drives a cacheable read to completion and returns the data and the
// cycles consumed.
func (c *DCache) Read(addr uint64, size int) (uint64, uint64) {
	c.req = controller.Request{Read: true, Cacheable: true}
	c.addr = addr
	c.size = size

	cycles := c.drive()
	return c.rdata, cycles
}

// Write drives a cacheable write to completion and returns the cycles
// consumed.
func (c *DCache) Write(addr uint64, size int, value uint64) uint64 {
	c.req = controller.Request{Write: true, Cacheable: true}
	c.addr = addr
	c.size = size
	c.wdata = value

	return c.drive()
}

// Amo drives an atomic read-modify-write to completion: the old word is
// returned and value replaces it, indivisibly.
func (c *DCache) Amo(addr uint64, size int, value uint64) (uint64, uint64) {
	c.req = controller.Request{Read: true, Write: true, Atomic: true, Cacheable: true}
	c.addr = addr
	c.size = size
	c.wdata = value

	cycles := c.drive()
	return c.rdata, cycles
}

// Flush drives a whole-cache flush to completion and returns the cycles
// consumed.
func (c *DCache) Flush() uint64 {
	start := c.stats.Cycles

	c.flushRequested = true
	c.Tick()
	c.flushRequested = false

	for c.ctrl.State() != controller.StateReady {
		c.Tick()
		if c.stats.Cycles-start > driveCycleLimit {
			panic(fmt.Sprintf("dcache: flush did not complete within %d cycles",
				driveCycleLimit))
		}
	}
	return c.stats.Cycles - start
}
