package controller_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Shahjahan07/cvw/timing/controller"
)

var _ = Describe("Controller", func() {
	var c *controller.Controller

	BeforeEach(func() {
		c = controller.New()
	})

	read := controller.Request{Read: true, Cacheable: true}
	write := controller.Request{Write: true, Cacheable: true}
	amo := controller.Request{Read: true, Write: true, Atomic: true, Cacheable: true}

	Describe("Hit paths", func() {
		It("should complete a read hit in one cycle with no bus activity", func() {
			out := c.Step(controller.Inputs{
				Req:    read,
				Lookup: controller.LookupResult{Hit: true},
			})

			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.Stall).To(BeFalse())
			Expect(out.UpdateReplacement).To(BeTrue())
			Expect(out.WordWriteEnable).To(BeFalse())
			Expect(out.BusFetchLine).To(BeFalse())
			Expect(out.BusWriteLine).To(BeFalse())
			Expect(out.CacheAccess).To(BeTrue())
			Expect(out.CacheMiss).To(BeFalse())
		})

		It("should commit a write hit in one cycle", func() {
			out := c.Step(controller.Inputs{
				Req:    write,
				Lookup: controller.LookupResult{Hit: true},
			})

			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.WordWriteEnable).To(BeTrue())
			Expect(out.SetDirty).To(BeTrue())
			Expect(out.UpdateReplacement).To(BeTrue())
		})

		It("should wait in the busy-hold state until the requester is free", func() {
			out := c.Step(controller.Inputs{
				Req:     read,
				Lookup:  controller.LookupResult{Hit: true},
				CPUBusy: true,
			})
			Expect(out.UpdateReplacement).To(BeTrue())
			Expect(c.State()).To(Equal(controller.StateCPUBusy))

			out = c.Step(controller.Inputs{CPUBusy: true})
			Expect(out.Stall).To(BeTrue())
			Expect(out.AddrSource).To(Equal(controller.AddrSourceHeld))
			Expect(c.State()).To(Equal(controller.StateCPUBusy))

			c.Step(controller.Inputs{})
			Expect(c.State()).To(Equal(controller.StateReady))
		})
	})

	Describe("Miss fill", func() {
		It("should walk the dirty-victim sequence for a store miss", func() {
			in := controller.Inputs{Req: write}

			out := c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissFetch))
			Expect(out.Stall).To(BeTrue())
			Expect(out.BusFetchLine).To(BeTrue())
			Expect(out.CacheMiss).To(BeTrue())

			// Bus not ready yet: hold.
			out = c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissFetch))
			Expect(out.BusFetchLine).To(BeFalse())

			in.BusAck = true
			c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissFetchDone))
			in.BusAck = false

			in.Lookup.VictimDirty = true
			out = c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissEvictDirty))
			Expect(out.BusWriteLine).To(BeTrue())
			Expect(out.SelectEvictAddr).To(BeTrue())

			in.BusAck = true
			out = c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissWriteLine))
			Expect(out.SelectEvictAddr).To(BeTrue())
			in.BusAck = false

			out = c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissReadWord))
			Expect(out.SetValid).To(BeTrue())
			Expect(out.ClearDirty).To(BeTrue())
			Expect(out.LineWriteEnable).To(BeTrue())
			Expect(out.UpdateReplacement).To(BeFalse())

			c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissWriteWord))

			out = c.Step(in)
			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.WordWriteEnable).To(BeTrue())
			Expect(out.SetDirty).To(BeTrue())
			Expect(out.UpdateReplacement).To(BeTrue())
		})

		It("should skip the eviction when the victim is clean", func() {
			in := controller.Inputs{Req: read}

			c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissFetch))

			in.BusAck = true
			c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissFetchDone))
			in.BusAck = false

			out := c.Step(in)
			Expect(c.State()).To(Equal(controller.StateMissWriteLine))
			Expect(out.BusWriteLine).To(BeFalse())
		})

		It("should issue exactly one fetch and one writeback for a dirty miss", func() {
			in := controller.Inputs{Req: read, BusAck: true}
			in.Lookup.VictimDirty = true

			fetches, writebacks := 0, 0
			for i := 0; i < 20 && !(i > 0 && c.State() == controller.StateReady); i++ {
				out := c.Step(in)
				if out.BusFetchLine {
					fetches++
				}
				if out.BusWriteLine {
					writebacks++
				}
			}

			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(fetches).To(Equal(1))
			Expect(writebacks).To(Equal(1))
		})

		It("should finish a read miss through the delay cycle", func() {
			in := controller.Inputs{Req: read, BusAck: true}

			c.Step(in) // Ready -> MissFetch
			c.Step(in) // -> MissFetchDone
			c.Step(in) // clean victim -> MissWriteLine
			c.Step(in) // -> MissReadWord
			c.Step(in) // read intent still up -> MissReadWordDelay
			Expect(c.State()).To(Equal(controller.StateMissReadWordDelay))

			out := c.Step(in)
			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.UpdateReplacement).To(BeTrue())
			Expect(out.WordWriteEnable).To(BeFalse())
		})
	})

	Describe("Atomic read-modify-write", func() {
		It("should commit a hit in a single cycle when the requester is free", func() {
			out := c.Step(controller.Inputs{
				Req:    amo,
				Lookup: controller.LookupResult{Hit: true},
			})

			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.WordWriteEnable).To(BeTrue())
			Expect(out.SetDirty).To(BeTrue())
			Expect(out.UpdateReplacement).To(BeTrue())
		})

		It("should defer the commit while the requester is busy and fire it exactly once", func() {
			out := c.Step(controller.Inputs{
				Req:     amo,
				Lookup:  controller.LookupResult{Hit: true},
				CPUBusy: true,
			})
			Expect(out.WordWriteEnable).To(BeFalse())
			Expect(c.State()).To(Equal(controller.StateCPUBusyFinishAMO))

			// Still busy: no side effects.
			out = c.Step(controller.Inputs{Req: amo, CPUBusy: true})
			Expect(out.WordWriteEnable).To(BeFalse())
			Expect(out.SetDirty).To(BeFalse())
			Expect(c.State()).To(Equal(controller.StateCPUBusyFinishAMO))

			// Free: the commit fires on the transition back to ready.
			out = c.Step(controller.Inputs{Req: amo})
			Expect(out.WordWriteEnable).To(BeTrue())
			Expect(out.SetDirty).To(BeTrue())
			Expect(out.UpdateReplacement).To(BeTrue())
			Expect(c.State()).To(Equal(controller.StateReady))
		})

		It("should never expose a ready state between the halves of a missed atomic", func() {
			in := controller.Inputs{Req: amo, BusAck: true}

			c.Step(in) // Ready -> MissFetch
			committed := false
			for i := 0; i < 20 && c.State() != controller.StateReady; i++ {
				out := c.Step(in)
				if out.WordWriteEnable {
					committed = true
					// The commit and the return to ready are the same edge.
					Expect(c.State()).To(Equal(controller.StateReady))
				}
			}
			Expect(committed).To(BeTrue())
		})
	})

	Describe("Flush", func() {
		It("should reset the scan counters when accepting a flush", func() {
			out := c.Step(controller.Inputs{FlushRequested: true})

			Expect(c.State()).To(Equal(controller.StateFlush))
			Expect(out.Stall).To(BeTrue())
			Expect(out.FlushAddrReset).To(BeTrue())
			Expect(out.FlushWayReset).To(BeTrue())
		})

		It("should scan straight through a clean cache without bus activity", func() {
			c.Step(controller.Inputs{FlushRequested: true})

			// Clean entries: advance every cycle.
			for i := 0; i < 3; i++ {
				out := c.Step(controller.Inputs{})
				Expect(out.FlushAddrEnable).To(BeTrue())
				Expect(out.FlushWayEnable).To(BeTrue())
				Expect(out.BusWriteLine).To(BeFalse())
				Expect(out.AddrSource).To(Equal(controller.AddrSourceFlushScan))
			}

			out := c.Step(controller.Inputs{FlushDone: true})
			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.BusWriteLine).To(BeFalse())
		})

		It("should write back a dirty entry and clear its dirty bit", func() {
			c.Step(controller.Inputs{FlushRequested: true})

			// The scanned entry is dirty: freeze and write it back.
			out := c.Step(controller.Inputs{
				Lookup: controller.LookupResult{VictimDirty: true},
			})
			Expect(c.State()).To(Equal(controller.StateFlushWriteBack))
			Expect(out.BusWriteLine).To(BeTrue())
			Expect(out.SelectLastFlushAddr).To(BeTrue())
			Expect(out.FlushAddrEnable).To(BeFalse())
			Expect(out.FlushWayEnable).To(BeFalse())

			out = c.Step(controller.Inputs{})
			Expect(c.State()).To(Equal(controller.StateFlushWriteBack))

			out = c.Step(controller.Inputs{BusAck: true})
			Expect(c.State()).To(Equal(controller.StateFlushClearDirty))

			out = c.Step(controller.Inputs{})
			Expect(c.State()).To(Equal(controller.StateFlush))
			Expect(out.ClearDirty).To(BeTrue())
			Expect(out.ValidDirtyWriteEnable).To(BeTrue())
			Expect(out.FlushAddrEnable).To(BeTrue())
			Expect(out.FlushWayEnable).To(BeTrue())
		})
	})

	Describe("Interlock", func() {
		It("should hold the address and take no action while suppressed", func() {
			out := c.Step(controller.Inputs{
				Req:           read,
				Lookup:        controller.LookupResult{Hit: true},
				IgnoreRequest: true,
			})

			Expect(c.State()).To(Equal(controller.StateReady))
			Expect(out.Stall).To(BeFalse())
			Expect(out.AddrSource).To(Equal(controller.AddrSourceHeld))
			Expect(out.UpdateReplacement).To(BeFalse())
			Expect(out.CacheAccess).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		It("should abandon an in-flight sequence", func() {
			c.Step(controller.Inputs{Req: read})
			Expect(c.State()).To(Equal(controller.StateMissFetch))

			c.Reset()
			Expect(c.State()).To(Equal(controller.StateReady))
		})
	})
})
