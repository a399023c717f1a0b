/*
sh4core core: the public driver that wires the interpreter, translator,
shadow harness and on-chip peripherals into one runnable machine
(spec.md §6 "EXTERNAL INTERFACES"), grounded on the teacher's
emu/core/core.go goroutine-over-a-channel driver and emu/timer/timer.go
start/stop pattern.

Copyright (c) 2024, Richard Cornwell

Permission is hereby granted, free of charge, to any person obtaining a
copy of this software and associated documentation files (the "Software"),
to deal in the Software without restriction, including without limitation
the rights to use, copy, modify, merge, publish, distribute, sublicense,
and/or sell copies of the Software, and to permit persons to whom the
Software is furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dcsh4/sh4core/emu/addrspace"
	"github.com/dcsh4/sh4core/emu/cache"
	"github.com/dcsh4/sh4core/emu/clock"
	"github.com/dcsh4/sh4core/emu/cpu"
	"github.com/dcsh4/sh4core/emu/device"
	"github.com/dcsh4/sh4core/emu/dmac"
	"github.com/dcsh4/sh4core/emu/intc"
	"github.com/dcsh4/sh4core/emu/master"
	"github.com/dcsh4/sh4core/emu/mmio"
	"github.com/dcsh4/sh4core/emu/mmu"
	"github.com/dcsh4/sh4core/emu/pmm"
	"github.com/dcsh4/sh4core/emu/scif"
	"github.com/dcsh4/sh4core/emu/shadow"
	"github.com/dcsh4/sh4core/emu/tmu"
	"github.com/dcsh4/sh4core/emu/xlat"
)

// Core wires every subsystem spec.md §2's layer table names into one
// machine and drives it, either one run_slice() at a time (embedding
// use) or as a free-running goroutine fed by a master.Packet channel
// (the teacher's emu/core.core pattern).
type Core struct {
	wg      sync.WaitGroup
	done    chan struct{}
	running bool
	Master  chan master.Packet

	Space *addrspace.Space
	MMIO  *mmio.Registry
	MMU   *mmu.MMU
	Cache *cache.Cache
	INTC  *intc.INTC
	TMU   *tmu.TMU
	DMAC  *dmac.DMAC
	SCIF  *scif.SCIF
	PMM   *pmm.PMM
	Clock *clock.Clock
	CPU   *cpu.CPU

	xlat   *xlat.Translator
	shadow *shadow.Harness
	useXlat bool
	verify  bool

	scifBuf scifDeviceBuffer
}

// New builds a Core on a freshly wired set of subsystems, matching
// spec.md §6 "init()": MMU/cache/INTC/TMU/DMAC/SCIF/PMM all start at
// their own zero-value reset state, the CPU register file is reset,
// and no RAM or MMIO regions are mapped yet (the caller populates the
// address space via MapRegion/CreateRAMRegion/LoadROM/
// RegisterIORegion before the first run_slice).
func New(masterChan chan master.Packet) *Core {
	clk := clock.NewDefault()
	reg := mmio.NewRegistry()
	sp := addrspace.NewSpace(reg)

	m := mmu.New()
	ch := cache.New()
	ic := intc.New()
	tm := tmu.New(ic, clk.PeriPeriodNs())
	sc := scif.New(ic, clk.PeriPeriodNs())
	pm := pmm.New()

	c := &Core{
		done:   make(chan struct{}),
		Master: masterChan,
		Space:  sp,
		MMIO:   reg,
		MMU:    m,
		Cache:  ch,
		INTC:   ic,
		TMU:    tm,
		SCIF:   sc,
		PMM:    pm,
		Clock:  clk,
	}
	c.scifBuf = scifDeviceBuffer{scif: sc}
	d := dmac.New(sp, &c.scifBuf, ic)
	c.DMAC = d

	cp := cpu.New(sp, m, ch, ic, tm, d, sc, pm, clk.CPUPeriodNs())
	c.CPU = cp
	c.xlat = xlat.New(cp)
	c.shadow = shadow.New(cp, c.xlat)
	cp.SetFatalHandler(func(msg string) {
		slog.Error("sh4core: fatal condition, halting", "reason", msg)
	})

	return c
}

// scifDeviceBuffer implements dmac.DeviceBuffer over SCIF's RX/TX
// rings, bridging SCIF-triggered DMA channels (spec.md §4.7) the way
// the teacher's sys_channel bridges a unit record device's buffer to
// its channel program.
type scifDeviceBuffer struct {
	scif *scif.SCIF
}

func (b *scifDeviceBuffer) GetBuffer(channel int, buf []byte) int {
	n := 0
	for n < len(buf) {
		v, ok := b.scif.ReadRX()
		if !ok {
			break
		}
		buf[n] = v
		n++
	}
	return n
}

func (b *scifDeviceBuffer) PutBuffer(channel int, buf []byte) int {
	n := 0
	for n < len(buf) {
		if !b.scif.WriteTX(buf[n]) {
			break
		}
		n++
	}
	return n
}

// Reset implements spec.md §6 "reset()": re-homes the CPU register
// file and clears the on-chip peripherals, leaving mapped memory and
// MMIO regions untouched (a reset is not a reload).
func (c *Core) Reset() {
	c.CPU.Reset()
	*c.INTC = *intc.New()
	*c.TMU = *tmu.New(c.INTC, c.Clock.PeriPeriodNs())
	*c.DMAC = *dmac.New(c.Space, &c.scifBuf, c.INTC)
	*c.SCIF = *scif.New(c.INTC, c.Clock.PeriPeriodNs())
	c.PMM.Reset()
	c.xlat.Cache.Flush()
}

// SetUseXlat toggles between the plain interpreter and the translated
// execution path for RunSlice (spec.md §6 "set_use_xlat(bool)"). When
// verify mode is also on, every slice still runs through the shadow
// harness regardless of this flag, since lockstep checking requires
// both paths.
func (c *Core) SetUseXlat(use bool) { c.useXlat = use }

// SetVerify toggles the shadow/lockstep harness (spec.md §4.8): every
// compiled block executed while verify is on is replayed through the
// interpreter and compared, aborting the run on the first divergence.
func (c *Core) SetVerify(v bool) { c.verify = v }

// RunSlice implements spec.md §6 "run_slice(nanos)", dispatching to the
// interpreter, the translator, or the shadow-checked translator
// depending on the configured mode.
func (c *Core) RunSlice(nanos uint64) uint64 {
	switch {
	case c.verify:
		return c.runSliceVerified(nanos)
	case c.useXlat:
		return c.xlat.RunSlice(nanos)
	default:
		return c.CPU.RunSlice(nanos)
	}
}

// runSliceVerified single-steps block by block so every block gets a
// lockstep comparison before its effects are allowed to stand; a
// divergence halts the CPU via Fatal and stops the slice early
// (spec.md §4.8 "Shadow divergence is fatal").
func (c *Core) runSliceVerified(nanos uint64) uint64 {
	if c.CPU.Regs.State != device.StateRunning {
		c.CPU.TickPeripherals(nanos)
		return nanos
	}

	consumed := uint64(0)
	for {
		budgetNs := float64(nanos) - float64(consumed)*c.CPU.CPUPeriodNs
		if budgetNs < c.CPU.CPUPeriodNs {
			break
		}

		c.CPU.CheckInterrupt()

		rep, err := c.shadow.RunBlock(c.CPU.Regs.PC)
		consumed += uint64(rep.Executed)
		if err != nil {
			c.CPU.Fatal(fmt.Sprintf("shadow divergence: %v", err))
			break
		}
		if c.CPU.Regs.State != device.StateRunning {
			break
		}
	}

	c.CPU.Regs.SliceCycle += uint64(float64(consumed) * c.CPU.CPUPeriodNs)
	c.CPU.TickPeripherals(nanos)
	return nanos
}

// SetBreakpoint/ClearBreakpoint/GetBreakpoint implement spec.md §6's
// debug-console hooks directly against the CPU (breakpoints are
// checked identically by both the interpreter and the translator's
// block runner, see cpu.CheckBreakpoint).
func (c *Core) SetBreakpoint(addr uint32, kind device.BreakpointKind) { c.CPU.SetBreakpoint(addr, kind) }
func (c *Core) ClearBreakpoint()                                      { c.CPU.ClearBreakpoint() }
func (c *Core) GetBreakpoint() (uint32, device.BreakpointKind)        { return c.CPU.Breakpoint() }

// MapRegion installs a block of RAM at a physical base address
// (spec.md §6 "map_region(base,size,name,flags)"); flags is accepted
// for interface symmetry with RegisterIORegion but every RAM region
// this core models is readable and writable.
func (c *Core) MapRegion(base, size uint32, name string, flags int) {
	c.CreateRAMRegion(base, size, name)
}

// CreateRAMRegion implements spec.md §6 "create_ram_region(base,size)".
func (c *Core) CreateRAMRegion(base, size uint32, name string) {
	backing := make([]byte, size)
	c.Space.MapRAM(base, size, backing)
	slog.Debug("core: mapped RAM region", "name", name, "base", fmt.Sprintf("%#x", base), "size", size)
}

// LoadROM implements spec.md §6 "load_rom(file,base,size,crc)": maps
// data at base and, when want != 0, verifies its CRC-32 against want
// before accepting it.
func (c *Core) LoadROM(data []byte, base uint32, want uint32) error {
	if want != 0 {
		got := crc32IEEE(data)
		if got != want {
			return fmt.Errorf("core: ROM CRC mismatch at %#x: got %#08x want %#08x", base, got, want)
		}
	}
	c.Space.MapRAM(base, uint32(len(data)), data)
	return nil
}

// WireStandardPeripherals registers every on-chip peripheral's MMIO
// register block (spec.md §6 MMIO register map) at its P4 address, so
// loads and stores the interpreter routes through translateData's P4
// case actually reach INTC/TMU/DMAC/SCIF/PMM/MMU-control state instead
// of silently masking onto an unregistered page. config/sh4config
// calls this from SetMachine once Machine is valid.
func (c *Core) WireStandardPeripherals() {
	c.RegisterIORegion(c.CPU.MMUControlRegion(0xFF000000))
	c.RegisterIORegion(c.INTC.MMIORegion(0xFFD00000))
	c.RegisterIORegion(c.TMU.MMIORegion(0xFFD80000))
	c.RegisterIORegion(c.DMAC.MMIORegion(0xFFA00000))
	c.RegisterIORegion(c.SCIF.MMIORegion(0xFFE80000))
	c.RegisterIORegion(c.PMM.MMIORegion(0xFF200000))
}

// RegisterIORegion implements spec.md §6 "register_io_region(...)",
// installing an MMIO region's backing page and port table and mapping
// it into the address space at base.
func (c *Core) RegisterIORegion(r *mmio.Region) int {
	id := c.MMIO.Register(r)
	size := uint32(1024)
	c.Space.MapMMIO(r.Base, size, id)
	return id
}

// AttachDevice/DetachDevice implement spec.md §6's serial hooks,
// forwarding straight to SCIF (spec.md §4.6).
func (c *Core) AttachDevice(dev scif.Device) { c.SCIF.Attach(dev) }
func (c *Core) DetachDevice()                { c.SCIF.Detach() }

// Start runs the core as a free-running goroutine fed by Master,
// matching the teacher's emu/core.core.Start: loop on a fixed
// wall-clock tick, advancing run_slice whenever running is true,
// draining command packets from the master channel in between.
// Grounded on emu/core/core.go's Start/processPacket pair and
// emu/timer/timer.go's ticker-driven run loop.
func (c *Core) Start() {
	c.wg.Add(1)
	defer c.wg.Done()

	sliceNs := uint64(1_000_000) // 1ms slices between master-channel drains.
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case pkt := <-c.Master:
			c.processPacket(pkt)
		case <-ticker.C:
			if c.running {
				c.RunSlice(sliceNs)
			}
		}
	}
}

// Stop implements the teacher's close(done)+timeout-raced wg.Wait()
// shutdown sequence so a stuck run loop can't hang the caller forever.
func (c *Core) Stop() {
	close(c.done)
	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		slog.Warn("core: Stop timed out waiting for the run loop to exit")
	}
}

func (c *Core) processPacket(pkt master.Packet) {
	switch pkt.Msg {
	case master.Start:
		c.running = true
	case master.Stop:
		c.running = false
	case master.SetBreak:
		c.SetBreakpoint(pkt.Addr, device.BreakPermanent)
	case master.ClearBreak:
		c.ClearBreakpoint()
	case master.TelReceive:
		c.SCIF.QueueInbound([]byte{pkt.Data})
	case master.TelConnect, master.TelDisconnect:
		// Connection bookkeeping lives in the telnet package; the core
		// only cares about the bytes that flow through TelReceive.
	}
}
