/*
sh4core interpreter core: fetch/decode/execute loop, memory-access
helpers bridging emu/mmu + emu/cache + emu/addrspace, exception
raising, delay-slot handling and interrupt acceptance (spec.md §3
"Data model", §4.1 "Interpreter", §5 "Concurrency & execution model",
§7 "Error handling design"). Grounded on the teacher's emu/cpu/cpu.go
CycleCPU loop and fetch/suppress/lpsw helpers.

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
package cpu

import (
	"log/slog"

	"github.com/dcsh4/sh4core/emu/cache"
	"github.com/dcsh4/sh4core/emu/device"
	"github.com/dcsh4/sh4core/emu/dmac"
	"github.com/dcsh4/sh4core/emu/intc"
	"github.com/dcsh4/sh4core/emu/mmu"
	"github.com/dcsh4/sh4core/emu/pmm"
	"github.com/dcsh4/sh4core/emu/scif"
	"github.com/dcsh4/sh4core/emu/tmu"
)

// New builds a CPU wired to its collaborators and resets the register
// file (spec.md §6 "init()").
func New(space Memory, m *mmu.MMU, c *cache.Cache, ic *intc.INTC, t *tmu.TMU, d *dmac.DMAC, sc *scif.SCIF, pm *pmm.PMM, cpuPeriodNs float64) *CPU {
	cp := &CPU{Space: space, MMU: m, Cache: c, INTC: ic, TMU: t, DMAC: d, SCIF: sc, PMM: pm, CPUPeriodNs: cpuPeriodNs}
	buildTable(cp)
	cp.Reset()
	return cp
}

// Reset implements spec.md §6 "reset()": PC/SR/FPSCR to their documented
// power-on values, general registers zeroed, MMU/cache left to their own
// defaults (owned by their packages, not reset here).
func (c *CPU) Reset() {
	c.Regs = Regs{}
	c.Regs.SR = ResetSR
	c.Regs.FPSCR = ResetFPSCR
	c.Regs.PC = ResetPC
	c.Regs.NewPC = ResetPC + 2
	c.Regs.VBR = 0
	c.Regs.State = device.StateRunning
	c.icValid = false
	if c.INTC != nil {
		c.INTC.SetMask(uint8((c.Regs.SR&SRIMASK)>>SRIMASKSH), c.Regs.SR&SRBL != 0)
	}
}

// SetBreakpoint/ClearBreakpoint/Breakpoint implement spec.md §6.
func (c *CPU) SetBreakpoint(addr uint32, kind device.BreakpointKind) {
	c.breakAddr, c.breakKind = addr, kind
}

func (c *CPU) ClearBreakpoint() { c.breakKind = device.BreakNone }

func (c *CPU) Breakpoint() (uint32, device.BreakpointKind) { return c.breakAddr, c.breakKind }

// OnBreakpointHit registers a callback invoked when a breakpointed PC is
// about to execute, before the instruction retires.
func (c *CPU) OnBreakpointHit(fn func(pc uint32)) { c.breakHit = fn }

// userMode reports the privilege state Translate/TranslateFetch need.
func (c *CPU) userMode() bool { return c.Regs.SR&SRMD == 0 }

// fetch reads one 16-bit instruction word at c.Regs.PC, translating it
// through the MMU when AT is enabled (masking to the 29-bit physical
// space otherwise) and then reading the resulting physical page through
// the IC fastpath page cache (spec.md §4.2 "IC fastpath"). Returns false
// with an exception already raised on fault.
func (c *CPU) fetch() (uint16, bool) {
	pc := c.Regs.PC
	if pc&1 != 0 {
		c.raiseException(ExcReadAddrErr, pc)
		return 0, false
	}

	phys := pc
	if c.MMU != nil && c.MMU.AT {
		p, fault := c.MMU.TranslateFetch(pc, 0, c.userMode())
		if fault == mmu.FaultMiss {
			c.raiseTLBException(ExcTLBMissRead, pc)
			return 0, false
		}
		if fault == mmu.FaultProtection {
			c.raiseTLBException(ExcTLBProtRead, pc)
			return 0, false
		}
		phys = p
	} else {
		phys &= 0x1FFFFFFF
	}

	pageBase := phys &^ 0xFFF
	if !c.icValid || pageBase != c.icPageBase {
		c.icPage = c.Space.RAMPageBytes(phys)
		c.icPageBase = pageBase
		c.icValid = c.icPage != nil
		if c.PMM != nil {
			c.PMM.RecordICFastpath(false)
		}
	} else if c.PMM != nil {
		c.PMM.RecordICFastpath(true)
	}

	off := phys & 0xFFF
	if c.icValid && int(off)+1 < len(c.icPage) {
		return uint16(c.icPage[off]) | uint16(c.icPage[off+1])<<8, true
	}
	return uint16(c.Space.ReadWord(phys)), true
}

// step executes one instruction, returning the number of CPU cycles it
// consumed and whether the pipeline should stop (fatal error or halted
// state). A delayed branch only records its target; the delay-slot
// instruction runs in the following step(), after which PC moves to the
// recorded target.
func (c *CPU) step() (cycles uint64, cont bool) {
	if c.breakKind != device.BreakNone && c.Regs.PC == c.breakAddr {
		if c.breakHit != nil {
			c.breakHit(c.Regs.PC)
		}
		if c.breakKind == device.BreakOneshot {
			c.breakKind = device.BreakNone
		}
		return 0, false
	}

	opc, ok := c.fetch()
	if !ok {
		return 1, true
	}

	st := decodeStep(opc)
	fn := c.table[opc]
	if fn == nil {
		c.raiseException(ExcIllegal, c.Regs.PC)
		return 1, true
	}

	wasDelay := c.Regs.InDelaySlot
	curPC := c.Regs.PC

	exc := fn(c, &st)
	if exc != ExcNone {
		c.raiseException(exc, curPC)
		return 1, true
	}

	if !wasDelay {
		next := c.Regs.NewPC // a taken BT/BF has replaced it
		c.Regs.PC = next
		c.Regs.NewPC = next + 2
	} else {
		c.Regs.InDelaySlot = false
		target := c.Regs.DelayTarget
		c.Regs.PC = target
		c.Regs.NewPC = target + 2
	}

	return 1, true
}

// RunSlice implements spec.md §6 "run_slice(nanos)": steps the
// interpreter until nanos of CPU time elapse or execution stops early,
// then ticks the peripheral clocks of TMU and SCIF by the whole slice
// at the documented ordering, and returns nanos, the full slice length,
// even when execution stopped early (spec.md §5 "Ordering
// guarantees": "instruction execution for the slice completes before
// peripheral ticking for that same slice").
func (c *CPU) RunSlice(nanos uint64) uint64 {
	if c.Regs.State != device.StateRunning {
		c.tickPeripherals(nanos)
		return nanos
	}

	budget := nanos
	consumedCycles := uint64(0)
	for {
		budgetNs := float64(budget) - float64(consumedCycles)*c.CPUPeriodNs
		if budgetNs < c.CPUPeriodNs {
			break
		}

		c.checkInterrupt()

		cyc, cont := c.step()
		consumedCycles += cyc
		if !cont {
			break
		}
		if c.Regs.State != device.StateRunning {
			break
		}
	}

	consumedNs := uint64(float64(consumedCycles) * c.CPUPeriodNs)
	c.Regs.SliceCycle += consumedNs
	c.tickPeripherals(nanos)
	return nanos
}

func (c *CPU) tickPeripherals(nanos uint64) {
	if c.TMU != nil {
		c.TMU.RunSlice(nanos)
	}
	if c.SCIF != nil {
		c.SCIF.RunSlice(nanos)
	}
}

// checkInterrupt implements spec.md §4.4's acceptance contract: if
// INTC reports a pending source above SR.IMASK and SR.BL is clear, save
// SPC/SSR, switch SR.{BL,MD}, and vector to VBR+0x600 (spec.md uses the
// shared exception-vector path for interrupts too).
func (c *CPU) checkInterrupt() {
	if c.Regs.SR&SRBL != 0 || c.INTC == nil || !c.INTC.Pending() {
		return
	}
	src, ok := c.INTC.Accept()
	if !ok {
		return
	}
	c.INTC.Clear(src)

	c.Regs.SSR = c.Regs.SR
	c.Regs.SPC = c.Regs.PC
	c.Regs.SGR = c.Regs.R[15]
	c.Regs.SR |= SRBL | SRMD | SRRB
	c.syncIMask()

	vector := uint32(intc.VectorCode[src])
	c.Regs.LastExceptionCode = ExcInterrupt
	c.Regs.LastExceptionVector = vector
	c.Regs.INTEVT = vector
	c.Regs.PC = c.Regs.VBR + 0x600
	c.Regs.NewPC = c.Regs.PC + 2
	c.Regs.InDelaySlot = false
}

// raiseException implements spec.md §7's generic exception contract:
// save SPC/SSR, set SR.{MD,BL,RB}, latch the EXPEVT code and jump to
// VBR+0x100 (general exceptions) or VBR+0x400 (TLB-related exceptions,
// per excInfo.isTLB) -- pc is the faulting instruction's address. The
// EXPEVT-style code in excTable identifies which exception fired; it is
// never itself a PC offset.
func (c *CPU) raiseException(code ExcCode, pc uint32) {
	info, known := excTable[code]
	if !known {
		slog.Warn("cpu: unmapped exception code", "code", code)
		info = excInfo{vector: 0x1E0}
	}

	c.Regs.SSR = c.Regs.SR
	c.Regs.SPC = pc
	c.Regs.SGR = c.Regs.R[15]
	c.Regs.SR |= SRBL | SRMD | SRRB
	c.syncIMask()

	c.Regs.LastExceptionCode = code
	c.Regs.LastExceptionVector = info.vector
	c.Regs.EXPEVT = info.vector

	base := c.Regs.VBR
	if info.isTLB {
		base += 0x400
	} else {
		base += 0x100
	}
	c.Regs.PC = base
	c.Regs.NewPC = c.Regs.PC + 2
	c.Regs.InDelaySlot = false
}

// raiseTLBException vectors through the same path as raiseException;
// excTable's isTLB flag on the TLB-related codes is what sends these to
// VBR+0x400 instead of VBR+0x100.
func (c *CPU) raiseTLBException(code ExcCode, pc uint32) {
	c.raiseException(code, pc)
}

func (c *CPU) syncIMask() {
	if c.INTC != nil {
		c.INTC.SetMask(uint8((c.Regs.SR&SRIMASK)>>SRIMASKSH), c.Regs.SR&SRBL != 0)
	}
}

// --- Memory access helpers used by opcode handlers ---

// storeQueueBase/storeQueueLimit bound the two 32-byte store-queue
// banks mapped at P4 (spec.md §4.3): addr[5] selects the bank, addr[4:2]
// the word within it. Store-queue writes never reach emu/addrspace --
// reaching it would mean falling through to Space.pageOf's PhysMask
// (0x1FFFFFFF), which maps 0xE0000000 onto physical page 0 and
// silently corrupts RAM instead of staging the queue.
const (
	storeQueueBase  = 0xE0000000
	storeQueueLimit = 0xE4000000
)

func storeQueueSlot(vaddr uint32) (bank, word int, ok bool) {
	if vaddr < storeQueueBase || vaddr >= storeQueueLimit {
		return 0, 0, false
	}
	off := vaddr - storeQueueBase
	return int((off >> 5) & 1), int((off >> 2) & 7), true
}

// storeQueueWrite stages a write into mmu.MMU's store-queue banks when
// vaddr falls in the store-queue window, reporting whether it did.
// opPREF later bursts the staged bank out through StoreQueueTarget.
func (c *CPU) storeQueueWrite(vaddr, v uint32, width int) bool {
	bank, word, ok := storeQueueSlot(vaddr)
	if !ok || c.MMU == nil {
		return false
	}
	cur := c.MMU.StoreQueue[bank][word]
	shift := (vaddr & 3) * 8
	switch width {
	case 8:
		mask := uint32(0xFF) << shift
		cur = cur&^mask | (v&0xFF)<<shift
	case 16:
		mask := uint32(0xFFFF) << shift
		cur = cur&^mask | (v&0xFFFF)<<shift
	default:
		cur = v
	}
	c.MMU.StoreQueue[bank][word] = cur
	return true
}

// storeQueueRead mirrors storeQueueWrite for reads; real hardware
// leaves store-queue reads undefined, so returning the staged word is
// as good a contract as any and keeps the path deterministic.
func (c *CPU) storeQueueRead(vaddr uint32, width int) (uint32, bool) {
	bank, word, ok := storeQueueSlot(vaddr)
	if !ok || c.MMU == nil {
		return 0, false
	}
	v := c.MMU.StoreQueue[bank][word]
	shift := (vaddr & 3) * 8
	switch width {
	case 8:
		return (v >> shift) & 0xFF, true
	case 16:
		return (v >> shift) & 0xFFFF, true
	default:
		return v, true
	}
}

func (c *CPU) readByte(vaddr uint32) (uint32, ExcCode) {
	if v, ok := c.storeQueueRead(vaddr, 8); ok {
		return v, ExcNone
	}
	phys, exc := c.translateData(vaddr, false)
	if exc != ExcNone {
		return 0, exc
	}
	return c.Space.ReadByte(phys), ExcNone
}

func (c *CPU) writeByte(vaddr, v uint32) ExcCode {
	if c.storeQueueWrite(vaddr, v, 8) {
		return ExcNone
	}
	phys, exc := c.translateData(vaddr, true)
	if exc != ExcNone {
		return exc
	}
	c.Space.WriteByte(phys, v)
	return ExcNone
}

func (c *CPU) readWord(vaddr uint32) (uint32, ExcCode) {
	if vaddr&1 != 0 {
		return 0, ExcReadAddrErr
	}
	if v, ok := c.storeQueueRead(vaddr, 16); ok {
		return v, ExcNone
	}
	phys, exc := c.translateData(vaddr, false)
	if exc != ExcNone {
		return 0, exc
	}
	return c.Space.ReadWord(phys), ExcNone
}

func (c *CPU) writeWord(vaddr, v uint32) ExcCode {
	if vaddr&1 != 0 {
		return ExcWriteAddrErr
	}
	if c.storeQueueWrite(vaddr, v, 16) {
		return ExcNone
	}
	phys, exc := c.translateData(vaddr, true)
	if exc != ExcNone {
		return exc
	}
	c.Space.WriteWord(phys, v)
	return ExcNone
}

func (c *CPU) readLong(vaddr uint32) (uint32, ExcCode) {
	if vaddr&3 != 0 {
		return 0, ExcReadAddrErr
	}
	if v, ok := c.storeQueueRead(vaddr, 32); ok {
		return v, ExcNone
	}
	phys, exc := c.translateData(vaddr, false)
	if exc != ExcNone {
		return 0, exc
	}
	return c.Space.ReadLong(phys), ExcNone
}

func (c *CPU) writeLong(vaddr, v uint32) ExcCode {
	if vaddr&3 != 0 {
		return ExcWriteAddrErr
	}
	if c.storeQueueWrite(vaddr, v, 32) {
		return ExcNone
	}
	phys, exc := c.translateData(vaddr, true)
	if exc != ExcNone {
		return exc
	}
	c.Space.WriteLong(phys, v)
	return ExcNone
}

// translateData resolves a data-side virtual address through the MMU
// (when AT is enabled) and maps P4 on-chip regions as spec.md §4.3/§8
// describe; the 64-bit video-memory alias is redirected later, by
// addrspace.Space's accessors on the physical address. P1/P2 are
// untranslated 1:1 windows onto physical memory. Store-queue addresses
// never reach here -- readByte/writeByte and friends intercept them
// first -- so the only P4 case left is the MMIO/cache-direct bus,
// which is addressed by masking to the 29-bit physical space exactly
// like P1/P2, now that every on-chip peripheral is actually registered
// as an MMIO region there (see core.Core.WireStandardPeripherals).
func (c *CPU) translateData(vaddr uint32, forWrite bool) (uint32, ExcCode) {
	switch region(vaddr) {
	case RegionP1, RegionP2, RegionP4:
		return vaddr & 0x1FFFFFFF, ExcNone
	}

	if c.MMU == nil || !c.MMU.AT {
		return vaddr & 0x1FFFFFFF, ExcNone
	}

	phys, fault := c.MMU.Translate(vaddr, 0, c.userMode(), forWrite)
	switch fault {
	case mmu.FaultNone:
		return phys, ExcNone
	case mmu.FaultMiss:
		if forWrite {
			return 0, ExcTLBMissWrite
		}
		return 0, ExcTLBMissRead
	case mmu.FaultProtection:
		if forWrite {
			return 0, ExcTLBProtWrite
		}
		return 0, ExcTLBProtRead
	case mmu.FaultInitialWrite:
		c.MMU.MarkDirty(vaddr, 0)
		phys, _ = c.MMU.Translate(vaddr, 0, c.userMode(), forWrite)
		return phys, ExcNone
	}
	return 0, ExcIllegal
}

// Step executes exactly one instruction and reports whether the pipeline
// should continue, exposing step() to collaborators (emu/shadow) that
// drive the interpreter one instruction at a time during a lockstep
// replay (spec.md §4.8 "single-step the interpreter until its
// slice_cycle reaches the translator's").
func (c *CPU) Step() (cycles uint64, cont bool) { return c.step() }

// CheckBreakpoint implements the breakpoint half of step() for
// collaborators (emu/xlat) that execute instructions through their own
// loop rather than step() itself: reports whether pc matches an armed
// breakpoint, firing the callback and clearing a oneshot breakpoint
// exactly as step() does (spec.md §5 "breakpoints are checked between
// instructions only ... clearing a oneshot breakpoint happens as it
// fires").
func (c *CPU) CheckBreakpoint(pc uint32) bool {
	if c.breakKind == device.BreakNone || pc != c.breakAddr {
		return false
	}
	if c.breakHit != nil {
		c.breakHit(pc)
	}
	if c.breakKind == device.BreakOneshot {
		c.breakKind = device.BreakNone
	}
	return true
}

// PeekWord resolves vaddr exactly as fetch does (through the MMU when
// AT=1, masked to the 29-bit physical space otherwise) but bypasses the IC fastpath page
// cache and PMM accounting. emu/xlat uses this to scan a basic block's
// instruction words at compile time without perturbing any
// interpreter-visible cache state (spec.md §4.2 "translation unit").
func (c *CPU) PeekWord(vaddr uint32) (uint16, bool) {
	if vaddr&1 != 0 {
		return 0, false
	}
	phys := vaddr
	if c.MMU != nil && c.MMU.AT {
		p, fault := c.MMU.TranslateFetch(vaddr, 0, c.userMode())
		if fault != mmu.FaultNone {
			return 0, false
		}
		phys = p
	} else {
		phys &= 0x1FFFFFFF
	}
	return uint16(c.Space.ReadWord(phys)), true
}

// CommitStep applies the PC/new_pc bookkeeping spec.md §3 describes
// ("new_pc holds the next-next PC ... except while in_delay_slot")
// after a handler has run. Callers capture wasDelay/curPC/nextPC
// before invoking the handler; outside a delay slot PC advances to the
// new_pc the handler leaves behind, as step() does above, which is
// nextPC unless a taken BT/BF replaced it. emu/xlat
// reuses this so translated blocks share the interpreter's delay-slot
// transition semantics exactly rather than re-deriving them.
func (c *CPU) CommitStep(wasDelay bool, curPC, nextPC uint32) {
	_ = curPC
	if !wasDelay {
		next := c.Regs.NewPC
		c.Regs.PC = next
		c.Regs.NewPC = next + 2
	} else {
		c.Regs.InDelaySlot = false
		target := c.Regs.DelayTarget
		c.Regs.PC = target
		c.Regs.NewPC = target + 2
	}
}

// RaiseException exposes raiseException to collaborators outside this
// package (emu/xlat, emu/shadow) that need to vector an exception
// raised by a translated block exactly as the interpreter would.
func (c *CPU) RaiseException(code ExcCode, pc uint32) { c.raiseException(code, pc) }

// CheckInterrupt exposes checkInterrupt so emu/xlat's dispatch loop can
// accept pending interrupts at instruction boundaries the same way
// RunSlice does (spec.md §5 "Interrupt acceptance happens at
// instruction boundaries only").
func (c *CPU) CheckInterrupt() { c.checkInterrupt() }

// TickPeripherals exposes the end-of-slice TMU/SCIF tick so emu/xlat's
// own RunSlice can fold peripheral pacing in after block execution the
// same way the interpreter's RunSlice does (spec.md §5 "Ordering
// guarantees").
func (c *CPU) TickPeripherals(nanos uint64) { c.tickPeripherals(nanos) }

// SetFatalHandler registers the callback invoked by Fatal. emu/core wires
// this to halt the run loop and surface the message to its caller when a
// condition the interpreter itself can't recover from is detected
// upstream (spec.md §4.8 "shadow divergence is fatal").
func (c *CPU) SetFatalHandler(fn func(msg string)) { c.fatal = fn }

// Fatal reports an unrecoverable condition detected by a collaborator
// (emu/core, on a shadow-harness divergence) and halts the
// CPU by driving it into StateStandby so run_slice stops advancing it.
func (c *CPU) Fatal(msg string) {
	c.Regs.State = device.StateStandby
	if c.fatal != nil {
		c.fatal(msg)
	}
}

// decodeStep extracts the common register/immediate/displacement fields
// every opcode handler needs; each handler re-reads only the fields it
// uses (spec.md doesn't mandate a particular field layout, this mirrors
// the real SH4 instruction encoding).
func decodeStep(opc uint16) stepInfo {
	return stepInfo{
		opcode: opc,
		n:      uint8((opc >> 8) & 0xF),
		m:      uint8((opc >> 4) & 0xF),
		imm8:   uint8(opc & 0xFF),
		imm4:   uint8(opc & 0xF),
		disp:   signExtend(opc),
	}
}

func signExtend(opc uint16) int32 {
	// Largest common case: 12-bit displacement (BRA/BSR). Individual
	// handlers that need 8-bit displacements re-derive from imm8.
	v := int32(opc & 0xFFF)
	if v&0x800 != 0 {
		v |= ^int32(0xFFF)
	}
	return v
}
