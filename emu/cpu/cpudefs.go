/*
SH4 register file and core constant tables (spec.md §3 "Data model",
§7 "Error handling design"). Grounded in style on the teacher's
cpudefs.go (cpuState struct + opcode/irc constant blocks).

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
	"github.com/dcsh4/sh4core/emu/cache"
	"github.com/dcsh4/sh4core/emu/device"
	"github.com/dcsh4/sh4core/emu/dmac"
	"github.com/dcsh4/sh4core/emu/intc"
	"github.com/dcsh4/sh4core/emu/mmu"
	"github.com/dcsh4/sh4core/emu/pmm"
	"github.com/dcsh4/sh4core/emu/scif"
	"github.com/dcsh4/sh4core/emu/tmu"
)

// SR bit positions (spec.md §3 "sr (bitfield: MD, RB, BL, FD, M, Q, S,
// T, IMASK)"). Reset value 0x700000F0 matches MD|RB|BL set and
// IMASK=0xF, which is why these positions were picked to land there.
const (
	SRT        uint32 = 1 << 0
	SRS        uint32 = 1 << 1
	SRIMASK    uint32 = 0xF << 4
	SRIMASKSH         = 4
	SRQ        uint32 = 1 << 8
	SRM        uint32 = 1 << 9
	SRFD       uint32 = 1 << 15
	SRBL       uint32 = 1 << 28
	SRRB       uint32 = 1 << 29
	SRMD       uint32 = 1 << 30
)

// FPSCR fields (spec.md §3).
const (
	FPSCRRM   uint32 = 0x3
	FPSCRDN   uint32 = 1 << 18
	FPSCRPR   uint32 = 1 << 19
	FPSCRSZ   uint32 = 1 << 20
	FPSCRFR   uint32 = 1 << 21
)

const (
	ResetSR     uint32 = 0x700000F0
	ResetFPSCR  uint32 = 0x00040001
	ResetPC     uint32 = 0xA0000000
)

// Exception codes and vector offsets (spec.md §7).
type ExcCode int

const (
	ExcNone ExcCode = iota
	ExcReset
	ExcReadAddrErr
	ExcWriteAddrErr
	ExcTLBMissRead
	ExcTLBMissWrite
	ExcTLBProtRead
	ExcTLBProtWrite
	ExcIllegal
	ExcSlotIllegal
	ExcFPUDisabled
	ExcSlotFPUDisabled
	ExcTrap
	ExcBreakpoint
	ExcInterrupt
)

type excInfo struct {
	vector  uint32
	isTLB   bool
}

var excTable = map[ExcCode]excInfo{
	ExcReadAddrErr:     {0x0E0, false},
	ExcWriteAddrErr:    {0x100, false},
	ExcTLBMissRead:     {0x040, true},
	ExcTLBMissWrite:    {0x060, true},
	ExcTLBProtRead:     {0x0A0, true},
	ExcTLBProtWrite:    {0x0C0, true},
	ExcIllegal:         {0x180, false},
	ExcSlotIllegal:     {0x1A0, false},
	ExcFPUDisabled:     {0x800, false},
	ExcSlotFPUDisabled: {0x820, false},
	ExcTrap:            {0x160, false},
	ExcBreakpoint:      {0x1E0, false},
}

// Region decomposition (spec.md §3).
const (
	RegionP0 = 0
	RegionP1 = 1
	RegionP2 = 2
	RegionP3 = 3
	RegionP4 = 4
)

func region(vaddr uint32) int {
	switch vaddr >> 29 {
	case 4:
		return RegionP1
	case 5:
		return RegionP2
	case 6:
		return RegionP3
	case 7:
		return RegionP4
	default:
		return RegionP0
	}
}

// Regs is the single canonical CPU state, spec.md §3 "sh4r".
type Regs struct {
	R     [16]uint32
	RBank [8]uint32

	SR, PR, PC, GBR, VBR, SSR, SPC, SGR, DBR uint32

	FR    [2][16]uint32 // Two banks of 16 single-precision words, as raw bits.
	FPSCR uint32
	FPUL  uint32
	MAC   uint64

	NewPC       uint32
	InDelaySlot bool
	DelayTarget uint32

	SliceCycle uint64 // Nanoseconds elapsed within the current slice.

	EventPending bool
	EventTypes   uint8 // bit0 = IRQ, bit1 = generic event.

	State device.CPUState

	// TRA/EXPEVT/INTEVT are the MMIO-addressable trap/exception/interrupt
	// event registers (spec.md §7): TRA holds imm<<2 from the last TRAPA,
	// EXPEVT the code of the last synchronous exception, INTEVT the
	// vector code of the last accepted interrupt.
	TRA, EXPEVT, INTEVT uint32

	// MMU control-register staging (spec.md §6 MMIO register map): PTEH/
	// PTEL/PTEA/TTB/TEA/MMUCR/CCR back those registers; opLDTLB consumes
	// PTEH/PTEL when loading a UTLB entry. QACR0/QACR1 mirror into
	// mmu.MMU.QACR, which already owns the value StoreQueueTarget uses.
	PTEH, PTEL, PTEA, TTB, TEA, MMUCR, CCR uint32

	LastExceptionCode   ExcCode
	LastExceptionVector uint32
}

const (
	EventIRQ     uint8 = 1 << 0
	EventGeneric uint8 = 1 << 1
)

// CPU bundles the register file with every collaborator the
// interpreter, translator and shadow harness all need: the address
// space, MMU, cache model, and the peripheral set spec.md §2 ties to
// CPU state (INTC, TMU, DMAC, SCIF, PMM).
type CPU struct {
	Regs Regs

	Space Memory
	MMU   *mmu.MMU
	Cache *cache.Cache

	INTC *intc.INTC
	TMU  *tmu.TMU
	DMAC *dmac.DMAC
	SCIF *scif.SCIF
	PMM  *pmm.PMM

	CPUPeriodNs float64

	icPageBase uint32
	icPage     []byte
	icValid    bool

	breakAddr uint32
	breakKind device.BreakpointKind
	breakHit  func(pc uint32)

	fatal func(msg string)

	table [0x10000 >> 0]opFunc // filled once by buildTable at construction; see cpu_ops.go
}

// Memory is the narrow surface emu/cpu needs from emu/addrspace, kept
// as an interface so the shadow harness can swap in logging/replaying
// variants without emu/cpu depending on emu/shadow.
type Memory interface {
	ReadByte(addr uint32) uint32
	WriteByte(addr uint32, v uint32)
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, v uint32)
	ReadLong(addr uint32) uint32
	WriteLong(addr uint32, v uint32)
	WriteBurst(addr uint32, data []byte)
	RAMPageBytes(addr uint32) []byte
}

type opFunc func(c *CPU, step *stepInfo) ExcCode

type stepInfo struct {
	opcode uint16 // Full 16-bit instruction word.
	n, m   uint8  // Primary register fields.
	imm8   uint8
	imm4   uint8
	disp   int32
}
