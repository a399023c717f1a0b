package cpu

import (
	"testing"

	"github.com/dcsh4/sh4core/emu/addrspace"
	"github.com/dcsh4/sh4core/emu/cache"
	"github.com/dcsh4/sh4core/emu/clock"
	"github.com/dcsh4/sh4core/emu/device"
	"github.com/dcsh4/sh4core/emu/dmac"
	"github.com/dcsh4/sh4core/emu/intc"
	"github.com/dcsh4/sh4core/emu/mmio"
	"github.com/dcsh4/sh4core/emu/mmu"
	"github.com/dcsh4/sh4core/emu/pmm"
	"github.com/dcsh4/sh4core/emu/scif"
	"github.com/dcsh4/sh4core/emu/tmu"
)

// newTestCPU wires the same collaborator set emu/core.New does, without
// the master-packet/telnet plumbing a whole Core drags in.
func newTestCPU(t *testing.T) (*CPU, *addrspace.Space) {
	t.Helper()
	clk := clock.NewDefault()
	reg := mmio.NewRegistry()
	sp := addrspace.NewSpace(reg)
	sp.MapRAM(0, 0x1000, make([]byte, 0x1000))

	m := mmu.New()
	ch := cache.New()
	ic := intc.New()
	tm := tmu.New(ic, clk.PeriPeriodNs())
	sc := scif.New(ic, clk.PeriPeriodNs())
	pm := pmm.New()
	d := dmac.New(sp, nil, ic)

	c := New(sp, m, ch, ic, tm, d, sc, pm, clk.CPUPeriodNs())
	return c, sp
}

func TestResetSetsDocumentedPowerOnState(t *testing.T) {
	c, _ := newTestCPU(t)
	if c.Regs.PC != ResetPC {
		t.Fatalf("expected PC==%#x, got %#x", ResetPC, c.Regs.PC)
	}
	if c.Regs.SR != ResetSR {
		t.Fatalf("expected SR==%#x, got %#x", ResetSR, c.Regs.SR)
	}
	if c.Regs.State != device.StateRunning {
		t.Fatalf("expected StateRunning after reset, got %v", c.Regs.State)
	}
}

func TestImmediateAddExecutesOneInstruction(t *testing.T) {
	c, sp := newTestCPU(t)
	sp.WriteWord(0, 0x7105) // ADD #5,R1
	c.Regs.PC = 0
	c.Regs.NewPC = 2

	c.RunSlice(1000)

	if c.Regs.R[1] != 5 {
		t.Fatalf("expected R1==5, got %d", c.Regs.R[1])
	}
}

func TestJSRExecutesDelaySlotThenJumps(t *testing.T) {
	c, sp := newTestCPU(t)
	sp.WriteWord(0, 0x420B) // JSR @R2
	sp.WriteWord(2, 0x7105) // delay slot: ADD #5,R1
	c.Regs.R[2] = 0x100
	c.Regs.PC = 0
	c.Regs.NewPC = 2

	c.RunSlice(1000)

	if c.Regs.PR != 4 {
		t.Fatalf("expected PR==4 (return address past the delay slot), got %#x", c.Regs.PR)
	}
	if c.Regs.R[1] != 5 {
		t.Fatalf("expected the delay slot's ADD to have executed, R1==5, got %d", c.Regs.R[1])
	}
	if c.Regs.PC != 0x100 {
		t.Fatalf("expected PC==0x100 after the delay slot retired, got %#x", c.Regs.PC)
	}
}

func TestTRAPAPushesStateAndVectorsThroughVBR(t *testing.T) {
	c, sp := newTestCPU(t)
	c.Regs.VBR = 0x8C000000
	c.Regs.R[15] = 0x1000
	sp.WriteWord(0, 0xC312) // TRAPA #18
	c.Regs.PC = 0
	c.Regs.NewPC = 2

	c.step()

	if want := c.Regs.VBR + 0x100; c.Regs.PC != want {
		t.Fatalf("expected PC==VBR+0x100==%#x, got %#x", want, c.Regs.PC)
	}
	if c.Regs.TRA != 0x48 {
		t.Fatalf("expected TRA==0x48, got %#x", c.Regs.TRA)
	}
	if c.Regs.EXPEVT != 0x160 {
		t.Fatalf("expected EXPEVT==0x160, got %#x", c.Regs.EXPEVT)
	}
	if c.Regs.SR&(SRMD|SRBL|SRRB) != SRMD|SRBL|SRRB {
		t.Fatalf("expected SR to have MD|BL|RB set, got %#x", c.Regs.SR)
	}
	if got := sp.ReadLong(0x1000 - 8); got != 2 {
		t.Fatalf("expected pushed return PC==2 at R15-8, got %#x", got)
	}
}

func TestIllegalOpcodeRaisesExceptionAndContinues(t *testing.T) {
	c, sp := newTestCPU(t)
	sp.WriteWord(0, 0x0000) // unassigned encoding
	c.Regs.PC = 0
	c.Regs.NewPC = 2
	c.Regs.VBR = 0

	cyc, cont := c.step()
	if !cont {
		t.Fatalf("expected the pipeline to continue past an illegal opcode")
	}
	if cyc == 0 {
		t.Fatalf("expected at least one cycle charged for the faulting fetch")
	}
	if c.Regs.LastExceptionCode != ExcIllegal {
		t.Fatalf("expected LastExceptionCode==ExcIllegal, got %v", c.Regs.LastExceptionCode)
	}
	if want := c.Regs.VBR + 0x100; c.Regs.PC != want {
		t.Fatalf("expected PC==VBR+0x100==%#x, got %#x", want, c.Regs.PC)
	}
	if c.Regs.EXPEVT != excTable[ExcIllegal].vector {
		t.Fatalf("expected EXPEVT==%#x, got %#x", excTable[ExcIllegal].vector, c.Regs.EXPEVT)
	}
}

func TestDelaySlotIllegalRaisesSlotException(t *testing.T) {
	c, sp := newTestCPU(t)
	c.Regs.VBR = 0
	sp.WriteWord(0, 0x402B) // JMP @R0 (target doesn't matter, never reached)
	sp.WriteWord(2, 0x402B) // delay slot: another JMP -- illegal in a delay slot

	c.Regs.PC = 0
	c.Regs.NewPC = 2

	c.step() // executes the JMP, enters the delay slot
	c.step() // the delay slot instruction is itself a branch: illegal

	if c.Regs.LastExceptionCode != ExcSlotIllegal {
		t.Fatalf("expected LastExceptionCode==ExcSlotIllegal, got %v", c.Regs.LastExceptionCode)
	}
	if want := c.Regs.VBR + 0x100; c.Regs.PC != want {
		t.Fatalf("expected PC==VBR+0x100==%#x, got %#x", want, c.Regs.PC)
	}
	if c.Regs.EXPEVT != excTable[ExcSlotIllegal].vector {
		t.Fatalf("expected EXPEVT==%#x, got %#x", excTable[ExcSlotIllegal].vector, c.Regs.EXPEVT)
	}
}

func TestUnalignedFetchRaisesReadAddressError(t *testing.T) {
	c, _ := newTestCPU(t)
	c.Regs.VBR = 0
	c.Regs.PC = 1
	c.Regs.NewPC = 3

	c.step()

	if c.Regs.LastExceptionCode != ExcReadAddrErr {
		t.Fatalf("expected LastExceptionCode==ExcReadAddrErr, got %v", c.Regs.LastExceptionCode)
	}
}
