package shadow

import (
	"strings"
	"testing"

	"github.com/dcsh4/sh4core/emu/addrspace"
	"github.com/dcsh4/sh4core/emu/cpu"
	"github.com/dcsh4/sh4core/emu/mmio"
	"github.com/dcsh4/sh4core/emu/xlat"
)

func newTestCPU(t *testing.T) (*cpu.CPU, *addrspace.Space) {
	t.Helper()
	space := addrspace.NewSpace(mmio.NewRegistry())
	ram := make([]byte, 0x1000)
	space.MapRAM(0, uint32(len(ram)), ram)
	c := cpu.New(space, nil, nil, nil, nil, nil, nil, nil, 10.0)
	c.Regs.PC = 0
	c.Regs.NewPC = 2
	return c, space
}

func TestRunBlockAgreesWhenNothingDiverges(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x7105) // ADD #5,R1

	tr := xlat.New(c)
	h := New(c, tr)

	rep, err := h.RunBlock(0)
	if err != nil {
		t.Fatalf("unexpected divergence: %v", err)
	}
	if rep.Executed != 1 {
		t.Fatalf("expected 1 instruction executed, got %d", rep.Executed)
	}
	if c.Regs.R[1] != 5 {
		t.Fatalf("expected R1==5 after the real run, got %d", c.Regs.R[1])
	}
	if c.Regs.PC != 2 {
		t.Fatalf("expected pc==2 after the real run, got %#x", c.Regs.PC)
	}
}

func TestRunBlockDetectsStaleTranslationDivergence(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x7105) // real memory: ADD #5,R1

	tr := xlat.New(c)
	h := New(c, tr)

	// Install a stale block at pc=0 claiming a different instruction
	// (ADD #9,R1) ran there -- the kind of divergence self-modifying
	// code produces when a write lands in a translated page without a
	// flush_page call.
	staleFn, ok := c.Handler(0x7109) // ADD #9,R1
	if !ok {
		t.Fatalf("expected ADD #imm,Rn to be implemented")
	}
	tr.Cache.Install(0, []xlat.Instr{{PC: 0, Fn: staleFn}}, 2)

	_, err := h.RunBlock(0)
	if err == nil {
		t.Fatalf("expected a reported divergence between the stale block and real memory")
	}
	if !strings.Contains(err.Error(), "r[1]") {
		t.Fatalf("expected the divergence report to mention r[1], got: %v", err)
	}
}

func TestCheckSpaceFlagsSpuriousLoggedWrite(t *testing.T) {
	real := addrspace.NewSpace(mmio.NewRegistry())
	ram := make([]byte, 0x100)
	real.MapRAM(0, uint32(len(ram)), ram)

	logSp := newLogSpace(real)
	logSp.WriteByte(0x10, 0x42)
	// Inject a spurious extra entry that the interpreter replay will
	// never actually perform (spec.md §8 scenario 6).
	logSp.ops = append(logSp.ops, Op{Kind: AccessWrite, Size: 1, Addr: 0x20, Value: 0x99})

	checkSp := newCheckSpace(real, logSp.ops)
	checkSp.WriteByte(0x10, 0x42)

	if checkSp.mismatch != nil {
		t.Fatalf("did not expect a mismatch yet, got %v", checkSp.mismatch)
	}
	if checkSp.idx != len(logSp.ops)-1 {
		t.Fatalf("expected one pending unconsumed logged op, replay consumed %d of %d", checkSp.idx, len(logSp.ops))
	}
}

func TestCheckSpaceFlagsMismatchedValue(t *testing.T) {
	real := addrspace.NewSpace(mmio.NewRegistry())
	ram := make([]byte, 0x100)
	real.MapRAM(0, uint32(len(ram)), ram)

	expected := []Op{{Kind: AccessWrite, Size: 1, Addr: 0x10, Value: 0x42}}
	checkSp := newCheckSpace(real, expected)
	checkSp.WriteByte(0x10, 0x43) // interpreter wrote a different value than the translator logged.

	if checkSp.mismatch == nil {
		t.Fatalf("expected a mismatch to be recorded")
	}
	if checkSp.mismatch.Index != 0 {
		t.Fatalf("expected mismatch at index 0, got %d", checkSp.mismatch.Index)
	}
}
