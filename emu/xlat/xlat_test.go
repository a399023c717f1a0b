package xlat

import (
	"testing"

	"github.com/dcsh4/sh4core/emu/addrspace"
	"github.com/dcsh4/sh4core/emu/cpu"
	"github.com/dcsh4/sh4core/emu/device"
	"github.com/dcsh4/sh4core/emu/mmio"
)

// newTestCPU builds a minimal CPU over a flat RAM-backed address space,
// with every optional collaborator (MMU, cache, INTC, TMU, DMAC, SCIF,
// PMM) left nil -- every access path in emu/cpu nil-checks those, so
// this exercises the interpreter's memory/instruction plumbing without
// requiring the full peripheral set a real boot would need.
func newTestCPU(t *testing.T) (*cpu.CPU, *addrspace.Space) {
	t.Helper()
	space := addrspace.NewSpace(mmio.NewRegistry())
	ram := make([]byte, 0x10000)
	space.MapRAM(0, uint32(len(ram)), ram)
	c := cpu.New(space, nil, nil, nil, nil, nil, nil, nil, 10.0)
	c.Regs.PC = 0
	c.Regs.NewPC = 2
	return c, space
}

func TestCompileStopsAtBranchAndDelaySlot(t *testing.T) {
	c, space := newTestCPU(t)
	// ADD #5,R1 ; BRA $ ; NOP (delay slot)
	space.WriteWord(0, 0x7105)
	space.WriteWord(2, 0xA000)
	space.WriteWord(4, 0x0009)

	tr := New(c)
	b := tr.Compile(0)

	if len(b.Instrs) != 3 {
		t.Fatalf("expected 3 instructions (ADDI, BRA, delay-slot NOP), got %d", len(b.Instrs))
	}
	if b.SrcLen != 6 {
		t.Fatalf("expected SrcLen 6, got %d", b.SrcLen)
	}
	if b.Instrs[2].PC != 4 {
		t.Fatalf("expected delay-slot instruction at pc=4, got %d", b.Instrs[2].PC)
	}
}

func TestLookupMissThenHitAfterCompile(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x0009) // NOP
	space.WriteWord(2, 0xA000) // BRA $
	space.WriteWord(4, 0x0009) // delay slot NOP

	tr := New(c)
	if _, ok := tr.Cache.Lookup(0); ok {
		t.Fatalf("expected miss before compiling")
	}
	b := tr.Compile(0)
	got, ok := tr.Cache.Lookup(0)
	if !ok || got != b {
		t.Fatalf("expected lookup to find the just-installed block")
	}
	if got.Active != Accessed {
		t.Fatalf("expected Active=Accessed after a lookup hit, got %v", got.Active)
	}
}

func TestFlushPageClearsEntryAndDeactivates(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x0009)
	space.WriteWord(2, 0xA000)
	space.WriteWord(4, 0x0009)

	tr := New(c)
	b := tr.Compile(0)

	tr.Cache.FlushPage(0)

	if b.Active != Deleted {
		t.Fatalf("expected block to be deactivated by FlushPage, got %v", b.Active)
	}
	if _, ok := tr.Cache.Lookup(0); ok {
		t.Fatalf("expected lookup miss after FlushPage")
	}
}

func TestFlushDiscardsEverything(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x0009)
	space.WriteWord(2, 0xA000)
	space.WriteWord(4, 0x0009)

	tr := New(c)
	tr.Compile(0)
	tr.Cache.Flush()

	if _, ok := tr.Cache.Lookup(0); ok {
		t.Fatalf("expected lookup miss after a full flush")
	}
}

func TestGenerationPromotionOnCollision(t *testing.T) {
	c, space := newTestCPU(t)
	for a := uint32(0); a < 0x40; a += 2 {
		space.WriteWord(a, 0x0009)
	}

	cache := NewCacheSized(1, 1, 1)
	b1 := &Block{Active: Normal, StartPC: 0x10}
	b2 := &Block{Active: Normal, StartPC: 0x20}
	b3 := &Block{Active: Normal, StartPC: 0x30}

	cache.newGen.alloc(b1)
	if b1.gen != cache.newGen {
		t.Fatalf("expected b1 to land in newGen")
	}

	cache.newGen.alloc(b2) // collides with b1 in NEW (capacity 1) -> promotes b1 to TEMP.
	if b1.Active != Normal || b1.gen != cache.tempGen {
		t.Fatalf("expected b1 promoted to tempGen and still Normal, got active=%v gen=%p", b1.Active, b1.gen)
	}

	cache.newGen.alloc(b3) // collides with b2 -> promotes b2 to TEMP, which collides with b1 -> promotes b1 to OLD.
	if b1.gen != cache.oldGen {
		t.Fatalf("expected b1 promoted all the way to oldGen after a second collision chain")
	}
	_ = c
}

func TestBlockRunExecutesAddImmediateAndAdvancesPC(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x7105) // ADD #5,R1

	tr := New(c)
	b := tr.Compile(0)
	executed, exc, stopped := b.Run(c)

	if stopped {
		t.Fatalf("did not expect a breakpoint stop")
	}
	if exc != cpu.ExcNone {
		t.Fatalf("unexpected exception %v", exc)
	}
	if executed != 1 {
		t.Fatalf("expected 1 instruction executed, got %d", executed)
	}
	if c.Regs.R[1] != 5 {
		t.Fatalf("expected R1==5 after ADD #5,R1, got %d", c.Regs.R[1])
	}
	if c.Regs.PC != 2 {
		t.Fatalf("expected PC advanced to 2, got %#x", c.Regs.PC)
	}
}

func TestBlockRunHonorsBreakpoint(t *testing.T) {
	c, space := newTestCPU(t)
	space.WriteWord(0, 0x0009) // NOP
	space.WriteWord(2, 0x0009) // NOP
	space.WriteWord(4, 0xA000) // BRA $
	space.WriteWord(6, 0x0009) // delay slot NOP

	tr := New(c)
	b := tr.Compile(0)
	c.SetBreakpoint(2, device.BreakPermanent)

	executed, _, stopped := b.Run(c)
	if !stopped {
		t.Fatalf("expected breakpoint to stop block execution")
	}
	if executed != 1 {
		t.Fatalf("expected exactly 1 instruction to execute before the breakpoint, got %d", executed)
	}
}
