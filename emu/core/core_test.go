package core

import (
	"bytes"
	"testing"

	"github.com/dcsh4/sh4core/emu/master"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	c := New(make(chan master.Packet, 4))
	c.CreateRAMRegion(0, 0x1000, "ram")
	return c
}

func TestRunSliceExecutesInterpreterInstruction(t *testing.T) {
	c := newTestCore(t)
	c.Space.WriteWord(0, 0x7105) // ADD #5,R1
	c.CPU.Regs.PC = 0
	c.CPU.Regs.NewPC = 2

	c.RunSlice(1000)

	if c.CPU.Regs.R[1] != 5 {
		t.Fatalf("expected R1==5, got %d", c.CPU.Regs.R[1])
	}
}

func TestRunSliceExecutesTranslatedBlock(t *testing.T) {
	c := newTestCore(t)
	c.Space.WriteWord(0, 0x7105) // ADD #5,R1
	c.CPU.Regs.PC = 0
	c.CPU.Regs.NewPC = 2
	c.SetUseXlat(true)

	c.RunSlice(1000)

	if c.CPU.Regs.R[1] != 5 {
		t.Fatalf("expected R1==5, got %d", c.CPU.Regs.R[1])
	}
}

func TestRunSliceVerifiedAgreesWhenNothingDiverges(t *testing.T) {
	c := newTestCore(t)
	c.Space.WriteWord(0, 0x7105) // ADD #5,R1
	c.CPU.Regs.PC = 0
	c.CPU.Regs.NewPC = 2
	c.SetVerify(true)

	c.RunSlice(1000)

	if c.CPU.Regs.R[1] != 5 {
		t.Fatalf("expected R1==5, got %d", c.CPU.Regs.R[1])
	}
}

func TestSaveStateRoundTripsArchitecturalState(t *testing.T) {
	c := newTestCore(t)
	c.CPU.Regs.R[3] = 0xDEADBEEF
	c.INTC.SetPriority(0, 0) // touch a subsystem so its state is non-default
	c.TMU.Start(0)

	var buf bytes.Buffer
	if err := c.SaveState(&buf); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	c2 := newTestCore(t)
	if err := c2.LoadState(&buf); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if c2.CPU.Regs.R[3] != 0xDEADBEEF {
		t.Fatalf("expected R3 restored to 0xDEADBEEF, got %#x", c2.CPU.Regs.R[3])
	}
}

func TestBreakpointSetClearViaMasterPacket(t *testing.T) {
	c := newTestCore(t)
	c.processPacket(master.Packet{Msg: master.SetBreak, Addr: 0x1000})

	addr, kind := c.GetBreakpoint()
	if addr != 0x1000 {
		t.Fatalf("expected breakpoint addr 0x1000, got %#x", addr)
	}
	if kind == 0 {
		t.Fatalf("expected a non-None breakpoint kind")
	}

	c.processPacket(master.Packet{Msg: master.ClearBreak})
	if _, kind := c.GetBreakpoint(); kind != 0 {
		t.Fatalf("expected breakpoint cleared, got kind %v", kind)
	}
}

func TestStartStopShutsDownCleanly(t *testing.T) {
	c := newTestCore(t)
	go c.Start()
	c.Master <- master.Packet{Msg: master.Start}
	c.Stop()
}
