package console

import (
	"strings"
	"testing"

	"github.com/dcsh4/sh4core/emu/core"
	"github.com/dcsh4/sh4core/emu/master"
)

func newTestCore(t *testing.T) *core.Core {
	t.Helper()
	c := core.New(make(chan master.Packet, 4))
	c.CreateRAMRegion(0, 0x1000, "ram")
	return c
}

func TestRegDumpListsAllRegisters(t *testing.T) {
	c := newTestCore(t)
	c.CPU.Regs.PC = 0x1000

	out, err := Execute("reg", c)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "PC=0x00001000") {
		t.Fatalf("expected PC in output, got %q", out)
	}
	if !strings.Contains(out, "R0 =") {
		t.Fatalf("expected R0 in output, got %q", out)
	}
}

func TestRegSetAndGetOneRegister(t *testing.T) {
	c := newTestCore(t)

	if _, err := Execute("reg r3 deadbeef", c); err != nil {
		t.Fatalf("Execute set: %v", err)
	}
	if c.CPU.Regs.R[3] != 0xDEADBEEF {
		t.Fatalf("expected R3=0xDEADBEEF, got %#x", c.CPU.Regs.R[3])
	}

	out, err := Execute("reg r3", c)
	if err != nil {
		t.Fatalf("Execute get: %v", err)
	}
	if !strings.Contains(out, "0xdeadbeef") {
		t.Fatalf("expected R3 value in output, got %q", out)
	}
}

func TestMemDepositAndExamine(t *testing.T) {
	c := newTestCore(t)

	if _, err := Execute("mem 100 12345678", c); err != nil {
		t.Fatalf("Execute deposit: %v", err)
	}
	out, err := Execute("mem 100", c)
	if err != nil {
		t.Fatalf("Execute examine: %v", err)
	}
	if !strings.Contains(out, "0x12345678") {
		t.Fatalf("expected deposited value in output, got %q", out)
	}
}

func TestDumpFormatsWordsInRows(t *testing.T) {
	c := newTestCore(t)
	if _, err := Execute("mem 0 cafebabe", c); err != nil {
		t.Fatalf("Execute deposit: %v", err)
	}

	out, err := Execute("dump 0 4", c)
	if err != nil {
		t.Fatalf("Execute dump: %v", err)
	}
	if !strings.Contains(out, "CAFEBABE") {
		t.Fatalf("expected deposited word in dump output, got %q", out)
	}
}

func TestBreakpointSetAndClear(t *testing.T) {
	c := newTestCore(t)
	go c.Start()
	defer c.Stop()

	if _, err := Execute("break 2000", c); err != nil {
		t.Fatalf("Execute break: %v", err)
	}
	if _, err := Execute("clear", c); err != nil {
		t.Fatalf("Execute clear: %v", err)
	}
}

func TestUnknownCommandReturnsError(t *testing.T) {
	c := newTestCore(t)
	if _, err := Execute("bogus", c); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestTooShortAbbreviationReturnsError(t *testing.T) {
	c := newTestCore(t)
	// "s" is a prefix of "stop" only, and is shorter than "stop"'s
	// minimum abbreviation length of 3, so no command matches.
	if _, err := Execute("s", c); err == nil {
		t.Fatal("expected an error: abbreviation shorter than any command's minimum")
	}
}
