/*
sh4core translator: compiles basic blocks on demand and runs them in
place of the interpreter's fetch/decode loop (spec.md §4.2, §6
"Translator dispatch loop").

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
package xlat

import (
	"github.com/dcsh4/sh4core/emu/cpu"
	"github.com/dcsh4/sh4core/emu/device"
)

// maxBlockInstrs bounds a single compiled block so a pathological
// scan (e.g. a run of NOPs spanning many pages) cannot grow unbounded;
// spec.md doesn't name a limit but does require termination at a page
// boundary, which this cap never actually reaches in practice.
const maxBlockInstrs = 512

// pageSize is the granularity spec.md §4.2 names for block-splitting:
// "or until a fixed page boundary".
const pageSize = 0x1000

// illegalInstr is substituted for any opcode (*cpu.CPU).Handler does
// not resolve, so a compiled block faithfully reproduces the
// interpreter's EXC_ILLEGAL_INSTRUCTION behavior instead of silently
// treating an unimplemented opcode as a no-op.
func illegalInstr(c *cpu.CPU) cpu.ExcCode { return cpu.ExcIllegal }

// Translator wraps a CPU with a Cache and provides a RunSlice entry
// point that dispatches through compiled blocks, implementing spec.md
// §6's "set_use_xlat(true)" execution mode.
type Translator struct {
	CPU   *cpu.CPU
	Cache *Cache
}

// New builds a Translator over an already-constructed CPU.
func New(c *cpu.CPU) *Translator {
	return &Translator{CPU: c, Cache: NewCache()}
}

// Compile scans instruction words starting at startPC, building one
// basic block per spec.md §4.2: it stops after the instruction that
// ends the block (folding in exactly one more instruction when that
// terminator has a delay slot), when the next instruction would
// cross a page boundary, or before an opcode Handler does not resolve
// (such an opcode compiles as a one-instruction illegal block of its own).
func (t *Translator) Compile(startPC uint32) *Block {
	c := t.CPU
	instrs := make([]Instr, 0, 8)
	pc := startPC

	for len(instrs) < maxBlockInstrs {
		opc, ok := c.PeekWord(pc)
		if !ok {
			if len(instrs) == 0 {
				instrs = append(instrs, Instr{PC: pc, Fn: illegalInstr})
			}
			break
		}

		fn, ok := c.Handler(opc)
		if !ok {
			if len(instrs) > 0 {
				break
			}
			fn = illegalInstr
		}
		instrs = append(instrs, Instr{PC: pc, Fn: fn})

		isEnd, delayed := cpu.BlockEndKind(opc)
		next := pc + 2
		if isEnd {
			if delayed {
				if dopc, ok := c.PeekWord(next); ok {
					dfn, ok := c.Handler(dopc)
					if !ok {
						dfn = illegalInstr
					}
					instrs = append(instrs, Instr{PC: next, Fn: dfn})
				} else {
					instrs = append(instrs, Instr{PC: next, Fn: illegalInstr})
				}
			}
			break
		}
		if (next &^ (pageSize - 1)) != (startPC &^ (pageSize - 1)) {
			break
		}
		pc = next
	}

	last := instrs[len(instrs)-1]
	srcLen := (last.PC + 2) - startPC
	return t.Cache.Install(startPC, instrs, srcLen)
}

// RunSlice mirrors (*cpu.CPU).RunSlice (spec.md §5's "instruction
// execution for the slice completes before peripheral ticking for
// that same slice") but dispatches whole compiled blocks instead of
// stepping one instruction at a time.
func (t *Translator) RunSlice(nanos uint64) uint64 {
	c := t.CPU
	if c.Regs.State != device.StateRunning {
		c.TickPeripherals(nanos)
		return nanos
	}

	consumedCycles := uint64(0)
	for {
		budgetNs := float64(nanos) - float64(consumedCycles)*c.CPUPeriodNs
		if budgetNs < c.CPUPeriodNs {
			break
		}

		c.CheckInterrupt()

		b, hit := t.Cache.Lookup(c.Regs.PC)
		if c.PMM != nil {
			c.PMM.RecordXlatLookup(hit)
		}
		if !hit {
			b = t.Compile(c.Regs.PC)
		}

		executed, exc, stopped := b.Run(c)
		consumedCycles += uint64(executed)
		if stopped {
			break
		}
		if exc != cpu.ExcNone {
			continue
		}
		if c.Regs.State != device.StateRunning {
			break
		}
	}

	consumedNs := uint64(float64(consumedCycles) * c.CPUPeriodNs)
	c.Regs.SliceCycle += consumedNs
	c.TickPeripherals(nanos)
	return nanos
}

// InvalidateWrite implements spec.md §4.2's write-to-translated-region
// rule: any store whose physical address falls inside a page that has
// been compiled must flush that page before the store is observable,
// so stale translated code can never execute a write's old body.
// Callers (emu/core's memory-write path) invoke this for every store
// when a translator is active.
func (t *Translator) InvalidateWrite(addr uint32) {
	t.Cache.FlushPage(addr)
}
