/*
sh4core translation cache: compiled basic blocks (spec.md §3 "block",
§4.2 "translation unit") sitting behind the LUT and the three
generations.

A "compiled block" here is a slice of pre-resolved Go closures, one per
source instruction, each produced by (*cpu.CPU).Handler at compile
time. This stands in for the reference's emitted host machine code:
Go gives no portable way to emit and jump into machine code without
cgo or per-arch assembly, so the translator's "fast path" is skipping
fetch/decode on every subsequent execution rather than skipping actual
instruction dispatch. The block's structure (start PC, source length,
active state, generation membership) still matches spec.md's block
fields exactly, and the LUT/generation bookkeeping is byte-for-byte the
same algorithm the reference uses.

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

import "github.com/dcsh4/sh4core/emu/cpu"

// Instr is one pre-resolved instruction inside a compiled Block.
type Instr struct {
	PC uint32
	Fn func(c *cpu.CPU) cpu.ExcCode
}

// Block is a compiled run of instructions starting at StartPC (spec.md
// §3's block: active/start_pc/src_len/generation membership).
type Block struct {
	Active  ActiveState
	StartPC uint32
	SrcLen  uint32
	Instrs  []Instr

	gen *generation
}

// Run executes every instruction in the block against c, applying the
// same PC/delay-slot commit sequence the interpreter's step() applies
// per instruction (see (*cpu.CPU).CommitStep). It returns the number
// of instructions executed and, if one raised an exception, the
// exception code -- the caller is expected to have already observed
// the exception vectored into c by the time Run returns, since
// RaiseException is called internally. stopped reports whether
// execution halted early because an armed breakpoint fired.
func (b *Block) Run(c *cpu.CPU) (executed int, exc cpu.ExcCode, stopped bool) {
	for i := range b.Instrs {
		instr := &b.Instrs[i]
		if c.CheckBreakpoint(instr.PC) {
			return i, cpu.ExcNone, true
		}
		wasDelay := c.Regs.InDelaySlot
		curPC := c.Regs.PC
		nextPC := c.Regs.NewPC
		e := instr.Fn(c)
		if e != cpu.ExcNone {
			c.RaiseException(e, curPC)
			return i + 1, e, false
		}
		c.CommitStep(wasDelay, curPC, nextPC)
	}
	return len(b.Instrs), cpu.ExcNone, false
}

// Cache owns the three generations and the LUT that together implement
// spec.md §4.2's translation cache.
type Cache struct {
	newGen, tempGen, oldGen *generation
	lut                     *LUT
}

// NewCache builds a Cache sized per spec.md's default arena ratios.
func NewCache() *Cache {
	return NewCacheSized(DefaultNewCapacity, DefaultTempCapacity, DefaultOldCapacity)
}

// NewCacheSized builds a Cache with explicit per-generation capacities,
// for tests that need to provoke promotion/eviction on a small budget.
func NewCacheSized(newCap, tempCap, oldCap int) *Cache {
	c := &Cache{lut: newLUT()}
	c.oldGen = newGeneration("old", oldCap, nil)
	c.tempGen = newGeneration("temp", tempCap, func(b *Block) { c.oldGen.alloc(b) })
	c.newGen = newGeneration("new", newCap, func(b *Block) { c.tempGen.alloc(b) })
	return c
}

// Lookup resolves addr to an installed block, marking it Accessed on
// hit (spec.md §3's access-tracking bit, read by tests but otherwise
// not acted on by this port -- the reference uses it to bias eviction
// order within OLD; this port's OLD generation is a plain ring and
// does not consult it, a simplification recorded in DESIGN.md).
func (c *Cache) Lookup(addr uint32) (*Block, bool) {
	b, ok := c.lut.Lookup(addr)
	if ok && b.Active == Normal {
		b.Active = Accessed
	}
	return b, ok
}

// Install places a freshly compiled block into the NEW arena and wires
// it into the LUT (spec.md §4.2 "On successful commit of a block").
func (c *Cache) Install(startPC uint32, instrs []Instr, srcLen uint32) *Block {
	b := &Block{Active: Normal, StartPC: startPC, SrcLen: srcLen, Instrs: instrs}
	c.newGen.alloc(b)
	c.lut.markRange(startPC, srcLen, b)
	return b
}

// Delete implements spec.md §4.2 "Deleting a block clears its entry
// pointer only" -- the slot itself is reclaimed lazily by the owning
// generation's next bump-pointer wraparound.
func (c *Cache) Delete(b *Block) {
	b.Active = Deleted
	c.lut.clearEntry(b.StartPC)
}

// FlushPage implements spec.md §4.2 "flush_page(addr): used when a
// write lands inside a translated region; deactivates every block
// whose source range overlaps that page and clears all LUT entries
// for that page."
func (c *Cache) FlushPage(addr uint32) {
	if p := c.lut.page(addr, false); p != nil {
		seen := make(map[*Block]bool)
		for i := range p {
			s := &p[i]
			if s.state == slotEntry && s.block != nil && !seen[s.block] {
				seen[s.block] = true
				s.block.Active = Deleted
				if s.block.gen != nil {
					s.block.gen.remove(s.block)
				}
			}
		}
	}
	c.lut.flushPage(addr)
}

// Flush implements spec.md §8's "translation cache idempotence"
// property: discard every compiled block and LUT entry. A subsequent
// lookup at any address misses and recompiles from the authoritative
// address space, so architectural behavior after a flush is identical
// to running without a translator at all.
func (c *Cache) Flush() {
	c.newGen.flush()
	c.tempGen.flush()
	c.oldGen.flush()
	c.lut.flushAll()
}
