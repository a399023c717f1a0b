/*
sh4core translation cache generations: the three-arena bump allocator
spec.md §3/§4.2 describes ("Two-generation: a new arena ... a temp
arena ... and an old arena"), realised here as a fixed-capacity ring of
block slots standing in for a byte-addressed bump pointer -- spec.md
never mandates counting in bytes, only that allocation wraps and that a
live incumbent is promoted before being overwritten.

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

// Default arena capacities, in block slots. spec.md names byte budgets
// ("NEW default ~64 KB") for the reference's raw-bytes bump allocator;
// this port allocates translated bodies as Go closures rather than
// emitted bytes (see Block), so capacity is expressed in the number of
// resident blocks instead, scaled to preserve the same roughly
// 1:4:16 NEW:TEMP:OLD ratio the reference's arena sizes imply.
const (
	DefaultNewCapacity  = 256
	DefaultTempCapacity = 1024
	DefaultOldCapacity  = 4096
)

// ActiveState mirrors spec.md §3's block.active field.
type ActiveState int

const (
	Deleted ActiveState = iota
	Normal
	Accessed
)

// generation is one of NEW/TEMP/OLD: a circular bump allocator over a
// fixed number of block slots (spec.md §4.2 "Allocation is a bump
// pointer with a sentinel block of size 0 marking the end").
type generation struct {
	name     string
	slots    []*Block
	next     int
	onEvict  func(b *Block) // promotion hook; nil means plain overwrite (OLD).
}

func newGeneration(name string, capacity int, onEvict func(*Block)) *generation {
	return &generation{name: name, slots: make([]*Block, capacity), onEvict: onEvict}
}

// alloc installs b into the next bump-pointer slot, promoting (or
// evicting) whatever block currently occupies it -- spec.md §4.2 "When
// allocating would collide with an active block: In NEW: the incumbent
// is promoted to TEMP. In TEMP: ... promoted to OLD. In OLD: blocks are
// simply overwritten (eviction)."
func (g *generation) alloc(b *Block) {
	idx := g.next
	g.next = (g.next + 1) % len(g.slots)

	if incumbent := g.slots[idx]; incumbent != nil && incumbent.Active != Deleted {
		if g.onEvict != nil {
			g.onEvict(incumbent)
		} else {
			incumbent.Active = Deleted
		}
	}
	g.slots[idx] = b
	b.gen = g
}

// remove deactivates b without promoting it (used when a block is
// explicitly deleted, e.g. by flush_page).
func (g *generation) remove(b *Block) {
	for i, s := range g.slots {
		if s == b {
			g.slots[i] = nil
			return
		}
	}
}

func (g *generation) flush() {
	for i := range g.slots {
		if g.slots[i] != nil {
			g.slots[i].Active = Deleted
			g.slots[i] = nil
		}
	}
	g.next = 0
}
