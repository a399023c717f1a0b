/*
sh4core translation LUT: the two-level table mapping SH4 code addresses
to compiled block entry points (spec.md §3 "Translation LUT", §4.2 "LUT
invariants").

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

const (
	// L1Bits/L1Size index the top level by addr[28:13] (spec.md §3
	// "Level 1: 2^16 pages indexed by addr[28:13]").
	L1Bits = 16
	L1Size = 1 << L1Bits

	// PageBits/PageEntries index each lazily-allocated L1 page by
	// addr[12:1] (spec.md §3 "XLAT_LUT_PAGE_ENTRIES").
	PageBits    = 12
	PageEntries = 1 << PageBits
)

// slotState distinguishes the three LUT entry kinds spec.md §3 names:
// "null (no code), sentinel 'used' ..., or a pointer to translated
// code (entry point)".
type slotState uint8

const (
	slotNone slotState = iota
	slotUsed
	slotEntry
)

type lutSlot struct {
	state slotState
	block *Block
}

type lutPage [PageEntries]lutSlot

// LUT is the two-level address-to-block table (spec.md §3 "Translation
// LUT"). L1 pages are allocated lazily on first write, matching the
// reference's "each is lazily allocated" note.
type LUT struct {
	l1 [L1Size]*lutPage
}

func newLUT() *LUT { return &LUT{} }

func l1Index(addr uint32) uint32 { return (addr >> 13) & (L1Size - 1) }
func l2Index(addr uint32) uint32 { return (addr >> 1) & (PageEntries - 1) }

func (l *LUT) page(addr uint32, alloc bool) *lutPage {
	i := l1Index(addr)
	p := l.l1[i]
	if p == nil && alloc {
		p = &lutPage{}
		l.l1[i] = p
	}
	return p
}

// Lookup returns the compiled entry-point block for addr, if one is
// installed there (spec.md §3 "a pointer to translated code (entry
// point)" -- slotUsed addresses, inside a block but not its start,
// report a miss here exactly like slotNone).
func (l *LUT) Lookup(addr uint32) (*Block, bool) {
	p := l.page(addr, false)
	if p == nil {
		return nil, false
	}
	s := p[l2Index(addr)]
	if s.state != slotEntry {
		return nil, false
	}
	return s.block, true
}

// markRange implements spec.md §4.2 "On successful commit of a block
// of source length srcsize, every LUT entry covering [start,
// start+srcsize) that was previously null is set to the 'used'
// sentinel; the entry at start itself holds the entry-point pointer."
func (l *LUT) markRange(start uint32, srcsize uint32, b *Block) {
	end := start + srcsize
	for a := start; a < end; a += 2 {
		p := l.page(a, true)
		s := &p[l2Index(a)]
		if a == start {
			s.state, s.block = slotEntry, b
			continue
		}
		if s.state == slotNone {
			s.state = slotUsed
		}
	}
}

// clearEntry implements spec.md §4.2 "Deleting a block clears its
// entry pointer only; used-sentinels are cleared lazily on flush or
// page flush."
func (l *LUT) clearEntry(addr uint32) {
	p := l.page(addr, false)
	if p == nil {
		return
	}
	s := &p[l2Index(addr)]
	if s.state == slotEntry {
		s.state, s.block = slotNone, nil
	}
}

// flushPage implements spec.md §4.2 "flush_page(addr) ... clears all
// LUT entries for that page", at the LUT's own L1 page granularity.
func (l *LUT) flushPage(addr uint32) {
	l.l1[l1Index(addr)] = nil
}

// flushAll clears every L1 page, used by Cache.Flush (spec.md §8
// "Translation cache idempotence").
func (l *LUT) flushAll() {
	for i := range l.l1 {
		l.l1[i] = nil
	}
}
