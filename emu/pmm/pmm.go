/*
sh4core PMM: elapsed-time performance counter, plus (expansion, see
SPEC_FULL.md §4) the IC-fastpath and translation-LUT hit/miss event
counters the real SH7750 performance-counter block supports.

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
package pmm

type PMM struct {
	ElapsedNs uint64

	ICHits, ICMisses     uint64
	XlatHits, XlatMisses uint64
}

func New() *PMM { return &PMM{} }

func (p *PMM) Advance(nanos uint64) { p.ElapsedNs += nanos }

func (p *PMM) RecordICFastpath(hit bool) {
	if hit {
		p.ICHits++
	} else {
		p.ICMisses++
	}
}

func (p *PMM) RecordXlatLookup(hit bool) {
	if hit {
		p.XlatHits++
	} else {
		p.XlatMisses++
	}
}

func (p *PMM) Reset() { *p = PMM{} }

type Snapshot struct {
	ElapsedNs            uint64
	ICHits, ICMisses     uint64
	XlatHits, XlatMisses uint64
}

func (p *PMM) Save() Snapshot {
	return Snapshot{p.ElapsedNs, p.ICHits, p.ICMisses, p.XlatHits, p.XlatMisses}
}

func (p *PMM) Restore(s Snapshot) {
	p.ElapsedNs, p.ICHits, p.ICMisses, p.XlatHits, p.XlatMisses =
		s.ElapsedNs, s.ICHits, s.ICMisses, s.XlatHits, s.XlatMisses
}
