/*
sh4core PMM MMIO register block: read-only elapsed-time and cache/xlat
hit counters (spec.md §6 MMIO register map, an expansion beyond the
real SH7750 performance-counter block -- see DESIGN.md), wired into
emu/addrspace through emu/core.WireStandardPeripherals.

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

import "github.com/dcsh4/sh4core/emu/mmio"

func (p *PMM) MMIORegion(base uint32) *mmio.Region {
	r := &mmio.Region{
		Base: base,
		Name: "PMM",
		Ports: []mmio.Port{
			{Offset: 0x00, Width: mmio.Width32, Flags: mmio.FlagR, Name: "ELAPSEDL"},
			{Offset: 0x04, Width: mmio.Width32, Flags: mmio.FlagR, Name: "ELAPSEDH"},
			{Offset: 0x08, Width: mmio.Width32, Flags: mmio.FlagR, Name: "ICHITS"},
			{Offset: 0x0C, Width: mmio.Width32, Flags: mmio.FlagR, Name: "ICMISSES"},
			{Offset: 0x10, Width: mmio.Width32, Flags: mmio.FlagR, Name: "XLATHITS"},
			{Offset: 0x14, Width: mmio.Width32, Flags: mmio.FlagR, Name: "XLATMISSES"},
		},
	}
	r.Read = func(rr *mmio.Region, offset uint32, width int) uint32 {
		switch offset {
		case 0x00:
			return uint32(p.ElapsedNs)
		case 0x04:
			return uint32(p.ElapsedNs >> 32)
		case 0x08:
			return uint32(p.ICHits)
		case 0x0C:
			return uint32(p.ICMisses)
		case 0x10:
			return uint32(p.XlatHits)
		case 0x14:
			return uint32(p.XlatMisses)
		}
		return mmio.Undefined
	}
	return r
}
