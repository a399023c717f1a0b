/*
sh4core INTC MMIO register block: IPRA/IPRB/IPRC priority registers
(spec.md §6 MMIO register map), wired into emu/addrspace through
emu/core.WireStandardPeripherals.

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
package intc

import "github.com/dcsh4/sh4core/emu/mmio"

func get16(page []byte, off uint32) uint16 { return uint16(page[off]) | uint16(page[off+1])<<8 }
func put16(page []byte, off uint32, v uint16) {
	page[off] = byte(v)
	page[off+1] = byte(v >> 8)
}

// MMIORegion exposes IPRA/IPRB/IPRC. Each nibble programs the priority
// of one source or, for sources this core models as a single combined
// interrupt (SCIF, DMAC, RTC), all of the sources sharing that nibble.
// WDT and REF have no source modeled here, so their nibbles just hold
// whatever was last written.
func (q *INTC) MMIORegion(base uint32) *mmio.Region {
	r := &mmio.Region{
		Base: base,
		Name: "INTC",
		Ports: []mmio.Port{
			{Offset: 0x04, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "IPRA"},
			{Offset: 0x08, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "IPRB"},
			{Offset: 0x0C, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "IPRC"},
		},
	}
	r.Read = func(rr *mmio.Region, offset uint32, width int) uint32 {
		return uint32(get16(rr.Page[:], offset))
	}
	r.Write = func(rr *mmio.Region, offset uint32, width int, value uint32) {
		put16(rr.Page[:], offset, uint16(value))
		switch offset {
		case 0x04: // IPRA: TMU0 | TMU1 | TMU2 | RTC
			q.SetPriority(SrcTMUTUNI0, uint8(value>>12))
			q.SetPriority(SrcTMUTUNI1, uint8((value>>8)&0xF))
			q.SetPriority(SrcTMUTUNI2, uint8((value>>4)&0xF))
			rtc := uint8(value & 0xF)
			q.SetPriority(SrcRTCATI, rtc)
			q.SetPriority(SrcRTCPRI, rtc)
			q.SetPriority(SrcRTCCUI, rtc)
		case 0x0C: // IPRC: unused | SCIF | DMAC | unused
			scif := uint8((value >> 8) & 0xF)
			q.SetPriority(SrcSCIFERI, scif)
			q.SetPriority(SrcSCIFRXI, scif)
			q.SetPriority(SrcSCIFBRI, scif)
			q.SetPriority(SrcSCIFTXI, scif)
			dmac := uint8((value >> 4) & 0xF)
			q.SetPriority(SrcDMTE0, dmac)
			q.SetPriority(SrcDMTE1, dmac)
			q.SetPriority(SrcDMTE2, dmac)
			q.SetPriority(SrcDMTE3, dmac)
		}
	}
	return r
}
