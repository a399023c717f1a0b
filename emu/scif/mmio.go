/*
sh4core SCIF MMIO register block: the SCFTDR2/SCFRDR2 data ports and
SCFSR2/SCFDR2/SCLSR2 status registers (spec.md §6 MMIO register map),
wired into emu/addrspace through emu/core.WireStandardPeripherals.

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
package scif

import "github.com/dcsh4/sh4core/emu/mmio"

func get16(page []byte, off uint32) uint16 { return uint16(page[off]) | uint16(page[off+1])<<8 }
func put16(page []byte, off uint32, v uint16) {
	page[off] = byte(v)
	page[off+1] = byte(v >> 8)
}

// Status bits this model backs in SCFSR2; SCSMR2/SCSCR2 have no
// modeled effect on RunSlice and just read back whatever was written.
const (
	fsr2DR   = 1 << 0
	fsr2RDF  = 1 << 1
	fsr2TDFE = 1 << 5
	fsr2TEND = 1 << 6
)

func (s *SCIF) MMIORegion(base uint32) *mmio.Region {
	r := &mmio.Region{
		Base: base,
		Name: "SCIF",
		Ports: []mmio.Port{
			{Offset: 0x00, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "SCSMR2"},
			{Offset: 0x04, Width: mmio.Width8, Flags: mmio.FlagR | mmio.FlagW, Name: "SCBRR2"},
			{Offset: 0x08, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "SCSCR2"},
			{Offset: 0x0C, Width: mmio.Width8, Flags: mmio.FlagW, Name: "SCFTDR2"},
			{Offset: 0x10, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "SCFSR2"},
			{Offset: 0x14, Width: mmio.Width8, Flags: mmio.FlagR, Name: "SCFRDR2"},
			{Offset: 0x18, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "SCFCR2"},
			{Offset: 0x1C, Width: mmio.Width16, Flags: mmio.FlagR, Name: "SCFDR2"},
			{Offset: 0x24, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "SCLSR2"},
		},
	}
	r.Read = func(rr *mmio.Region, offset uint32, width int) uint32 {
		switch offset {
		case 0x04:
			return uint32(s.BRR)
		case 0x10:
			var v uint32
			if s.DataReady() {
				v |= fsr2DR
			}
			if s.RXCount() > 0 {
				v |= fsr2RDF
			}
			if !s.TXFull() {
				v |= fsr2TDFE
			}
			if s.TXCount() == 0 {
				v |= fsr2TEND
			}
			return v
		case 0x14:
			b, _ := s.ReadRX()
			return uint32(b)
		case 0x18:
			return uint32(s.SCFCR2)
		case 0x1C:
			return uint32(s.RXCount()) | uint32(s.TXCount())<<8
		case 0x24:
			return uint32(s.SCLSR2)
		default:
			return uint32(get16(rr.Page[:], offset))
		}
	}
	r.Write = func(rr *mmio.Region, offset uint32, width int, value uint32) {
		switch offset {
		case 0x04:
			s.BRR = uint8(value)
		case 0x0C:
			s.WriteTX(byte(value))
		case 0x18:
			s.SCFCR2 = uint8(value)
		case 0x24:
			s.SCLSR2 = uint8(value)
		default:
			put16(rr.Page[:], offset, uint16(value))
		}
	}
	return r
}
