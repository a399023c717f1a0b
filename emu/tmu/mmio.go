/*
sh4core TMU MMIO register block: TOCR/TSTR and the three TCOR/TCNT/TCR
triples (spec.md §6 MMIO register map), wired into emu/addrspace
through emu/core.WireStandardPeripherals.

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
package tmu

import "github.com/dcsh4/sh4core/emu/mmio"

func (t *TMU) MMIORegion(base uint32) *mmio.Region {
	r := &mmio.Region{
		Base: base,
		Name: "TMU",
		Ports: []mmio.Port{
			{Offset: 0x00, Width: mmio.Width8, Flags: mmio.FlagR | mmio.FlagW, Name: "TOCR"},
			{Offset: 0x04, Width: mmio.Width8, Flags: mmio.FlagR | mmio.FlagW, Name: "TSTR"},
			{Offset: 0x08, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TCOR0"},
			{Offset: 0x0C, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TCNT0"},
			{Offset: 0x10, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "TCR0"},
			{Offset: 0x14, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TCOR1"},
			{Offset: 0x18, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TCNT1"},
			{Offset: 0x1C, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "TCR1"},
			{Offset: 0x20, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TCOR2"},
			{Offset: 0x24, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TCNT2"},
			{Offset: 0x28, Width: mmio.Width16, Flags: mmio.FlagR | mmio.FlagW, Name: "TCR2"},
		},
	}
	r.Read = func(rr *mmio.Region, offset uint32, width int) uint32 {
		switch offset {
		case 0x00:
			return uint32(t.TOCR)
		case 0x04:
			var v uint8
			for i, tm := range t.Timers {
				if tm.Started {
					v |= 1 << uint(i)
				}
			}
			return uint32(v)
		case 0x08:
			return t.Timers[0].TCOR
		case 0x0C:
			return t.Timers[0].TCNT
		case 0x10:
			return uint32(t.Timers[0].TCR)
		case 0x14:
			return t.Timers[1].TCOR
		case 0x18:
			return t.Timers[1].TCNT
		case 0x1C:
			return uint32(t.Timers[1].TCR)
		case 0x20:
			return t.Timers[2].TCOR
		case 0x24:
			return t.Timers[2].TCNT
		case 0x28:
			return uint32(t.Timers[2].TCR)
		}
		return mmio.Undefined
	}
	r.Write = func(rr *mmio.Region, offset uint32, width int, value uint32) {
		switch offset {
		case 0x00:
			t.TOCR = uint8(value)
		case 0x04:
			t.SetTSTR(uint8(value))
		case 0x08:
			t.Timers[0].TCOR = value
		case 0x0C:
			t.Timers[0].TCNT = value
		case 0x10:
			t.Timers[0].TCR = uint16(value)
		case 0x14:
			t.Timers[1].TCOR = value
		case 0x18:
			t.Timers[1].TCNT = value
		case 0x1C:
			t.Timers[1].TCR = uint16(value)
		case 0x20:
			t.Timers[2].TCOR = value
		case 0x24:
			t.Timers[2].TCNT = value
		case 0x28:
			t.Timers[2].TCR = uint16(value)
		}
	}
	return r
}
