/*
sh4core MMU/exception-event MMIO register block: PTEH/PTEL/TTB/TEA/
MMUCR/CCR, TRA/EXPEVT/INTEVT, PTEA and the store-queue QACRs (spec.md
§6 MMIO register map), wired into emu/addrspace through
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
package cpu

import "github.com/dcsh4/sh4core/emu/mmio"

// MMUControlRegion exposes the register file's MMU and exception-event
// fields at the SH7750 P4-region MMU control block's offsets, letting
// BIOS code stage opLDTLB's PTEH/PTEL (and PTEA) through ordinary stores
// instead of a register file the interpreter alone can reach.
func (c *CPU) MMUControlRegion(base uint32) *mmio.Region {
	r := &mmio.Region{
		Base: base,
		Name: "MMU",
		Ports: []mmio.Port{
			{Offset: 0x00, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "PTEH"},
			{Offset: 0x04, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "PTEL"},
			{Offset: 0x08, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TTB"},
			{Offset: 0x0C, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TEA"},
			{Offset: 0x10, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "MMUCR"},
			{Offset: 0x1C, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "CCR"},
			{Offset: 0x20, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "TRA"},
			{Offset: 0x24, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "EXPEVT"},
			{Offset: 0x28, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "INTEVT"},
			{Offset: 0x34, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "PTEA"},
			{Offset: 0x38, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "QACR0"},
			{Offset: 0x3C, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "QACR1"},
		},
	}
	r.Read = func(rr *mmio.Region, offset uint32, width int) uint32 {
		switch offset {
		case 0x00:
			return c.Regs.PTEH
		case 0x04:
			return c.Regs.PTEL
		case 0x08:
			return c.Regs.TTB
		case 0x0C:
			return c.Regs.TEA
		case 0x10:
			return c.Regs.MMUCR
		case 0x1C:
			return c.Regs.CCR
		case 0x20:
			return c.Regs.TRA
		case 0x24:
			return c.Regs.EXPEVT
		case 0x28:
			return c.Regs.INTEVT
		case 0x34:
			return c.Regs.PTEA
		case 0x38:
			if c.MMU != nil {
				return c.MMU.QACR[0]
			}
		case 0x3C:
			if c.MMU != nil {
				return c.MMU.QACR[1]
			}
		}
		return mmio.Undefined
	}
	r.Write = func(rr *mmio.Region, offset uint32, width int, value uint32) {
		switch offset {
		case 0x00:
			c.Regs.PTEH = value
		case 0x04:
			c.Regs.PTEL = value
		case 0x08:
			c.Regs.TTB = value
		case 0x0C:
			c.Regs.TEA = value
		case 0x10:
			c.Regs.MMUCR = value
			if c.MMU != nil {
				c.MMU.AT = value&1 != 0
			}
		case 0x1C:
			c.Regs.CCR = value
		case 0x20:
			c.Regs.TRA = value
		case 0x24:
			c.Regs.EXPEVT = value
		case 0x28:
			c.Regs.INTEVT = value
		case 0x34:
			c.Regs.PTEA = value
		case 0x38:
			if c.MMU != nil {
				c.MMU.QACR[0] = value
			}
		case 0x3C:
			if c.MMU != nil {
				c.MMU.QACR[1] = value
			}
		}
	}
	return r
}
