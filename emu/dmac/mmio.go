/*
sh4core DMAC MMIO register block: four SAR/DAR/DMATCR/CHCR channel sets
plus DMAOR (spec.md §6 MMIO register map), wired into emu/addrspace
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
package dmac

import (
	"fmt"

	"github.com/dcsh4/sh4core/emu/mmio"
)

// channelStride is the byte distance between consecutive channels'
// register sets (spec.md §6 MMIO register map).
const channelStride = 0x10

func (d *DMAC) MMIORegion(base uint32) *mmio.Region {
	ports := make([]mmio.Port, 0, NumChannels*4+1)
	for i := 0; i < NumChannels; i++ {
		off := uint32(i * channelStride)
		ports = append(ports,
			mmio.Port{Offset: off + 0x00, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: fmt.Sprintf("SAR%d", i)},
			mmio.Port{Offset: off + 0x04, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: fmt.Sprintf("DAR%d", i)},
			mmio.Port{Offset: off + 0x08, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: fmt.Sprintf("DMATCR%d", i)},
			mmio.Port{Offset: off + 0x0C, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: fmt.Sprintf("CHCR%d", i)},
		)
	}
	ports = append(ports, mmio.Port{Offset: 0x40, Width: mmio.Width32, Flags: mmio.FlagR | mmio.FlagW, Name: "DMAOR"})

	r := &mmio.Region{Base: base, Name: "DMAC", Ports: ports}
	r.Read = func(rr *mmio.Region, offset uint32, width int) uint32 {
		if offset == 0x40 {
			return d.DMAOR
		}
		i := int(offset / channelStride)
		if i >= NumChannels {
			return mmio.Undefined
		}
		ch := &d.Channels[i]
		switch offset % channelStride {
		case 0x00:
			return ch.SAR
		case 0x04:
			return ch.DAR
		case 0x08:
			return ch.DMATCR
		case 0x0C:
			return ch.CHCR
		}
		return mmio.Undefined
	}
	r.Write = func(rr *mmio.Region, offset uint32, width int, value uint32) {
		if offset == 0x40 {
			d.DMAOR = value
			return
		}
		i := int(offset / channelStride)
		if i >= NumChannels {
			return
		}
		ch := &d.Channels[i]
		switch offset % channelStride {
		case 0x00:
			ch.SAR = value
		case 0x04:
			ch.DAR = value
		case 0x08:
			ch.DMATCR = value
		case 0x0C:
			wasEnabled := ch.CHCR&CHCRDE != 0
			ch.CHCR = value
			if !wasEnabled && ch.CHCR&CHCRDE != 0 {
				d.EnableChannel(i)
			}
		}
	}
	return r
}
