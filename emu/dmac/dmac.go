/*
sh4core DMAC: four channels with memory<->device bursts triggered by
resource lines (spec.md §2 L2 "DMAC", §4.7), grounded on the teacher's
channel/sub-channel transfer bookkeeping in emu/sys_channel/channel.go.

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
	"log/slog"

	"github.com/dcsh4/sh4core/emu/intc"
)

const NumChannels = 4

// CHCR bits (spec.md §6 MMIO register map, §4.7).
const (
	CHCRDE = 1 << 0 // DMA enable.
	CHCRTE = 1 << 1 // Transfer end.
	CHCRIE = 1 << 2 // Interrupt enable.
)

// Resource identifies what triggers a channel (spec.md §4.7
// "trigger(resource)").
type Resource int

const (
	ResAuto Resource = iota // CHCR.RS == auto request, runs immediately on enable.
	ResSCIFRX
	ResSCIFTX
	ResTMU
	ResExternal0
	ResExternal1
)

// TransferSize enumerates the byte counts spec.md §4.7 allows.
type TransferSize int

const (
	Size1 TransferSize = 1
	Size2 TransferSize = 2
	Size4 TransferSize = 4
	Size32 TransferSize = 32
)

type AddrMode int

const (
	AddrFixed AddrMode = iota
	AddrInc
	AddrDec
)

// Channel is one of the four SAR/DAR/DMATCR/CHCR sets.
type Channel struct {
	SAR, DAR uint32
	DMATCR   uint32 // Transfer count, in TransferSize units.
	CHCR     uint32

	Resource  Resource
	SrcMode   AddrMode
	DstMode   AddrMode
	Size      TransferSize
	ToDevice  bool // Memory->device when true, device->memory when false.
}

var vectorByChan = [NumChannels]intc.Source{intc.SrcDMTE0, intc.SrcDMTE1, intc.SrcDMTE2, intc.SrcDMTE3}

// MemAccess is the narrow read/write capability DMAC needs from the
// address space; the CPU layer supplies the real implementation so
// DMAC stays decoupled from MMU/cache details.
type MemAccess interface {
	ReadByte(addr uint32) uint32
	WriteByte(addr uint32, v uint32)
}

// DeviceBuffer models a device-side FIFO DMAC bursts into or out of
// (spec.md §6 "DMAC.get_buffer/put_buffer").
type DeviceBuffer interface {
	GetBuffer(channel int, buf []byte) int // Device -> buf, returns bytes supplied.
	PutBuffer(channel int, buf []byte) int // buf -> device, returns bytes consumed.
}

type DMAC struct {
	Channels [NumChannels]Channel
	DMAOR    uint32 // Operation register (spec.md §6 MMIO register map); not consulted by Trigger/EnableChannel.
	mem      MemAccess
	dev      DeviceBuffer
	intc     *intc.INTC
}

func New(mem MemAccess, dev DeviceBuffer, ic *intc.INTC) *DMAC {
	return &DMAC{mem: mem, dev: dev, intc: ic}
}

func step(addr uint32, mode AddrMode, size TransferSize) uint32 {
	switch mode {
	case AddrInc:
		return addr + uint32(size)
	case AddrDec:
		return addr - uint32(size)
	default:
		return addr
	}
}

// Trigger implements spec.md §4.7 "trigger(resource)": runs one
// transfer on whichever enabled channel matches resource.
func (d *DMAC) Trigger(resource Resource) {
	for i := range d.Channels {
		ch := &d.Channels[i]
		if ch.CHCR&CHCRDE == 0 || ch.CHCR&CHCRTE != 0 {
			continue
		}
		if ch.Resource != resource {
			continue
		}
		d.runChannel(i)
	}
}

func (d *DMAC) runChannel(i int) {
	ch := &d.Channels[i]
	buf := make([]byte, ch.Size)

	if ch.ToDevice {
		for b := range buf {
			buf[b] = byte(d.mem.ReadByte(ch.SAR + uint32(b)))
		}
		if d.dev != nil {
			d.dev.PutBuffer(i, buf)
		}
		ch.SAR = step(ch.SAR, ch.SrcMode, ch.Size)
	} else {
		n := 0
		if d.dev != nil {
			n = d.dev.GetBuffer(i, buf)
		}
		for b := 0; b < n; b++ {
			d.mem.WriteByte(ch.DAR+uint32(b), uint32(buf[b]))
		}
		ch.DAR = step(ch.DAR, ch.DstMode, ch.Size)
	}

	if ch.DMATCR > 0 {
		ch.DMATCR--
	}
	if ch.DMATCR == 0 {
		ch.CHCR |= CHCRTE
		if ch.CHCR&CHCRIE != 0 && d.intc != nil {
			d.intc.Raise(vectorByChan[i])
		}
	}
}

// GetBuffer/PutBuffer implement spec.md §6's external hooks directly,
// for callers that want to drive a single-shot burst without going
// through Trigger.
func (d *DMAC) GetBuffer(channel int, buf []byte, bytes int) {
	ch := &d.Channels[channel]
	for b := 0; b < bytes && b < len(buf); b++ {
		buf[b] = byte(d.mem.ReadByte(ch.SAR + uint32(b)))
	}
}

func (d *DMAC) PutBuffer(channel int, buf []byte, bytes int) {
	ch := &d.Channels[channel]
	for b := 0; b < bytes && b < len(buf); b++ {
		d.mem.WriteByte(ch.DAR+uint32(b), uint32(buf[b]))
	}
}

// EnableChannel is invoked when CHCR.DE transitions 0->1 for an
// auto-request channel, which runs to completion immediately rather
// than waiting on an external resource line.
func (d *DMAC) EnableChannel(i int) {
	ch := &d.Channels[i]
	if ch.Resource != ResAuto {
		return
	}
	guard := 0
	for ch.CHCR&CHCRDE != 0 && ch.CHCR&CHCRTE == 0 {
		d.runChannel(i)
		guard++
		if guard > 1<<20 {
			slog.Warn("dmac: auto-request channel exceeded safety bound", "channel", i)
			break
		}
	}
}

type Snapshot struct {
	Channels [NumChannels]Channel
	DMAOR    uint32
}

func (d *DMAC) Save() Snapshot     { return Snapshot{Channels: d.Channels, DMAOR: d.DMAOR} }
func (d *DMAC) Restore(s Snapshot) { d.Channels = s.Channels; d.DMAOR = s.DMAOR }
