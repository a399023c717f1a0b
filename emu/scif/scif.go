/*
sh4core SCIF: 16-byte RX/TX serial FIFOs clocked by the peripheral
clock (spec.md §2 L2 "SCIF", §4.6).

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

import "github.com/dcsh4/sh4core/emu/intc"

const FIFODepth = 16

// SCFCR2/SCLSR2 bits (spec.md §4.6, §6).
const (
	FCR2Loop = 1 << 0 // Loopback: TX feeds RX instead of the device.
	LSR2ORER = 1 << 0 // Overrun error.
)

// Device is the external serial collaborator (spec.md §6 "Serial").
type Device interface {
	ReceiveData(b byte)
}

type ring struct {
	Data       [FIFODepth]byte
	Head, Tail int
	Count      int
}

func (r *ring) push(b byte) bool {
	if r.Count == FIFODepth {
		return false
	}
	r.Data[r.Tail] = b
	r.Tail = (r.Tail + 1) % FIFODepth
	r.Count++
	return true
}

func (r *ring) pop() (byte, bool) {
	if r.Count == 0 {
		return 0, false
	}
	b := r.Data[r.Head]
	r.Head = (r.Head + 1) % FIFODepth
	r.Count--
	return b, true
}

// inbound is a linked list of byte blocks consumed one byte per serial
// tick (spec.md §4.6 "inbound data is a linked list of byte blocks").
type inboundBlock struct {
	data []byte
	pos  int
	next *inboundBlock
}

type SCIF struct {
	RX, TX ring

	SCFCR2     uint8
	SCLSR2     uint8
	trigger    int // RX trigger level (bytes).
	BRR        uint8
	clockMult  int

	dev             Device
	inHead, inTail  *inboundBlock
	ticksSinceRecv  int // For the DR "no byte in the last two ticks" rule.

	periPeriodNs float64
	carryNs      float64

	intc *intc.INTC
}

func New(ic *intc.INTC, periPeriodNs float64) *SCIF {
	return &SCIF{periPeriodNs: periPeriodNs, clockMult: 1, trigger: 1, intc: ic}
}

// Attach/Detach implement spec.md §6 "attach_device(dev)/detach_device()".
func (s *SCIF) Attach(dev Device) { s.dev = dev }
func (s *SCIF) Detach()           { s.dev = nil }

// SetClockMult corresponds to SCSPTR2/SCBRR2-derived clock-multiplier
// configuration; kept as a simple integer multiplier per spec.md §4.6.
func (s *SCIF) SetClockMult(m int) { s.clockMult = m }

func (s *SCIF) tickPeriodNs() float64 {
	return s.periPeriodNs * 32 * float64(s.clockMult) * float64(uint32(s.BRR)+1)
}

// QueueInbound appends a block of bytes the attached device has
// delivered, consumed one byte per tick (spec.md §4.6).
func (s *SCIF) QueueInbound(data []byte) {
	blk := &inboundBlock{data: data}
	if s.inTail == nil {
		s.inHead, s.inTail = blk, blk
		return
	}
	s.inTail.next = blk
	s.inTail = blk
}

func (s *SCIF) nextInbound() (byte, bool) {
	for s.inHead != nil {
		if s.inHead.pos < len(s.inHead.data) {
			b := s.inHead.data[s.inHead.pos]
			s.inHead.pos++
			return b, true
		}
		s.inHead = s.inHead.next
		if s.inHead == nil {
			s.inTail = nil
		}
	}
	return 0, false
}

// RunSlice advances the SCIF by nanos of peripheral time: one tick
// dequeues a TX byte (loopback or to the device) and enqueues one
// inbound byte if available (spec.md §4.6).
func (s *SCIF) RunSlice(nanos uint64) {
	period := s.tickPeriodNs()
	if period <= 0 {
		return
	}
	budget := float64(nanos) + s.carryNs
	ticks := int(budget / period)
	s.carryNs = budget - float64(ticks)*period

	for i := 0; i < ticks; i++ {
		if b, ok := s.TX.pop(); ok {
			if s.SCFCR2&FCR2Loop != 0 {
				s.deliverRX(b)
			} else if s.dev != nil {
				s.dev.ReceiveData(b)
			}
		}

		if b, ok := s.nextInbound(); ok {
			s.deliverRX(b)
			s.ticksSinceRecv = 0
		} else if s.ticksSinceRecv < 3 {
			s.ticksSinceRecv++
		}
	}
}

func (s *SCIF) deliverRX(b byte) {
	if !s.RX.push(b) {
		s.SCLSR2 |= LSR2ORER
		return
	}
	s.ticksSinceRecv = 0
}

// DataReady implements spec.md §4.6's DR flag: set when RX is
// non-empty, below the trigger level, and no byte arrived in the last
// two ticks.
func (s *SCIF) DataReady() bool {
	return s.RX.Count > 0 && s.RX.Count < s.trigger && s.ticksSinceRecv >= 2
}

func (s *SCIF) SetTrigger(level int) { s.trigger = level }

// ReadRX/WriteTX are the MMIO-facing byte accessors.
func (s *SCIF) ReadRX() (byte, bool) { return s.RX.pop() }
func (s *SCIF) WriteTX(b byte) bool  { return s.TX.push(b) }
func (s *SCIF) RXCount() int         { return s.RX.Count }
func (s *SCIF) TXCount() int         { return s.TX.Count }
func (s *SCIF) TXFull() bool         { return s.TX.Count == FIFODepth }

type Snapshot struct {
	RX, TX             ring
	SCFCR2, SCLSR2     uint8
	Trigger            int
	BRR                uint8
	ClockMult          int
	TicksSinceRecv     int
}

func (s *SCIF) Save() Snapshot {
	return Snapshot{RX: s.RX, TX: s.TX, SCFCR2: s.SCFCR2, SCLSR2: s.SCLSR2,
		Trigger: s.trigger, BRR: s.BRR, ClockMult: s.clockMult, TicksSinceRecv: s.ticksSinceRecv}
}

func (s *SCIF) Restore(snap Snapshot) {
	s.RX, s.TX = snap.RX, snap.TX
	s.SCFCR2, s.SCLSR2 = snap.SCFCR2, snap.SCLSR2
	s.trigger, s.BRR, s.clockMult = snap.Trigger, snap.BRR, snap.ClockMult
	s.ticksSinceRecv = snap.TicksSinceRecv
}
