/*
sh4core TMU: three down-counters ticked by the peripheral clock
(spec.md §2 L2 "TMU", §4.5).

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

import "github.com/dcsh4/sh4core/emu/intc"

const NumTimers = 3

// TCR control bits (spec.md §4.5, §6 MMIO register map).
const (
	TCRUNF  = 1 << 8 // Underflow flag.
	TCRUNIE = 1 << 5 // Underflow interrupt enable.
)

var vectorBySrc = [NumTimers]intc.Source{intc.SrcTMUTUNI0, intc.SrcTMUTUNI1, intc.SrcTMUTUNI2}

type Timer struct {
	TCNT, TCOR uint32
	TCR        uint16
	Carry      uint64 // Fractional-period carry, preserved across save/restore.
	Started    bool
}

type TMU struct {
	Timers       [NumTimers]Timer
	TOCR         uint8
	periPeriodNs float64
	rtcPeriodNs  float64 // Open question per spec.md §9: RTC output period, emulator-driven.
	intc         *intc.INTC
}

func New(ic *intc.INTC, periPeriodNs float64) *TMU {
	t := &TMU{periPeriodNs: periPeriodNs, rtcPeriodNs: periPeriodNs * 512, intc: ic}
	return t
}

// prescaleIndex returns the TCR[2:0] field.
func prescaleIndex(tcr uint16) int { return int(tcr & 0x7) }

// periodNs implements spec.md §4.5's "tick period is peripheral_period
// << (2*prescaler_index) for prescaler in {0..4}, rtc_output_period for
// 6, or the peripheral period for 7".
func (t *TMU) periodNs(tcr uint16) float64 {
	idx := prescaleIndex(tcr)
	switch {
	case idx <= 4:
		return t.periPeriodNs * float64(uint64(1)<<(2*uint(idx)))
	case idx == 6:
		return t.rtcPeriodNs
	default: // 7
		return t.periPeriodNs
	}
}

// Start/Stop mirror the TSTR bits.
func (t *TMU) Start(i int) { t.Timers[i].Started = true }
func (t *TMU) Stop(i int)  { t.Timers[i].Started = false }
func (t *TMU) SetTSTR(mask uint8) {
	for i := range t.Timers {
		t.Timers[i].Started = mask&(1<<i) != 0
	}
}

// RunSlice advances every enabled timer by nanos of peripheral time,
// implementing spec.md §4.5's reload-and-raise contract. It must be
// called after instruction dispatch for the slice (spec.md §5
// "Ordering guarantees").
func (t *TMU) RunSlice(nanos uint64) {
	for i := range t.Timers {
		tm := &t.Timers[i]
		if !tm.Started {
			continue
		}
		period := t.periodNs(tm.TCR)
		delta := float64(nanos) + float64(tm.Carry)
		ticks := uint64(delta / period)
		tm.Carry = uint64(delta - float64(ticks)*period)
		for ticks > 0 {
			if uint64(tm.TCNT) > ticks {
				tm.TCNT -= uint32(ticks)
				ticks = 0
			} else {
				ticks -= uint64(tm.TCNT)
				tm.TCNT = 0
				tm.TCR |= TCRUNF
				tm.TCNT = tm.TCOR
				if tm.TCR&TCRUNIE != 0 && t.intc != nil {
					t.intc.Raise(vectorBySrc[i])
				}
				if tm.TCOR == 0 {
					break // Avoid an infinite loop on a zero-reload timer.
				}
			}
		}
	}
}

// Snapshot/Restore support save_state/load_state.
type Snapshot struct {
	Timers [NumTimers]Timer
	TOCR   uint8
}

func (t *TMU) Save() Snapshot    { return Snapshot{Timers: t.Timers, TOCR: t.TOCR} }
func (t *TMU) Restore(s Snapshot) { t.Timers = s.Timers; t.TOCR = s.TOCR }
