/*
sh4core Clock: tracks the CPU/bus/peripheral frequencies and derived
periods (spec.md §2 L0 "Clock").

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
package clock

// Real Dreamcast SH7750 timings: 200MHz CPU, 100MHz bus, 50MHz
// peripheral clock (CPU/2/4).
const (
	DefaultCPUHz  = 200_000_000
	DefaultBusHz  = 100_000_000
	DefaultPeriHz = 50_000_000
)

// Clock holds the three SH4 clock domains as nanosecond periods so the
// rest of the core can work entirely in elapsed-nanosecond slices
// (spec.md §6 "run_slice(nanos)").
type Clock struct {
	cpuHz, busHz, periHz uint64
	cpuPeriodNs           float64
	busPeriodNs           float64
	periPeriodNs          float64
}

// New builds a Clock from the three domain frequencies in Hz.
func New(cpuHz, busHz, periHz uint64) *Clock {
	c := &Clock{cpuHz: cpuHz, busHz: busHz, periHz: periHz}
	c.recompute()
	return c
}

// NewDefault builds a Clock at the stock Dreamcast SH7750 frequencies.
func NewDefault() *Clock {
	return New(DefaultCPUHz, DefaultBusHz, DefaultPeriHz)
}

func (c *Clock) recompute() {
	c.cpuPeriodNs = 1e9 / float64(c.cpuHz)
	c.busPeriodNs = 1e9 / float64(c.busHz)
	c.periPeriodNs = 1e9 / float64(c.periHz)
}

// SetCPUHz reprograms the CPU clock (FRQCR writes do this on real
// hardware; the core only needs the derived period).
func (c *Clock) SetCPUHz(hz uint64) {
	c.cpuHz = hz
	c.recompute()
}

// CPUPeriodNs is the average per-instruction dispatch cost used by the
// interpreter's one-average-dispatch model (spec.md §1 non-goals).
func (c *Clock) CPUPeriodNs() float64 { return c.cpuPeriodNs }

// BusPeriodNs is the host-bus cycle period, used by DMAC burst pacing.
func (c *Clock) BusPeriodNs() float64 { return c.busPeriodNs }

// PeriPeriodNs is the peripheral-clock period that paces TMU and SCIF.
func (c *Clock) PeriPeriodNs() float64 { return c.periPeriodNs }

// CPUHz, BusHz, PeriHz expose the raw configured frequencies, e.g. for
// save-state round-tripping.
func (c *Clock) CPUHz() uint64  { return c.cpuHz }
func (c *Clock) BusHz() uint64  { return c.busHz }
func (c *Clock) PeriHz() uint64 { return c.periHz }
