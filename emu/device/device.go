/*
sh4core Device interface for peripherals attached off the CPU core.

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
package device

// NoDev is the "no address given" sentinel configparser passes to a
// registered model/option/switch creator when a config line's first
// token isn't a hex address (spec.md doesn't need real device numbers,
// this just keeps configparser's grammar shared verbatim).
const NoDev uint32 = 0xFFFFFFFF

// BreakpointKind distinguishes a one-shot stop from a permanent one.
type BreakpointKind int

const (
	BreakNone      BreakpointKind = iota
	BreakOneshot                  // Cleared automatically once it fires.
	BreakPermanent                // Stays armed until explicitly cleared.
)

// CPUState mirrors spec.md §3's sh4_state enumeration.
type CPUState int

const (
	StateRunning CPUState = iota
	StateSleep
	StateDeepSleep
	StateStandby
)

// Values to retrieve or set CPU registers from the debug console,
// mirrored from the teacher's equivalent constant block.
const (
	Register = 1 + iota
	FPRegister
	CtlRegister
	PCRegister
	Symbolic
	Memory
)
