/*
sh4core shadow harness: runs a compiled block and the interpreter in
lockstep and compares the results (spec.md §4.8 "Shadow/verification
harness", §8 "Translator equivalence").

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
package shadow

import (
	"fmt"
	"strings"

	"github.com/dcsh4/sh4core/emu/cpu"
	"github.com/dcsh4/sh4core/emu/xlat"
)

// Harness wires a CPU and its translator together for lockstep
// verification. It owns no state of its own beyond the CPU's original
// address space, which it temporarily swaps out for the log/check
// wrappers during RunBlock.
type Harness struct {
	CPU  *cpu.CPU
	Xlat *xlat.Translator
	real cpu.Memory
}

// New builds a Harness over an already-constructed CPU/Translator
// pair. c.Space is captured as the "real" address space that the log
// and check wrappers both ultimately read and write through.
func New(c *cpu.CPU, t *xlat.Translator) *Harness {
	return &Harness{CPU: c, Xlat: t, real: c.Space}
}

// Report summarizes one shadowed block execution, populated whether or
// not a divergence was found.
type Report struct {
	StartPC         uint32
	Executed        int
	TranslatorRegs  cpu.Regs
	InterpreterRegs cpu.Regs
	OpMismatch      *Mismatch
	RegDiff         string
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shadow divergence at pc=%#x (%d instructions)\n", r.StartPC, r.Executed)
	if r.OpMismatch != nil {
		fmt.Fprintf(&b, "  memory op: %s\n", r.OpMismatch)
	}
	if r.RegDiff != "" {
		fmt.Fprintf(&b, "  registers:\n%s", r.RegDiff)
	}
	return b.String()
}

// RunBlock implements spec.md §4.8's lockstep sequence:
//  1. snapshot sh4r, compile the block if uncached, switch to the log
//     address space and run the translated block, recording every
//     data access;
//  2. restore sh4r, switch to the check address space, single-step the
//     interpreter the same number of instructions;
//  3. compare every architectural register and confirm every logged
//     operation was replayed with an identical (kind, size, addr,
//     value).
//
// A non-nil error means the two execution modes diverged; the caller
// is expected to treat this as the fatal abort spec.md §7 describes
// ("Shadow divergence is fatal"), logging the returned Report before
// halting the core.
func (h *Harness) RunBlock(startPC uint32) (*Report, error) {
	c := h.CPU
	saved := c.Regs
	var savedSQ, translatorSQ, interpreterSQ [2][8]uint32
	if c.MMU != nil {
		savedSQ = c.MMU.StoreQueue
	}

	b, hit := h.Xlat.Cache.Lookup(startPC)
	if !hit {
		b = h.Xlat.Compile(startPC)
	}

	logSp := newLogSpace(h.real)
	c.Space = logSp
	executed, _, _ := b.Run(c)
	translatorRegs := c.Regs
	ops := logSp.ops

	c.Regs = saved
	if c.MMU != nil {
		translatorSQ = c.MMU.StoreQueue
		c.MMU.StoreQueue = savedSQ
	}
	checkSp := newCheckSpace(h.real, ops)
	c.Space = checkSp

	for ran := 0; ran < executed; ran++ {
		if _, cont := c.Step(); !cont {
			break
		}
	}

	c.Space = h.real
	if c.MMU != nil {
		interpreterSQ = c.MMU.StoreQueue
	}

	rep := &Report{
		StartPC:         startPC,
		Executed:        executed,
		TranslatorRegs:  translatorRegs,
		InterpreterRegs: c.Regs,
	}

	if checkSp.mismatch != nil {
		rep.OpMismatch = checkSp.mismatch
	} else if checkSp.idx != len(ops) {
		rep.OpMismatch = &Mismatch{
			Index:  checkSp.idx,
			Reason: fmt.Sprintf("translator logged %d operations but the interpreter replay only performed %d", len(ops), checkSp.idx),
		}
	}

	rep.RegDiff = diffRegs(translatorRegs, c.Regs, translatorSQ, interpreterSQ)

	if rep.OpMismatch != nil || rep.RegDiff != "" {
		return rep, fmt.Errorf("%s", rep.String())
	}
	return rep, nil
}

// diffRegs compares every architectural field spec.md §4.8 step 3
// names ("r, r_bank, fr[2], sr/pr/pc/fpscr/fpul/mac/gbr/ssr/spc/sgr/
// dbr/vbr, sh4_state, store_queue"), returning a human-readable list of
// mismatches or "" if none were found.
func diffRegs(want, got cpu.Regs, wantSQ, gotSQ [2][8]uint32) string {
	var b strings.Builder
	field := func(name string, w, g uint64) {
		if w != g {
			fmt.Fprintf(&b, "    %s: translator=%#x interpreter=%#x\n", name, w, g)
		}
	}

	for i := range want.R {
		field(fmt.Sprintf("r[%d]", i), uint64(want.R[i]), uint64(got.R[i]))
	}
	for i := range want.RBank {
		field(fmt.Sprintf("r_bank[%d]", i), uint64(want.RBank[i]), uint64(got.RBank[i]))
	}
	for bank := range want.FR {
		for i := range want.FR[bank] {
			field(fmt.Sprintf("fr[%d][%d]", bank, i), uint64(want.FR[bank][i]), uint64(got.FR[bank][i]))
		}
	}
	field("sr", uint64(want.SR), uint64(got.SR))
	field("pr", uint64(want.PR), uint64(got.PR))
	field("pc", uint64(want.PC), uint64(got.PC))
	field("gbr", uint64(want.GBR), uint64(got.GBR))
	field("vbr", uint64(want.VBR), uint64(got.VBR))
	field("ssr", uint64(want.SSR), uint64(got.SSR))
	field("spc", uint64(want.SPC), uint64(got.SPC))
	field("sgr", uint64(want.SGR), uint64(got.SGR))
	field("dbr", uint64(want.DBR), uint64(got.DBR))
	field("fpscr", uint64(want.FPSCR), uint64(got.FPSCR))
	field("fpul", uint64(want.FPUL), uint64(got.FPUL))
	field("mac", want.MAC, got.MAC)
	field("sh4_state", uint64(want.State), uint64(got.State))
	for bank := range wantSQ {
		for i := range wantSQ[bank] {
			field(fmt.Sprintf("store_queue[%d][%d]", bank, i), uint64(wantSQ[bank][i]), uint64(gotSQ[bank][i]))
		}
	}

	return b.String()
}
