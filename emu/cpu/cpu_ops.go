/*
sh4core opcode table: representative coverage of the instruction
categories spec.md §4.1 names (data movement, arithmetic/logic,
control flow, system control, TRAPA). Grounded on the dispatch-table
pattern in the teacher's cpudefs.go ("table [256]func(*stepInfo)
uint16"), generalized from a one-byte opcode index to the full 16-bit
SH4 instruction space.

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

// buildTable walks every 16-bit opcode once at construction time and
// resolves it to a handler, so the hot loop is a single table[opc]
// lookup (spec.md §4.1 "dispatch must be O(1) per instruction"). Every
// handler is wrapped with gate(), which centralises the delay-slot and
// privilege contracts spec.md §4.1 lists so individual op handlers
// don't each re-check SR.MD or in_delay_slot.
func buildTable(c *CPU) {
	for i := 0; i < 0x10000; i++ {
		if fn := decode(uint16(i)); fn != nil {
			c.table[i] = gate(uint16(i), fn)
		}
	}
}

func decode(opc uint16) opFunc {
	n := (opc >> 8) & 0xF
	m := (opc >> 4) & 0xF

	switch opc >> 12 {
	case 0x0:
		switch opc & 0xF {
		case 0x2:
			switch m {
			case 0x0:
				return opSTCSR
			case 0x1:
				return opSTCGBR
			case 0x2:
				return opSTCVBR
			case 0x3:
				return opSTCSSR
			case 0x4:
				return opSTCSPC
			}
		case 0x3:
			switch m {
			case 0x0:
				return opBSRF
			case 0x2:
				return opBRAF
			case 0x8:
				return opPREF
			}
		case 0x8:
			if n == 0 && m == 0 {
				return opCLRT
			}
			if n == 0 && m == 1 {
				return opSETT
			}
			if n == 0 && m == 2 {
				return opCLRMAC
			}
		case 0x9:
			if m == 0 {
				return opNOP
			}
			if m == 1 {
				return opDIV0U
			}
			if m == 2 {
				return opMOVTn
			}
		case 0xB:
			switch m {
			case 0x0:
				return opRTS
			case 0x1:
				return opSLEEP
			case 0x2:
				return opRTE
			}
		case 0x4:
			return opMOVBS0
		case 0x5:
			return opMOVWS0
		case 0x6:
			return opMOVLS0
		case 0xC:
			return opMOVBL0
		case 0xD:
			return opMOVWL0
		case 0xE:
			return opMOVLL0
		case 0x7:
			return opMULL
		case 0xA:
			switch m {
			case 0x0:
				return opSTSMACH
			case 0x1:
				return opSTSMACL
			case 0x2:
				return opSTSPR
			}
		case 0xF:
			return opMACL
		}
	case 0x1:
		return opMOVLS4
	case 0x2:
		switch opc & 0xF {
		case 0x0:
			return opMOVBS
		case 0x1:
			return opMOVWS
		case 0x2:
			return opMOVLS
		case 0x4:
			return opMOVBM
		case 0x5:
			return opMOVWM
		case 0x6:
			return opMOVLM
		case 0x7:
			return opDIV0S
		case 0x8:
			return opTST
		case 0x9:
			return opAND
		case 0xA:
			return opXOR
		case 0xB:
			return opOR
		case 0xC:
			return opCMPSTR
		case 0xD:
			return opXTRCT
		case 0xE:
			return opMULSUW
		case 0xF:
			return opMULSW
		}
	case 0x3:
		switch opc & 0xF {
		case 0x0:
			return opCMPEQ
		case 0x2:
			return opCMPHS
		case 0x3:
			return opCMPGE
		case 0x4:
			return opDIV1
		case 0x5:
			return opDMULU
		case 0x6:
			return opCMPHI
		case 0x7:
			return opCMPGT
		case 0x8:
			return opSUB
		case 0xA:
			return opSUBC
		case 0xB:
			return opSUBV
		case 0xC:
			return opADD
		case 0xD:
			return opDMULS
		case 0xE:
			return opADDC
		case 0xF:
			return opADDV
		}
	case 0x4:
		switch opc & 0xFF {
		case 0x00:
			return opSHLL
		case 0x01:
			return opSHLR
		case 0x02:
			return opSTSMMACH
		case 0x04:
			return opROTL
		case 0x05:
			return opROTR
		case 0x06:
			return opLDSMMACH
		case 0x08:
			return opSHLL2
		case 0x09:
			return opSHLR2
		case 0x0A:
			return opLDSMACH
		case 0x0B:
			return opJSR
		case 0x10:
			return opDT
		case 0x11:
			return opCMPPZ
		case 0x15:
			return opCMPPL
		case 0x18:
			return opSHLL8
		case 0x19:
			return opSHLR8
		case 0x1A:
			return opLDSMACL
		case 0x1B:
			return opTAS
		case 0x20:
			return opSHAL
		case 0x21:
			return opSHAR
		case 0x22:
			return opSTSMPR
		case 0x24:
			return opROTCL
		case 0x25:
			return opROTCR
		case 0x26:
			return opLDSMPR
		case 0x28:
			return opSHLL16
		case 0x29:
			return opSHLR16
		case 0x2A:
			return opLDSPR
		case 0x2B:
			return opJMP
		case 0x0E:
			return opLDCSR
		case 0x1E:
			return opLDCGBR
		case 0x2E:
			return opLDCVBR
		case 0x0C, 0x0D, 0x1C, 0x1D, 0x2C, 0x2D:
			return opSHAD // representative shift/rotate-family placeholders routed to SHAD.
		case 0x0F, 0x1F, 0x2F:
			return opMACW
		case 0x38:
			return opLDTLB
		}
	case 0x5:
		return opMOVLL4
	case 0x6:
		switch opc & 0xF {
		case 0x0:
			return opMOVBL
		case 0x1:
			return opMOVWL
		case 0x2:
			return opMOVLL
		case 0x3:
			return opMOV
		case 0x4:
			return opMOVBP
		case 0x5:
			return opMOVWP
		case 0x6:
			return opMOVLP
		case 0x7:
			return opNOT
		case 0x8:
			return opSWAPB
		case 0x9:
			return opSWAPW
		case 0xA:
			return opNEGC
		case 0xB:
			return opNEG
		case 0xC:
			return opEXTUB
		case 0xD:
			return opEXTUW
		case 0xE:
			return opEXTSB
		case 0xF:
			return opEXTSW
		}
	case 0x7:
		return opADDI
	case 0x8:
		switch n {
		case 0x0:
			return opMOVBS4
		case 0x1:
			return opMOVWS4
		case 0x4:
			return opMOVBL4
		case 0x5:
			return opMOVWL4
		case 0x8:
			return opCMPIM
		case 0x9:
			return opBT
		case 0xB:
			return opBF
		case 0xD:
			return opBTS
		case 0xF:
			return opBFS
		}
	case 0x9:
		return opMOVWI
	case 0xA:
		return opBRA
	case 0xB:
		return opBSR
	case 0xC:
		switch n {
		case 0x0:
			return opMOVBSG
		case 0x1:
			return opMOVWSG
		case 0x2:
			return opMOVLSG
		case 0x3:
			return opTRAPA
		case 0x4:
			return opMOVBLG
		case 0x5:
			return opMOVWLG
		case 0x6:
			return opMOVLLG
		case 0x7:
			return opMOVA
		case 0x8:
			return opTSTI
		case 0x9:
			return opANDI
		case 0xA:
			return opXORI
		case 0xB:
			return opORI
		case 0xC:
			return opTSTB
		case 0xD:
			return opANDB
		case 0xE:
			return opXORB
		case 0xF:
			return opORB
		}
	case 0xD:
		return opMOVLI
	case 0xE:
		return opMOVI
	case 0xF:
		return decodeFPU(opc)
	}
	return nil
}

// instrClass records the two cross-cutting contracts spec.md §4.1
// attaches to specific opcodes: "branch" instructions may never appear
// as the instruction inside another branch's delay slot, and
// "privileged" instructions require SR.MD=1. Classifying once at table
// build time (rather than scattering the check through every handler)
// also gives emu/xlat a single place to ask "does this opcode end a
// basic block" (spec.md §4.2 "a basic block extends ... until the
// first control-flow-changing instruction").
type instrClass struct {
	branch     bool
	delayed    bool // has a delay slot (as opposed to BT/BF/TRAPA, which don't).
	privileged bool
}

func classify(opc uint16) instrClass {
	switch opc >> 12 {
	case 0x0:
		switch opc & 0xF {
		case 0x2: // STC Rn, {SR,GBR,VBR,SSR,SPC} -- GBR (m=1) is unprivileged.
			return instrClass{privileged: (opc>>4)&0xF != 1}
		case 0x3:
			switch (opc >> 4) & 0xF {
			case 0x0, 0x2: // BSRF, BRAF
				return instrClass{branch: true, delayed: true}
			}
		case 0xB:
			switch (opc >> 4) & 0xF {
			case 0x0: // RTS
				return instrClass{branch: true, delayed: true}
			case 0x1: // SLEEP
				return instrClass{privileged: true}
			case 0x2: // RTE
				return instrClass{branch: true, delayed: true, privileged: true}
			}
		}
	case 0x4:
		switch opc & 0xFF {
		case 0x0B, 0x2B: // JSR, JMP
			return instrClass{branch: true, delayed: true}
		case 0x0E, 0x2E: // LDC Rm, SR / LDC Rm, VBR -- LDC Rm,GBR (0x1E) is unprivileged.
			return instrClass{privileged: true}
		case 0x38: // LDTLB
			return instrClass{privileged: true}
		}
	case 0x8:
		switch (opc >> 8) & 0xF {
		case 0x9, 0xB: // BT, BF -- take effect immediately, no delay slot.
			return instrClass{branch: true}
		case 0xD, 0xF: // BT.S, BF.S
			return instrClass{branch: true, delayed: true}
		}
	case 0xA, 0xB: // BRA, BSR
		return instrClass{branch: true, delayed: true}
	case 0xC:
		if (opc>>8)&0xF == 0x3 { // TRAPA -- control transfer, but via exception, not a delay slot.
			return instrClass{branch: true}
		}
	}
	return instrClass{}
}

// gate wraps fn with the delay-slot and privilege checks instrClass
// describes. A branch instruction executed while in_delay_slot is
// already set raises EXC_SLOT_ILLEGAL (spec.md §4.1, §8 "Delay-slot
// illegality"); a privileged instruction executed with SR.MD=0 raises
// EXC_ILLEGAL, or the slot variant if it's also inside a delay slot
// (spec.md §4.1 "Privileged ops ... are fatal ... If they occur in a
// delay slot, the slot variant is raised").
func gate(opc uint16, fn opFunc) opFunc {
	cls := classify(opc)
	if !cls.branch && !cls.privileged {
		return fn
	}
	return func(c *CPU, s *stepInfo) ExcCode {
		if cls.branch && c.Regs.InDelaySlot {
			return ExcSlotIllegal
		}
		if cls.privileged && c.Regs.SR&SRMD == 0 {
			if c.Regs.InDelaySlot {
				return ExcSlotIllegal
			}
			return ExcIllegal
		}
		return fn(c, s)
	}
}

// IsBlockEnd reports whether opc is a control-flow-changing instruction
// per spec.md §4.2's basic-block definition, letting emu/xlat end a
// translation unit at the right instruction without duplicating the
// branch-opcode table.
func IsBlockEnd(opc uint16) bool { return classify(opc).branch }

// BlockEndKind reports both IsBlockEnd and, when true, whether the
// instruction has its own delay slot -- emu/xlat needs this to know
// whether to fold one more instruction into the block before closing
// it (spec.md §4.2 "A basic block extends ... until the first
// control-flow-changing instruction + its delay slot").
func BlockEndKind(opc uint16) (isEnd, delayed bool) {
	cls := classify(opc)
	return cls.branch, cls.delayed
}

// Handler exposes the already-decoded per-opcode semantic function for
// opc together with a closure-compiled stepInfo, so emu/xlat can
// resolve an instruction once at compile time instead of paying
// interpreter fetch/decode cost on every execution of a hot block
// (spec.md §4.2's lowering contracts -- "host machine code" is realised
// here as a once-specialised Go closure rather than emitted native
// bytes, which is the idiomatic Go analogue of a JIT body). ok is false
// for unimplemented opcodes, matching decode() returning nil.
func (c *CPU) Handler(opc uint16) (fn func(cp *CPU) ExcCode, ok bool) {
	h := c.table[opc]
	if h == nil {
		return nil, false
	}
	st := decodeStep(opc)
	return func(cp *CPU) ExcCode { return h(cp, &st) }, true
}
