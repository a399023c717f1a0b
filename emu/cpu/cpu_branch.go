/*
sh4core control-flow and system-control opcode handlers (spec.md §4.1
"control flow", "system control"; §4.4 for RTE's interrupt-return
semantics).

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

import (
	"github.com/dcsh4/sh4core/emu/device"
	"github.com/dcsh4/sh4core/emu/mmu"
)

func signExt8(v uint8) int32 {
	x := int32(v)
	if x&0x80 != 0 {
		x |= ^int32(0xFF)
	}
	return x
}

func disp12(opc uint16) int32 {
	x := int32(opc & 0xFFF)
	if x&0x800 != 0 {
		x |= ^int32(0xFFF)
	}
	return x
}

// enterDelaySlot schedules a branch that takes effect after the
// following (delay-slot) instruction retires; that instruction runs in
// its own step, and the step that retires it moves PC to target.
func enterDelaySlot(c *CPU, target uint32) {
	c.Regs.InDelaySlot = true
	c.Regs.DelayTarget = target
}

// --- unconditional / subroutine branches (all delayed) ---

func opBRA(c *CPU, s *stepInfo) ExcCode {
	target := c.Regs.PC + 4 + uint32(disp12(s.opcode)*2)
	enterDelaySlot(c, target)
	return ExcNone
}

func opBSR(c *CPU, s *stepInfo) ExcCode {
	c.Regs.PR = c.Regs.PC + 4
	target := c.Regs.PC + 4 + uint32(disp12(s.opcode)*2)
	enterDelaySlot(c, target)
	return ExcNone
}

func opBRAF(c *CPU, s *stepInfo) ExcCode {
	target := c.Regs.PC + 4 + c.Regs.R[s.n]
	enterDelaySlot(c, target)
	return ExcNone
}

func opBSRF(c *CPU, s *stepInfo) ExcCode {
	c.Regs.PR = c.Regs.PC + 4
	target := c.Regs.PC + 4 + c.Regs.R[s.n]
	enterDelaySlot(c, target)
	return ExcNone
}

func opJMP(c *CPU, s *stepInfo) ExcCode {
	enterDelaySlot(c, c.Regs.R[s.n])
	return ExcNone
}

func opJSR(c *CPU, s *stepInfo) ExcCode {
	c.Regs.PR = c.Regs.PC + 4
	enterDelaySlot(c, c.Regs.R[s.n])
	return ExcNone
}

func opRTS(c *CPU, s *stepInfo) ExcCode {
	enterDelaySlot(c, c.Regs.PR)
	return ExcNone
}

// RTE restores SR from SSR and jumps to SPC, both through the delay
// slot the real SH4 gives it (spec.md §4.4 "interrupt return").
func opRTE(c *CPU, s *stepInfo) ExcCode {
	enterDelaySlot(c, c.Regs.SPC)
	c.Regs.SR = c.Regs.SSR
	c.syncIMask()
	return ExcNone
}

// --- conditional branches: BT/BF take effect immediately; BT.S/BF.S
// are delayed (spec.md §4.1 naming both forms explicitly).

func opBT(c *CPU, s *stepInfo) ExcCode {
	if getT(c) {
		c.Regs.NewPC = c.Regs.PC + 4 + uint32(signExt8(s.imm8)*2)
	}
	return ExcNone
}

func opBF(c *CPU, s *stepInfo) ExcCode {
	if !getT(c) {
		c.Regs.NewPC = c.Regs.PC + 4 + uint32(signExt8(s.imm8)*2)
	}
	return ExcNone
}

func opBTS(c *CPU, s *stepInfo) ExcCode {
	if getT(c) {
		enterDelaySlot(c, c.Regs.PC+4+uint32(signExt8(s.imm8)*2))
	}
	return ExcNone
}

func opBFS(c *CPU, s *stepInfo) ExcCode {
	if !getT(c) {
		enterDelaySlot(c, c.Regs.PC+4+uint32(signExt8(s.imm8)*2))
	}
	return ExcNone
}

// --- system control: LDC/STC (control registers), LDS/STS (special
// registers), TRAPA, SLEEP, LDTLB, PREF ---

func opSTCSR(c *CPU, s *stepInfo) ExcCode  { c.Regs.R[s.n] = c.Regs.SR; return ExcNone }
func opSTCGBR(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.GBR; return ExcNone }
func opSTCVBR(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.VBR; return ExcNone }
func opSTCSSR(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.SSR; return ExcNone }
func opSTCSPC(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.SPC; return ExcNone }

func opLDCSR(c *CPU, s *stepInfo) ExcCode {
	c.Regs.SR = c.Regs.R[s.m]
	c.syncIMask()
	return ExcNone
}
func opLDCGBR(c *CPU, s *stepInfo) ExcCode { c.Regs.GBR = c.Regs.R[s.m]; return ExcNone }
func opLDCVBR(c *CPU, s *stepInfo) ExcCode { c.Regs.VBR = c.Regs.R[s.m]; return ExcNone }

func opSTSMACH(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = uint32(c.Regs.MAC >> 32); return ExcNone }
func opSTSMACL(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = uint32(c.Regs.MAC); return ExcNone }
func opSTSPR(c *CPU, s *stepInfo) ExcCode   { c.Regs.R[s.n] = c.Regs.PR; return ExcNone }

func opLDSMACH(c *CPU, s *stepInfo) ExcCode {
	c.Regs.MAC = uint64(c.Regs.R[s.m])<<32 | c.Regs.MAC&0xFFFFFFFF
	return ExcNone
}
func opLDSMACL(c *CPU, s *stepInfo) ExcCode {
	c.Regs.MAC = c.Regs.MAC&0xFFFFFFFF00000000 | uint64(c.Regs.R[s.m])
	return ExcNone
}
func opLDSPR(c *CPU, s *stepInfo) ExcCode { c.Regs.PR = c.Regs.R[s.m]; return ExcNone }

// LDS.L/STS.L @Rm+ forms -- share the same register-file update, memory
// side handled through the generic load/store helpers.
func opLDSMMACH(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.m] += 4
	c.Regs.MAC = uint64(v)<<32 | c.Regs.MAC&0xFFFFFFFF
	return ExcNone
}

func opSTSMMACH(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] -= 4
	return c.writeLong(c.Regs.R[s.n], uint32(c.Regs.MAC>>32))
}

func opSTSMPR(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] -= 4
	return c.writeLong(c.Regs.R[s.n], c.Regs.PR)
}

func opLDSMPR(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.m] += 4
	c.Regs.PR = v
	return ExcNone
}

// TRAPA implements spec.md §4.1's software trap: stores imm<<2 in TRA,
// pushes SR/PC, and vectors through raiseException's ExcTrap handling.
func opTRAPA(c *CPU, s *stepInfo) ExcCode {
	c.Regs.TRA = uint32(s.imm8) << 2
	c.Regs.R[15] -= 4
	_ = c.writeLong(c.Regs.R[15], c.Regs.SR)
	c.Regs.R[15] -= 4
	_ = c.writeLong(c.Regs.R[15], c.Regs.PC+2)
	return ExcTrap
}

// SLEEP implements spec.md §3 "sh4_state": parks the CPU until the next
// unmasked interrupt, which the driver wakes via checkInterrupt.
func opSLEEP(c *CPU, s *stepInfo) ExcCode {
	c.Regs.State = device.StateSleep
	return ExcNone
}

// LDTLB loads a UTLB entry from the PTEH/PTEL/PTEA registers the BIOS
// stages before executing it (spec.md §4.1, §6 MMIO register map): VPN
// and ASID from PTEH, PPN, size (bits 5:4) and protection/cache bits
// from PTEL. PTEA is not read.
func opLDTLB(c *CPU, s *stepInfo) ExcCode {
	e := mmu.Entry{
		VPN:       c.Regs.PTEH &^ 0xFF,
		ASID:      uint8(c.Regs.PTEH & 0xFF),
		PPN:       c.Regs.PTEL &^ 0xFFF,
		Size:      uint8((c.Regs.PTEL >> 4) & 0x3),
		Valid:     c.Regs.PTEL&(1<<8) != 0,
		User:      c.Regs.PTEL&(1<<6) != 0,
		Write:     c.Regs.PTEL&(1<<5) != 0,
		Cache:     c.Regs.PTEL&(1<<3) != 0,
		Dirty:     c.Regs.PTEL&(1<<2) != 0,
		Share:     c.Regs.PTEL&(1<<1) != 0,
		WrThrough: c.Regs.PTEL&1 != 0,
	}
	if c.MMU != nil {
		c.MMU.LoadUTLB(e)
	}
	return ExcNone
}

// PREF dispatches a store-queue prefetch/flush for Rn (spec.md §4.3,
// §8's "store-queue round-trip" scenario): when Rn addresses the
// store-queue window, the bank it selects is burst-written to the
// target mmu.MMU.StoreQueueTarget computes, either from QACR or from a
// TLB translation of the store-queue address itself. Prefetches of any
// other address are a cache hint this interpreter doesn't model.
func opPREF(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.R[s.n]
	bank, _, ok := storeQueueSlot(addr)
	if !ok || c.MMU == nil {
		return ExcNone
	}

	var tlbPhys uint32
	var tlbHit bool
	if c.MMU.AT {
		if p, fault := c.MMU.Translate(addr, 0, c.userMode(), true); fault == mmu.FaultNone {
			tlbPhys, tlbHit = p, true
		}
	}
	target := c.MMU.StoreQueueTarget(addr, bank, tlbPhys, tlbHit)

	var buf [32]byte
	for i, w := range c.MMU.StoreQueue[bank] {
		buf[i*4+0] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	c.Space.WriteBurst(target, buf[:])
	return ExcNone
}
