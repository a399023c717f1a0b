/*
sh4core data-movement and arithmetic/logic opcode handlers (spec.md
§4.1, instruction categories "data movement" and "arithmetic/logic").

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

func setT(c *CPU, v bool) {
	if v {
		c.Regs.SR |= SRT
	} else {
		c.Regs.SR &^= SRT
	}
}

func getT(c *CPU) bool { return c.Regs.SR&SRT != 0 }

// --- MOV immediate / register family ---

func opMOVI(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] = uint32(int32(int8(s.imm8)))
	return ExcNone
}

func opMOVWI(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.PC + 4 + uint32(s.imm8)*2
	v, exc := c.readWord(addr)
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = uint32(int32(int16(uint16(v))))
	return ExcNone
}

func opMOVLI(c *CPU, s *stepInfo) ExcCode {
	addr := (c.Regs.PC+4)&^3 + uint32(s.imm8)*4
	v, exc := c.readLong(addr)
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = v
	return ExcNone
}

func opMOV(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.R[s.m]; return ExcNone }

func opMOVA(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[0] = (c.Regs.PC+4)&^3 + uint32(s.imm8)*4
	return ExcNone
}

// --- indexed/indirect loads and stores ---

func opMOVBS(c *CPU, s *stepInfo) ExcCode { return c.writeByte(c.Regs.R[s.n], c.Regs.R[s.m]) }
func opMOVWS(c *CPU, s *stepInfo) ExcCode { return c.writeWord(c.Regs.R[s.n], c.Regs.R[s.m]) }
func opMOVLS(c *CPU, s *stepInfo) ExcCode { return c.writeLong(c.Regs.R[s.n], c.Regs.R[s.m]) }

func opMOVBL(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readByte(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = uint32(int32(int8(byte(v))))
	return ExcNone
}

func opMOVWL(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readWord(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = uint32(int32(int16(uint16(v))))
	return ExcNone
}

func opMOVLL(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = v
	return ExcNone
}

// MOV.x @Rm+, Rn (post-increment)
func opMOVBP(c *CPU, s *stepInfo) ExcCode {
	exc := opMOVBL(c, s)
	if exc == ExcNone && s.n != s.m {
		c.Regs.R[s.m]++
	}
	return exc
}

func opMOVWP(c *CPU, s *stepInfo) ExcCode {
	exc := opMOVWL(c, s)
	if exc == ExcNone && s.n != s.m {
		c.Regs.R[s.m] += 2
	}
	return exc
}

func opMOVLP(c *CPU, s *stepInfo) ExcCode {
	exc := opMOVLL(c, s)
	if exc == ExcNone && s.n != s.m {
		c.Regs.R[s.m] += 4
	}
	return exc
}

// MOV.x Rm, @-Rn (pre-decrement)
func opMOVBM(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.R[s.n] - 1
	if exc := c.writeByte(addr, c.Regs.R[s.m]); exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = addr
	return ExcNone
}

func opMOVWM(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.R[s.n] - 2
	if exc := c.writeWord(addr, c.Regs.R[s.m]); exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = addr
	return ExcNone
}

func opMOVLM(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.R[s.n] - 4
	if exc := c.writeLong(addr, c.Regs.R[s.m]); exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = addr
	return ExcNone
}

// MOV.x @(R0,Rm), Rn / MOV.x Rm, @(R0,Rn)
func opMOVBL0(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readByte(c.Regs.R[s.m] + c.Regs.R[0])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = uint32(int32(int8(byte(v))))
	return ExcNone
}

func opMOVWL0(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readWord(c.Regs.R[s.m] + c.Regs.R[0])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = uint32(int32(int16(uint16(v))))
	return ExcNone
}

func opMOVLL0(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m] + c.Regs.R[0])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = v
	return ExcNone
}

func opMOVBS0(c *CPU, s *stepInfo) ExcCode {
	return c.writeByte(c.Regs.R[s.n]+c.Regs.R[0], c.Regs.R[s.m])
}

func opMOVWS0(c *CPU, s *stepInfo) ExcCode {
	return c.writeWord(c.Regs.R[s.n]+c.Regs.R[0], c.Regs.R[s.m])
}

func opMOVLS0(c *CPU, s *stepInfo) ExcCode {
	return c.writeLong(c.Regs.R[s.n]+c.Regs.R[0], c.Regs.R[s.m])
}

// MOV.L Rm, @(disp,Rn) / MOV.L @(disp,Rm), Rn -- 4-bit displacement, *4.
func opMOVLS4(c *CPU, s *stepInfo) ExcCode {
	return c.writeLong(c.Regs.R[s.n]+uint32(s.imm4)*4, c.Regs.R[s.m])
}

func opMOVLL4(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m] + uint32(s.imm4)*4)
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] = v
	return ExcNone
}

// MOV.x R0, @(disp,Rm) / MOV.x @(disp,Rm), R0 -- the 4-bit-displacement,
// R0-fixed forms. The register field for these lives in the m nibble
// (bits 4-7); n only carries the opcode's sub-discriminator.
func opMOVBS4(c *CPU, s *stepInfo) ExcCode {
	return c.writeByte(c.Regs.R[s.m]+uint32(s.imm4), c.Regs.R[0])
}

func opMOVWS4(c *CPU, s *stepInfo) ExcCode {
	return c.writeWord(c.Regs.R[s.m]+uint32(s.imm4)*2, c.Regs.R[0])
}

func opMOVBL4(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readByte(c.Regs.R[s.m] + uint32(s.imm4))
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[0] = uint32(int32(int8(byte(v))))
	return ExcNone
}

func opMOVWL4(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readWord(c.Regs.R[s.m] + uint32(s.imm4)*2)
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[0] = uint32(int32(int16(uint16(v))))
	return ExcNone
}

// MOV.x Rm, @(disp,GBR) family.
func opMOVBSG(c *CPU, s *stepInfo) ExcCode { return c.writeByte(c.Regs.GBR+uint32(s.imm8), c.Regs.R[0]) }
func opMOVWSG(c *CPU, s *stepInfo) ExcCode {
	return c.writeWord(c.Regs.GBR+uint32(s.imm8)*2, c.Regs.R[0])
}
func opMOVLSG(c *CPU, s *stepInfo) ExcCode {
	return c.writeLong(c.Regs.GBR+uint32(s.imm8)*4, c.Regs.R[0])
}

func opMOVBLG(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readByte(c.Regs.GBR + uint32(s.imm8))
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[0] = uint32(int32(int8(byte(v))))
	return ExcNone
}

func opMOVWLG(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readWord(c.Regs.GBR + uint32(s.imm8)*2)
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[0] = uint32(int32(int16(uint16(v))))
	return ExcNone
}

func opMOVLLG(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.GBR + uint32(s.imm8)*4)
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[0] = v
	return ExcNone
}

// --- swap / extend / xtrct ---

func opSWAPB(c *CPU, s *stepInfo) ExcCode {
	v := c.Regs.R[s.m]
	c.Regs.R[s.n] = (v &^ 0xFFFF) | (v&0xFF)<<8 | (v>>8)&0xFF
	return ExcNone
}

func opSWAPW(c *CPU, s *stepInfo) ExcCode {
	v := c.Regs.R[s.m]
	c.Regs.R[s.n] = v<<16 | v>>16
	return ExcNone
}

func opXTRCT(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] = (c.Regs.R[s.n] >> 16) | (c.Regs.R[s.m] << 16)
	return ExcNone
}

func opEXTUB(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.R[s.m] & 0xFF; return ExcNone }
func opEXTUW(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = c.Regs.R[s.m] & 0xFFFF; return ExcNone }
func opEXTSB(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] = uint32(int32(int8(byte(c.Regs.R[s.m]))))
	return ExcNone
}
func opEXTSW(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] = uint32(int32(int16(uint16(c.Regs.R[s.m]))))
	return ExcNone
}

// --- arithmetic ---

func opADD(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] += c.Regs.R[s.m]; return ExcNone }
func opADDI(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n] += uint32(int32(int8(s.imm8)))
	return ExcNone
}

func opADDC(c *CPU, s *stepInfo) ExcCode {
	a, b := c.Regs.R[s.n], c.Regs.R[s.m]
	carry := uint32(0)
	if getT(c) {
		carry = 1
	}
	sum := uint64(a) + uint64(b) + uint64(carry)
	c.Regs.R[s.n] = uint32(sum)
	setT(c, sum>>32 != 0)
	return ExcNone
}

func opADDV(c *CPU, s *stepInfo) ExcCode {
	a, b := int32(c.Regs.R[s.n]), int32(c.Regs.R[s.m])
	res := a + b
	overflow := (a >= 0) == (b >= 0) && (res >= 0) != (a >= 0)
	c.Regs.R[s.n] = uint32(res)
	setT(c, overflow)
	return ExcNone
}

func opSUB(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] -= c.Regs.R[s.m]; return ExcNone }

func opSUBC(c *CPU, s *stepInfo) ExcCode {
	a, b := c.Regs.R[s.n], c.Regs.R[s.m]
	borrow := uint64(0)
	if getT(c) {
		borrow = 1
	}
	diff := uint64(a) - uint64(b) - borrow
	c.Regs.R[s.n] = uint32(diff)
	setT(c, diff>>32 != 0)
	return ExcNone
}

func opSUBV(c *CPU, s *stepInfo) ExcCode {
	a, b := int32(c.Regs.R[s.n]), int32(c.Regs.R[s.m])
	res := a - b
	overflow := (a >= 0) != (b >= 0) && (res >= 0) != (a >= 0)
	c.Regs.R[s.n] = uint32(res)
	setT(c, overflow)
	return ExcNone
}

func opNEG(c *CPU, s *stepInfo) ExcCode  { c.Regs.R[s.n] = -c.Regs.R[s.m]; return ExcNone }
func opNEGC(c *CPU, s *stepInfo) ExcCode {
	borrow := uint64(0)
	if getT(c) {
		borrow = 1
	}
	diff := uint64(0) - uint64(c.Regs.R[s.m]) - borrow
	c.Regs.R[s.n] = uint32(diff)
	setT(c, diff>>32 != 0)
	return ExcNone
}

func opNOT(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = ^c.Regs.R[s.m]; return ExcNone }

func opMULL(c *CPU, s *stepInfo) ExcCode {
	c.Regs.MAC = uint64(uint32(c.Regs.R[s.n] * c.Regs.R[s.m]))
	return ExcNone
}

func opMULSUW(c *CPU, s *stepInfo) ExcCode {
	r := int32(int16(c.Regs.R[s.n])) * int32(int16(c.Regs.R[s.m]))
	c.Regs.MAC = uint64(uint32(r))
	return ExcNone
}

func opMULSW(c *CPU, s *stepInfo) ExcCode {
	r := int32(int16(c.Regs.R[s.n])) * int32(int16(c.Regs.R[s.m]))
	c.Regs.MAC = uint64(uint32(r))
	return ExcNone
}

func opDMULU(c *CPU, s *stepInfo) ExcCode {
	c.Regs.MAC = uint64(c.Regs.R[s.n]) * uint64(c.Regs.R[s.m])
	return ExcNone
}

func opDMULS(c *CPU, s *stepInfo) ExcCode {
	c.Regs.MAC = uint64(int64(int32(c.Regs.R[s.n])) * int64(int32(c.Regs.R[s.m])))
	return ExcNone
}

// MAC.L @Rm+, @Rn+ -- 32x32 signed multiply-accumulate (spec.md §4.1
// "MAC saturation"); the host MAC field holds the full 64-bit signed
// value. When SR.S is set the sum is clamped to the signed 48-bit
// range; otherwise it accumulates in 64 bits without saturation.
func opMACL(c *CPU, s *stepInfo) ExcCode {
	a, exc := c.readLong(c.Regs.R[s.n])
	if exc != ExcNone {
		return exc
	}
	b, exc := c.readLong(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] += 4
	c.Regs.R[s.m] += 4

	prod := int64(int32(a)) * int64(int32(b))
	sum := int64(c.Regs.MAC) + prod
	if c.Regs.SR&SRS != 0 {
		const maxMAC = (1 << 47) - 1
		const minMAC = -(1 << 47)
		if sum > maxMAC {
			sum = maxMAC
		} else if sum < minMAC {
			sum = minMAC
		}
	}
	c.Regs.MAC = uint64(sum)
	return ExcNone
}

// MAC.W @Rm+,@Rn+ -- word multiply-accumulate (spec.md §4.1): saturates
// the accumulator to signed 32 bits when S=1, otherwise sign-extends the
// 32-bit product into the full 64-bit MAC with no saturation.
func opMACW(c *CPU, s *stepInfo) ExcCode {
	a, exc := c.readWord(c.Regs.R[s.n])
	if exc != ExcNone {
		return exc
	}
	b, exc := c.readWord(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.R[s.n] += 2
	c.Regs.R[s.m] += 2

	prod := int64(int16(a)) * int64(int16(b))

	if c.Regs.SR&SRS != 0 {
		sum := int64(int32(c.Regs.MAC)) + prod
		const maxMACW = (1 << 31) - 1
		const minMACW = -(1 << 31)
		if sum > maxMACW {
			sum = maxMACW
			c.Regs.MAC = uint64(uint32(sum)) | 1<<32
		} else if sum < minMACW {
			sum = minMACW
			c.Regs.MAC = uint64(uint32(sum)) | 1<<32
		} else {
			c.Regs.MAC = uint64(uint32(sum))
		}
		return ExcNone
	}

	sum := int64(c.Regs.MAC) + prod
	c.Regs.MAC = uint64(sum)
	return ExcNone
}

// DIV0U/DIV0S/DIV1 -- bit-stepped unsigned/signed division primitives
// (spec.md §4.1).
func opDIV0U(c *CPU, s *stepInfo) ExcCode {
	c.Regs.SR &^= SRQ | SRM
	setT(c, false)
	return ExcNone
}

func opDIV0S(c *CPU, s *stepInfo) ExcCode {
	q := c.Regs.R[s.n]>>31 != 0
	m := c.Regs.R[s.m]>>31 != 0
	if q {
		c.Regs.SR |= SRQ
	} else {
		c.Regs.SR &^= SRQ
	}
	if m {
		c.Regs.SR |= SRM
	} else {
		c.Regs.SR &^= SRM
	}
	setT(c, q != m)
	return ExcNone
}

func opDIV1(c *CPU, s *stepInfo) ExcCode {
	q := c.Regs.SR&SRQ != 0
	m := c.Regs.SR&SRM != 0
	rn := c.Regs.R[s.n]
	oldQ := q
	q = rn>>31 != 0
	rn = rn<<1 | b2u32(getT(c))

	var tmp uint64
	if oldQ == m {
		tmp = uint64(rn) - uint64(c.Regs.R[s.m])
	} else {
		tmp = uint64(rn) + uint64(c.Regs.R[s.m])
	}
	result := uint32(tmp)
	carry := tmp>>32 != 0

	q = (q != m) != carry
	c.Regs.R[s.n] = result
	if q {
		c.Regs.SR |= SRQ
	} else {
		c.Regs.SR &^= SRQ
	}
	setT(c, q == m)
	return ExcNone
}

func b2u32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// --- logic ---

func opAND(c *CPU, s *stepInfo) ExcCode  { c.Regs.R[s.n] &= c.Regs.R[s.m]; return ExcNone }
func opANDI(c *CPU, s *stepInfo) ExcCode { c.Regs.R[0] &= uint32(s.imm8); return ExcNone }
func opANDB(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.GBR + c.Regs.R[0]
	v, exc := c.readByte(addr)
	if exc != ExcNone {
		return exc
	}
	return c.writeByte(addr, v&uint32(s.imm8))
}

func opOR(c *CPU, s *stepInfo) ExcCode  { c.Regs.R[s.n] |= c.Regs.R[s.m]; return ExcNone }
func opORI(c *CPU, s *stepInfo) ExcCode { c.Regs.R[0] |= uint32(s.imm8); return ExcNone }
func opORB(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.GBR + c.Regs.R[0]
	v, exc := c.readByte(addr)
	if exc != ExcNone {
		return exc
	}
	return c.writeByte(addr, v|uint32(s.imm8))
}

func opXOR(c *CPU, s *stepInfo) ExcCode  { c.Regs.R[s.n] ^= c.Regs.R[s.m]; return ExcNone }
func opXORI(c *CPU, s *stepInfo) ExcCode { c.Regs.R[0] ^= uint32(s.imm8); return ExcNone }
func opXORB(c *CPU, s *stepInfo) ExcCode {
	addr := c.Regs.GBR + c.Regs.R[0]
	v, exc := c.readByte(addr)
	if exc != ExcNone {
		return exc
	}
	return c.writeByte(addr, v^uint32(s.imm8))
}

func opTST(c *CPU, s *stepInfo) ExcCode {
	setT(c, c.Regs.R[s.n]&c.Regs.R[s.m] == 0)
	return ExcNone
}

func opTSTI(c *CPU, s *stepInfo) ExcCode {
	setT(c, c.Regs.R[0]&uint32(s.imm8) == 0)
	return ExcNone
}

func opTSTB(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readByte(c.Regs.GBR + c.Regs.R[0])
	if exc != ExcNone {
		return exc
	}
	setT(c, v&uint32(s.imm8) == 0)
	return ExcNone
}

func opCMPSTR(c *CPU, s *stepInfo) ExcCode {
	x := c.Regs.R[s.n] ^ c.Regs.R[s.m]
	eq := byte(x) == 0 || byte(x>>8) == 0 || byte(x>>16) == 0 || byte(x>>24) == 0
	setT(c, eq)
	return ExcNone
}

func opCMPEQ(c *CPU, s *stepInfo) ExcCode { setT(c, c.Regs.R[s.n] == c.Regs.R[s.m]); return ExcNone }
func opCMPIM(c *CPU, s *stepInfo) ExcCode {
	setT(c, int32(c.Regs.R[0]) == int32(int8(s.imm8)))
	return ExcNone
}
func opCMPHS(c *CPU, s *stepInfo) ExcCode { setT(c, c.Regs.R[s.n] >= c.Regs.R[s.m]); return ExcNone }
func opCMPHI(c *CPU, s *stepInfo) ExcCode { setT(c, c.Regs.R[s.n] > c.Regs.R[s.m]); return ExcNone }
func opCMPGE(c *CPU, s *stepInfo) ExcCode {
	setT(c, int32(c.Regs.R[s.n]) >= int32(c.Regs.R[s.m]))
	return ExcNone
}
func opCMPGT(c *CPU, s *stepInfo) ExcCode {
	setT(c, int32(c.Regs.R[s.n]) > int32(c.Regs.R[s.m]))
	return ExcNone
}
func opCMPPZ(c *CPU, s *stepInfo) ExcCode { setT(c, int32(c.Regs.R[s.n]) >= 0); return ExcNone }
func opCMPPL(c *CPU, s *stepInfo) ExcCode { setT(c, int32(c.Regs.R[s.n]) > 0); return ExcNone }

// --- shifts/rotates ---

func opSHLL(c *CPU, s *stepInfo) ExcCode {
	setT(c, c.Regs.R[s.n]>>31 != 0)
	c.Regs.R[s.n] <<= 1
	return ExcNone
}

func opSHLR(c *CPU, s *stepInfo) ExcCode {
	setT(c, c.Regs.R[s.n]&1 != 0)
	c.Regs.R[s.n] >>= 1
	return ExcNone
}

func opSHAL(c *CPU, s *stepInfo) ExcCode { return opSHLL(c, s) }
func opSHAR(c *CPU, s *stepInfo) ExcCode {
	setT(c, c.Regs.R[s.n]&1 != 0)
	c.Regs.R[s.n] = uint32(int32(c.Regs.R[s.n]) >> 1)
	return ExcNone
}

func opSHLL2(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] <<= 2; return ExcNone }
func opSHLR2(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] >>= 2; return ExcNone }
func opSHLL8(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] <<= 8; return ExcNone }
func opSHLR8(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] >>= 8; return ExcNone }
func opSHLL16(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] <<= 16; return ExcNone }
func opSHLR16(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] >>= 16; return ExcNone }

// SHAD/SHLD dynamic-shift-by-register representative handler: shifts
// left when the shift-amount register is positive, right (arithmetic)
// when negative, matching the SH4's Rm-as-signed-count convention.
func opSHAD(c *CPU, s *stepInfo) ExcCode {
	amt := int32(c.Regs.R[s.m])
	switch {
	case amt == 0:
	case amt > 0:
		if amt >= 32 {
			c.Regs.R[s.n] = 0
		} else {
			c.Regs.R[s.n] <<= uint(amt)
		}
	default:
		sh := uint(-amt)
		if sh >= 32 {
			c.Regs.R[s.n] = uint32(int32(c.Regs.R[s.n]) >> 31)
		} else {
			c.Regs.R[s.n] = uint32(int32(c.Regs.R[s.n]) >> sh)
		}
	}
	return ExcNone
}

func opROTL(c *CPU, s *stepInfo) ExcCode {
	v := c.Regs.R[s.n]
	setT(c, v>>31 != 0)
	c.Regs.R[s.n] = v<<1 | v>>31
	return ExcNone
}

func opROTR(c *CPU, s *stepInfo) ExcCode {
	v := c.Regs.R[s.n]
	setT(c, v&1 != 0)
	c.Regs.R[s.n] = v>>1 | v<<31
	return ExcNone
}

func opROTCL(c *CPU, s *stepInfo) ExcCode {
	v := c.Regs.R[s.n]
	carry := b2u32(getT(c))
	setT(c, v>>31 != 0)
	c.Regs.R[s.n] = v<<1 | carry
	return ExcNone
}

func opROTCR(c *CPU, s *stepInfo) ExcCode {
	v := c.Regs.R[s.n]
	carry := b2u32(getT(c))
	setT(c, v&1 != 0)
	c.Regs.R[s.n] = v>>1 | carry<<31
	return ExcNone
}

func opDT(c *CPU, s *stepInfo) ExcCode {
	c.Regs.R[s.n]--
	setT(c, c.Regs.R[s.n] == 0)
	return ExcNone
}

func opTAS(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readByte(c.Regs.R[s.n])
	if exc != ExcNone {
		return exc
	}
	setT(c, byte(v) == 0)
	return c.writeByte(c.Regs.R[s.n], v|0x80)
}

func opMOVTn(c *CPU, s *stepInfo) ExcCode { c.Regs.R[s.n] = b2u32(getT(c)); return ExcNone }
func opCLRT(c *CPU, s *stepInfo) ExcCode  { setT(c, false); return ExcNone }
func opSETT(c *CPU, s *stepInfo) ExcCode  { setT(c, true); return ExcNone }
func opCLRMAC(c *CPU, s *stepInfo) ExcCode { c.Regs.MAC = 0; return ExcNone }
func opNOP(c *CPU, s *stepInfo) ExcCode    { return ExcNone }
