/*
sh4core FPU opcode handlers: representative coverage of the single/
double-precision and vector/transcendental forms spec.md §4.1 names
(FMOV, FADD/FSUB/FMUL/FDIV, FCMP, FTRC/FLOAT, FCNVDS/FCNVSD, FIPR,
FTRV, FSCA).

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

import "math"

// decodeFPU resolves the 0xF-prefixed instruction space. FPU opcodes
// that would trap when SR.FD is set are gated in fpuGate, wrapped
// around the representative table below.
func decodeFPU(opc uint16) opFunc {
	n := (opc >> 8) & 0xF
	m := (opc >> 4) & 0xF

	var fn opFunc
	switch opc & 0xF {
	case 0xC:
		fn = opFMOV
	case 0x8:
		fn = opFMOVLoad
	case 0xA:
		fn = opFMOVStore
	case 0x6:
		fn = opFMOVLoadIdx
	case 0x7:
		fn = opFMOVStoreIdx
	case 0x0:
		fn = opFADD
	case 0x1:
		fn = opFSUB
	case 0x2:
		fn = opFMUL
	case 0x3:
		fn = opFDIV
	case 0x4:
		fn = opFCMPEQ
	case 0x5:
		fn = opFCMPGT
	case 0xD:
		switch m {
		case 0x0:
			fn = opFSTS
		case 0x1:
			fn = opFLDS
		case 0x2:
			fn = opFLOAT
		case 0x3:
			fn = opFTRC
		case 0x4:
			fn = opFNEG
		case 0x5:
			fn = opFABS
		case 0x6:
			fn = opFSQRT
		case 0x7:
			fn = opFSRRA
		case 0x8:
			fn = opFLDI0
		case 0x9:
			fn = opFLDI1
		case 0xA:
			fn = opFCNVSD
		case 0xB:
			fn = opFCNVDS
		case 0xD:
			fn = opFIPR
		case 0xE:
			fn = opFTRV
		case 0xF:
			switch n {
			case 0x1:
				fn = opFSCA
			case 0x3:
				fn = opFSCHG
			case 0xB:
				fn = opFRCHG
			}
		}
	case 0xE:
		fn = opFMAC
	}
	if fn == nil {
		return nil
	}
	return fpuGate(fn)
}

// fpuGate wraps every FPU handler with the SR.FD disabled-unit check
// (spec.md §7 "slot/FPU-disabled exceptions").
func fpuGate(fn opFunc) opFunc {
	return func(c *CPU, s *stepInfo) ExcCode {
		if c.Regs.SR&SRFD != 0 {
			if c.Regs.InDelaySlot {
				return ExcSlotFPUDisabled
			}
			return ExcFPUDisabled
		}
		return fn(c, s)
	}
}

func fpuBank(c *CPU) int {
	if c.Regs.FPSCR&FPSCRFR != 0 {
		return 1
	}
	return 0
}

func f32(bits uint32) float32 { return math.Float32frombits(bits) }
func bits32(f float32) uint32 { return math.Float32bits(f) }

func opFMOV(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	c.Regs.FR[b][s.n] = c.Regs.FR[b][s.m]
	return ExcNone
}

func opFMOVLoad(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m])
	if exc != ExcNone {
		return exc
	}
	c.Regs.FR[fpuBank(c)][s.n] = v
	return ExcNone
}

func opFMOVStore(c *CPU, s *stepInfo) ExcCode {
	return c.writeLong(c.Regs.R[s.n], c.Regs.FR[fpuBank(c)][s.m])
}

func opFMOVLoadIdx(c *CPU, s *stepInfo) ExcCode {
	v, exc := c.readLong(c.Regs.R[s.m] + c.Regs.R[0])
	if exc != ExcNone {
		return exc
	}
	c.Regs.FR[fpuBank(c)][s.n] = v
	return ExcNone
}

func opFMOVStoreIdx(c *CPU, s *stepInfo) ExcCode {
	return c.writeLong(c.Regs.R[s.n]+c.Regs.R[0], c.Regs.FR[fpuBank(c)][s.m])
}

func opFADD(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	r := f32(c.Regs.FR[b][s.n]) + f32(c.Regs.FR[b][s.m])
	c.Regs.FR[b][s.n] = bits32(r)
	return ExcNone
}

func opFSUB(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	r := f32(c.Regs.FR[b][s.n]) - f32(c.Regs.FR[b][s.m])
	c.Regs.FR[b][s.n] = bits32(r)
	return ExcNone
}

func opFMUL(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	r := f32(c.Regs.FR[b][s.n]) * f32(c.Regs.FR[b][s.m])
	c.Regs.FR[b][s.n] = bits32(r)
	return ExcNone
}

func opFDIV(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	r := f32(c.Regs.FR[b][s.n]) / f32(c.Regs.FR[b][s.m])
	c.Regs.FR[b][s.n] = bits32(r)
	return ExcNone
}

func opFCMPEQ(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	setT(c, f32(c.Regs.FR[b][s.n]) == f32(c.Regs.FR[b][s.m]))
	return ExcNone
}

func opFCMPGT(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	setT(c, f32(c.Regs.FR[b][s.n]) > f32(c.Regs.FR[b][s.m]))
	return ExcNone
}

func opFSTS(c *CPU, s *stepInfo) ExcCode { c.Regs.FR[fpuBank(c)][s.n] = c.Regs.FPUL; return ExcNone }
func opFLDS(c *CPU, s *stepInfo) ExcCode { c.Regs.FPUL = c.Regs.FR[fpuBank(c)][s.n]; return ExcNone }

func opFLOAT(c *CPU, s *stepInfo) ExcCode {
	c.Regs.FR[fpuBank(c)][s.n] = bits32(float32(int32(c.Regs.FPUL)))
	return ExcNone
}

func opFTRC(c *CPU, s *stepInfo) ExcCode {
	v := f32(c.Regs.FR[fpuBank(c)][s.n])
	const maxI = float32(2147483520) // Largest float32 below MaxInt32, per SH4 FTRC saturation.
	switch {
	case v >= maxI:
		c.Regs.FPUL = 0x7FFFFFFF
	case v <= -maxI-1:
		c.Regs.FPUL = 0x80000000
	default:
		c.Regs.FPUL = uint32(int32(v))
	}
	return ExcNone
}

func opFNEG(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	c.Regs.FR[b][s.n] = bits32(-f32(c.Regs.FR[b][s.n]))
	return ExcNone
}

func opFABS(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	c.Regs.FR[b][s.n] = c.Regs.FR[b][s.n] &^ 0x80000000
	return ExcNone
}

func opFSQRT(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	c.Regs.FR[b][s.n] = bits32(float32(math.Sqrt(float64(f32(c.Regs.FR[b][s.n])))))
	return ExcNone
}

// FSRRA: fast reciprocal-square-root approximation (spec.md names FSCA
// as the trig table lookup sibling of this one).
func opFSRRA(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	v := float64(f32(c.Regs.FR[b][s.n]))
	c.Regs.FR[b][s.n] = bits32(float32(1 / math.Sqrt(v)))
	return ExcNone
}

func opFLDI0(c *CPU, s *stepInfo) ExcCode { c.Regs.FR[fpuBank(c)][s.n] = 0; return ExcNone }
func opFLDI1(c *CPU, s *stepInfo) ExcCode {
	c.Regs.FR[fpuBank(c)][s.n] = bits32(1.0)
	return ExcNone
}

// FCNVDS/FCNVSD convert between the single bank and the FPUL-staged
// double held across FR[n]/FR[n+1] (spec.md §4.1 names both forms).
func opFCNVDS(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	base := s.n &^ 1
	hi, lo := c.Regs.FR[b][base], c.Regs.FR[b][base+1]
	d := math.Float64frombits(uint64(hi)<<32 | uint64(lo))
	c.Regs.FPUL = bits32(float32(d))
	return ExcNone
}

func opFCNVSD(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	base := s.n &^ 1
	d := float64(f32(c.Regs.FPUL))
	bits := math.Float64bits(d)
	c.Regs.FR[b][base] = uint32(bits >> 32)
	c.Regs.FR[b][base+1] = uint32(bits)
	return ExcNone
}

// FIPR: four-element inner product, vector n.. with vector m.. (both
// aligned to a multiple of 4), result into FR[n+3] (spec.md §4.1
// "FIPR").
func opFIPR(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	nBase := s.n &^ 3
	mBase := s.m &^ 3
	var sum float32
	for i := 0; i < 4; i++ {
		sum += f32(c.Regs.FR[b][int(nBase)+i]) * f32(c.Regs.FR[b][int(mBase)+i])
	}
	c.Regs.FR[b][nBase+3] = bits32(sum)
	return ExcNone
}

// FTRV: 4x4 matrix-vector transform, matrix held in bank XF (the other
// FPU bank), vector in FR[n..n+3] of the active bank (spec.md §4.1
// "FTRV").
func opFTRV(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	x := 1 - b
	base := s.n &^ 3
	var v [4]float32
	for i := 0; i < 4; i++ {
		v[i] = f32(c.Regs.FR[b][int(base)+i])
	}
	for row := 0; row < 4; row++ {
		var acc float32
		for col := 0; col < 4; col++ {
			acc += f32(c.Regs.FR[x][col*4+row]) * v[col]
		}
		c.Regs.FR[b][int(base)+row] = bits32(acc)
	}
	return ExcNone
}

// FSCA: sine/cosine table lookup driven by FPUL's fractional-angle
// fixed-point value into FR[n]/FR[n+1] (spec.md §4.1 "FSCA").
func opFSCA(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	base := s.n &^ 1
	frac := float64(uint16(c.Regs.FPUL)) / 65536.0
	angle := frac * 2 * math.Pi
	c.Regs.FR[b][base] = bits32(float32(math.Sin(angle)))
	c.Regs.FR[b][base+1] = bits32(float32(math.Cos(angle)))
	return ExcNone
}

func opFRCHG(c *CPU, s *stepInfo) ExcCode {
	c.Regs.FPSCR ^= FPSCRFR
	return ExcNone
}

func opFSCHG(c *CPU, s *stepInfo) ExcCode {
	c.Regs.FPSCR ^= FPSCRSZ
	return ExcNone
}

// FMAC: Rn += FR0 * Rm, the single-precision multiply-accumulate form
// (spec.md §4.1 lists the MAC family alongside FIPR/FTRV).
func opFMAC(c *CPU, s *stepInfo) ExcCode {
	b := fpuBank(c)
	r := f32(c.Regs.FR[b][0])*f32(c.Regs.FR[b][s.m]) + f32(c.Regs.FR[b][s.n])
	c.Regs.FR[b][s.n] = bits32(r)
	return ExcNone
}
