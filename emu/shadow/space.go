/*
sh4core shadow harness: the log/check address-space wrappers spec.md
§4.8 names ("Wraps the address space with log ... and check ...
versions").

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
	"bytes"
	"fmt"

	"github.com/dcsh4/sh4core/emu/cpu"
)

// AccessKind distinguishes the data-access operations a shadowed block
// can perform; instruction fetches are never logged since a compiled
// block carries no runtime fetch step to intercept.
type AccessKind uint8

const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessBurst
)

func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessBurst:
		return "burst"
	default:
		return "unknown"
	}
}

// Op is one logged (op, addr, value) tuple (spec.md §4.8).
type Op struct {
	Kind  AccessKind
	Size  uint8 // bytes: 1, 2, or 4; 0 for AccessBurst (see Data).
	Addr  uint32
	Value uint32
	Data  []byte // populated only for AccessBurst.
}

func (o Op) String() string {
	if o.Kind == AccessBurst {
		return fmt.Sprintf("burst addr=%#x len=%d", o.Addr, len(o.Data))
	}
	return fmt.Sprintf("%s%d addr=%#x value=%#x", o.Kind, o.Size*8, o.Addr, o.Value)
}

func (o Op) equal(other Op) bool {
	if o.Kind != other.Kind || o.Size != other.Size || o.Addr != other.Addr {
		return false
	}
	if o.Kind == AccessBurst {
		return bytes.Equal(o.Data, other.Data)
	}
	return o.Value == other.Value
}

// logSpace fronts the real address space during translated-block
// execution, recording every data access (spec.md §4.8 step 1:
// "execute the translated block, recording (op, addr, value) tuples").
type logSpace struct {
	real cpu.Memory
	ops  []Op
}

func newLogSpace(real cpu.Memory) *logSpace { return &logSpace{real: real} }

func (s *logSpace) ReadByte(addr uint32) uint32 {
	v := s.real.ReadByte(addr)
	s.ops = append(s.ops, Op{Kind: AccessRead, Size: 1, Addr: addr, Value: v})
	return v
}

func (s *logSpace) WriteByte(addr uint32, v uint32) {
	s.ops = append(s.ops, Op{Kind: AccessWrite, Size: 1, Addr: addr, Value: v})
	s.real.WriteByte(addr, v)
}

func (s *logSpace) ReadWord(addr uint32) uint32 {
	v := s.real.ReadWord(addr)
	s.ops = append(s.ops, Op{Kind: AccessRead, Size: 2, Addr: addr, Value: v})
	return v
}

func (s *logSpace) WriteWord(addr uint32, v uint32) {
	s.ops = append(s.ops, Op{Kind: AccessWrite, Size: 2, Addr: addr, Value: v})
	s.real.WriteWord(addr, v)
}

func (s *logSpace) ReadLong(addr uint32) uint32 {
	v := s.real.ReadLong(addr)
	s.ops = append(s.ops, Op{Kind: AccessRead, Size: 4, Addr: addr, Value: v})
	return v
}

func (s *logSpace) WriteLong(addr uint32, v uint32) {
	s.ops = append(s.ops, Op{Kind: AccessWrite, Size: 4, Addr: addr, Value: v})
	s.real.WriteLong(addr, v)
}

func (s *logSpace) WriteBurst(addr uint32, data []byte) {
	cp := append([]byte(nil), data...)
	s.ops = append(s.ops, Op{Kind: AccessBurst, Addr: addr, Data: cp})
	s.real.WriteBurst(addr, data)
}

func (s *logSpace) RAMPageBytes(addr uint32) []byte { return s.real.RAMPageBytes(addr) }

// Mismatch records the first point at which a check replay diverged
// from the translator's logged operations.
type Mismatch struct {
	Index  int
	Got    Op
	Want   Op
	Reason string
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("op[%d]: %s (interpreter got %s, translator logged %s)", m.Index, m.Reason, m.Got, m.Want)
}

// checkSpace fronts the real address space during the interpreter
// replay, verifying every access against the translator's log (spec.md
// §4.8 step 2: "replays tuples to the interpreter").
type checkSpace struct {
	real     cpu.Memory
	expected []Op
	idx      int
	mismatch *Mismatch
}

func newCheckSpace(real cpu.Memory, expected []Op) *checkSpace {
	return &checkSpace{real: real, expected: expected}
}

func (s *checkSpace) verify(got Op) {
	if s.mismatch != nil {
		return
	}
	if s.idx >= len(s.expected) {
		s.mismatch = &Mismatch{Index: s.idx, Got: got, Reason: "interpreter performed an access beyond the translator's logged operations"}
		return
	}
	want := s.expected[s.idx]
	s.idx++
	if !got.equal(want) {
		s.mismatch = &Mismatch{Index: s.idx - 1, Got: got, Want: want, Reason: "operation mismatch"}
	}
}

func (s *checkSpace) ReadByte(addr uint32) uint32 {
	v := s.real.ReadByte(addr)
	s.verify(Op{Kind: AccessRead, Size: 1, Addr: addr, Value: v})
	return v
}

func (s *checkSpace) WriteByte(addr uint32, v uint32) {
	s.verify(Op{Kind: AccessWrite, Size: 1, Addr: addr, Value: v})
	s.real.WriteByte(addr, v)
}

func (s *checkSpace) ReadWord(addr uint32) uint32 {
	v := s.real.ReadWord(addr)
	s.verify(Op{Kind: AccessRead, Size: 2, Addr: addr, Value: v})
	return v
}

func (s *checkSpace) WriteWord(addr uint32, v uint32) {
	s.verify(Op{Kind: AccessWrite, Size: 2, Addr: addr, Value: v})
	s.real.WriteWord(addr, v)
}

func (s *checkSpace) ReadLong(addr uint32) uint32 {
	v := s.real.ReadLong(addr)
	s.verify(Op{Kind: AccessRead, Size: 4, Addr: addr, Value: v})
	return v
}

func (s *checkSpace) WriteLong(addr uint32, v uint32) {
	s.verify(Op{Kind: AccessWrite, Size: 4, Addr: addr, Value: v})
	s.real.WriteLong(addr, v)
}

func (s *checkSpace) WriteBurst(addr uint32, data []byte) {
	s.verify(Op{Kind: AccessBurst, Addr: addr, Data: data})
	s.real.WriteBurst(addr, data)
}

func (s *checkSpace) RAMPageBytes(addr uint32) []byte { return s.real.RAMPageBytes(addr) }
