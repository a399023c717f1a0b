/*
sh4core MMU: ITLB(4)/UTLB(64) translation and store-queue address
resolution (spec.md §2 L1 "MMU", §4.3 "MMU-enabled path", §9 "Open
question: MMU translation path").

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
package mmu

const (
	NumITLB = 4
	NumUTLB = 64

	SizeMask1K  = 0
	SizeMask4K  = 1
	SizeMask64K = 2
	SizeMask1M  = 3
)

// pageBytes maps a SizeMask to its page size in bytes.
var pageBytes = [4]uint32{1024, 4096, 64 * 1024, 1024 * 1024}

// Entry is one ITLB/UTLB slot (spec.md §3 "ITLB/UTLB entry").
type Entry struct {
	VPN   uint32 // Virtual page number (already shifted).
	ASID  uint8
	PPN   uint32 // Physical page number (already shifted).
	Size  uint8  // One of SizeMask*.
	Valid bool
	User  bool // User-mode accessible.
	Write bool // Writable.
	Cache bool // Cacheable.
	Dirty bool
	Share bool // Shared between address spaces (ASID ignored on match).
	WrThrough bool
}

// Result codes from Translate, matching spec.md §7 addressing
// exceptions at the semantic level (the CPU layer maps these to actual
// EXC_* codes and picks the read/write TLB vector).
type Fault int

const (
	FaultNone Fault = iota
	FaultMiss
	FaultProtection
	FaultInitialWrite // First write to a non-dirty, cacheable page.
)

type MMU struct {
	itlb [NumITLB]Entry
	utlb [NumUTLB]Entry

	// CCR/MMUCR-derived state. AT enables P0/U0/P3 translation.
	AT        bool
	SV        bool // Single virtual mode (ASID ignored on all compares).
	StoreQEnb bool

	// Store queues: two banks of 8 uint32 each (spec.md §3, §4.3).
	StoreQueue [2][8]uint32
	QACR       [2]uint32

	lruUTLB int // Next UTLB victim for round-robin replacement.
	lruITLB int
}

func New() *MMU {
	return &MMU{}
}

func pageMask(size uint8) uint32 { return pageBytes[size] - 1 }

// LoadUTLB programs (or replaces) a UTLB entry; used by LDTLB and by
// load_state. Replacement is round-robin, matching the reference's
// "any of N ways" treatment (spec.md doesn't mandate LRU).
func (m *MMU) LoadUTLB(e Entry) int {
	idx := m.lruUTLB
	m.utlb[idx] = e
	m.lruUTLB = (m.lruUTLB + 1) % NumUTLB
	return idx
}

func (m *MMU) LoadITLB(e Entry) int {
	idx := m.lruITLB
	m.itlb[idx] = e
	m.lruITLB = (m.lruITLB + 1) % NumITLB
	return idx
}

func (m *MMU) UTLBEntries() []Entry { return m.utlb[:] }
func (m *MMU) ITLBEntries() []Entry { return m.itlb[:] }
func (m *MMU) SetUTLBEntries(e []Entry) { copy(m.utlb[:], e) }
func (m *MMU) SetITLBEntries(e []Entry) { copy(m.itlb[:], e) }

// Snapshot is the save-state record spec.md §6 names ("MMU state
// (cache page, ITLB, UTLB)").
type Snapshot struct {
	ITLB      [NumITLB]Entry
	UTLB      [NumUTLB]Entry
	AT        bool
	SV        bool
	StoreQEnb bool

	StoreQueue [2][8]uint32
	QACR       [2]uint32

	LRUUTLB int
	LRUITLB int
}

func (m *MMU) Save() Snapshot {
	return Snapshot{
		ITLB: m.itlb, UTLB: m.utlb,
		AT: m.AT, SV: m.SV, StoreQEnb: m.StoreQEnb,
		StoreQueue: m.StoreQueue, QACR: m.QACR,
		LRUUTLB: m.lruUTLB, LRUITLB: m.lruITLB,
	}
}

func (m *MMU) Restore(s Snapshot) {
	m.itlb, m.utlb = s.ITLB, s.UTLB
	m.AT, m.SV, m.StoreQEnb = s.AT, s.SV, s.StoreQEnb
	m.StoreQueue, m.QACR = s.StoreQueue, s.QACR
	m.lruUTLB, m.lruITLB = s.LRUUTLB, s.LRUITLB
}

func lookup(tlb []Entry, vaddr uint32, asid uint8, sv bool) (*Entry, uint32) {
	for i := range tlb {
		e := &tlb[i]
		if !e.Valid {
			continue
		}
		mask := pageMask(e.Size)
		if e.VPN&^mask != vaddr&^mask {
			continue
		}
		if !e.Share && !sv && e.ASID != asid {
			continue
		}
		phys := (e.PPN &^ mask) | (vaddr & mask)
		return e, phys
	}
	return nil, 0
}

// Translate resolves a virtual address to a physical one using the
// unified TLB (fetches use the instruction side in the CPU layer by
// calling TranslateFetch instead). forWrite selects the write-access
// protection check; user selects SR.MD == 0 (user mode).
func (m *MMU) Translate(vaddr uint32, asid uint8, user, forWrite bool) (uint32, Fault) {
	if !m.AT {
		return vaddr & 0x1FFFFFFF, FaultNone
	}
	e, phys := lookup(m.utlb[:], vaddr, asid, m.SV)
	if e == nil {
		return 0, FaultMiss
	}
	if user && !e.User {
		return 0, FaultProtection
	}
	if forWrite {
		if !e.Write {
			return 0, FaultProtection
		}
		if !e.Dirty {
			return 0, FaultInitialWrite
		}
	}
	return phys, FaultNone
}

// TranslateFetch is the instruction-side lookup through the smaller
// ITLB; spec.md doesn't separate the two beyond naming ITLB/UTLB sizes,
// so behaviour is identical to Translate minus the write checks.
func (m *MMU) TranslateFetch(vaddr uint32, asid uint8, user bool) (uint32, Fault) {
	if !m.AT {
		return vaddr & 0x1FFFFFFF, FaultNone
	}
	e, phys := lookup(m.itlb[:], vaddr, asid, m.SV)
	if e == nil {
		return 0, FaultMiss
	}
	if user && !e.User {
		return 0, FaultProtection
	}
	return phys, FaultNone
}

// MarkDirty sets the dirty bit on the UTLB entry covering vaddr, called
// when Translate reports FaultInitialWrite and before the caller
// translates the write again, per the SH7750 manual's
// first-write-sets-dirty behaviour (this is the "correct per the
// manual" resolution spec.md §9 asks for, since the reference's
// mmu.c left this path a stub).
func (m *MMU) MarkDirty(vaddr uint32, asid uint8) {
	e, _ := lookup(m.utlb[:], vaddr, asid, m.SV)
	if e != nil {
		e.Dirty = true
	}
}

// StoreQueueTarget computes the burst-write physical target for a PREF
// to the store-queue region (spec.md §4.3): QACR high bits OR'd with
// the low address bits, unless TLB translation supplies the address
// directly.
func (m *MMU) StoreQueueTarget(addr uint32, bank int, tlbPhys uint32, tlbHit bool) uint32 {
	if tlbHit {
		return tlbPhys &^ 0x1F
	}
	return (m.QACR[bank]&0x1C)<<24 | (addr & 0x03FFFFE0)
}
