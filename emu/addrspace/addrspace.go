/*
sh4core Address space: 4KB page map over the 29-bit physical space, plus
the P0..P4 virtual region dispatch rules of spec.md §3/§4.3.

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
package addrspace

import (
	"log/slog"

	"github.com/dcsh4/sh4core/emu/mmio"
)

const (
	PageShift = 12
	PageSize  = 1 << PageShift // 4KB
	PhysBits  = 29
	PhysMask  = (1 << PhysBits) - 1
	PageCount = (1 << PhysBits) / PageSize // 131072 entries

	VideoAliasBase  = 0x04000000
	VideoAliasLimit = 0x05000000
	VideoAliasTarget = 0x05000000
)

// EntryKind is the tagged-sum redesign spec.md §9 calls for in place of
// the reference's pointer-stuffed page map: a page is exactly one of
// RAM, an MMIO region, or Unmapped. No numeric range trick is needed.
type EntryKind int

const (
	Unmapped EntryKind = iota
	RAMPage
	MMIORegion
)

type PageEntry struct {
	Kind   EntryKind
	RAM    []byte // len == PageSize, nil unless Kind == RAMPage.
	Region int     // mmio.Region ID, valid only when Kind == MMIORegion.
}

// Space is the physical page map plus the MMIO registry it dispatches
// into. One Space instance backs P1/P2/P3 and (through the MMU) the
// translated P0/U0/P3 accesses.
type Space struct {
	pages    [PageCount]PageEntry
	mmio     *mmio.Registry
	onUnmapped func(addr uint32, write bool)
}

func NewSpace(reg *mmio.Registry) *Space {
	return &Space{mmio: reg}
}

// SetUnmappedHook lets the CPU log/account for accesses that fall
// through to an Unmapped page (spec.md §7 "Non-exception errors").
func (s *Space) SetUnmappedHook(fn func(addr uint32, write bool)) {
	s.onUnmapped = fn
}

// MapRAM installs size bytes of host-backed RAM starting at physical
// base (must be page-aligned); equivalent to create_ram_region/
// map_region in spec.md §6.
func (s *Space) MapRAM(base, size uint32, backing []byte) {
	pages := (size + PageSize - 1) / PageSize
	for i := uint32(0); i < pages; i++ {
		pg := (base>>PageShift + i) % PageCount
		lo := i * PageSize
		hi := lo + PageSize
		if int(hi) > len(backing) {
			hi = uint32(len(backing))
		}
		buf := make([]byte, PageSize)
		copy(buf, backing[lo:hi])
		s.pages[pg] = PageEntry{Kind: RAMPage, RAM: buf}
	}
}

// MapMMIO installs an MMIO region's ID across the pages it spans.
func (s *Space) MapMMIO(base, size uint32, regionID int) {
	pages := (size + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	for i := uint32(0); i < pages; i++ {
		pg := (base>>PageShift + i) % PageCount
		s.pages[pg] = PageEntry{Kind: MMIORegion, Region: regionID}
	}
}

func (s *Space) pageOf(physAddr uint32) *PageEntry {
	idx := (physAddr & PhysMask) >> PageShift
	return &s.pages[idx]
}

// TranslateVideoAlias implements spec.md §3's 64-bit video-memory
// window and §8's universally-quantified alias property.
func TranslateVideoAlias(a uint32) uint32 {
	return ((a & 0x00FFFFF8) >> 1) | ((a & 4) << 20) | (a & 3) | VideoAliasTarget
}

func inVideoAlias(a uint32) bool {
	return a >= VideoAliasBase && a < VideoAliasLimit
}

// ReadLong/WriteLong/ReadWord/.../ReadByte operate on a *physical*
// address already resolved by the caller (P1/P2/P3 direct, or the MMU
// for translated P0/U0/P3 accesses). Each accessor applies the video
// alias redirect itself; store-queue interception happens one layer up,
// in emu/cpu, because it needs the MMU/store-queue state this package
// doesn't own.

func (s *Space) ReadByte(physAddr uint32) uint32 {
	if inVideoAlias(physAddr) {
		physAddr = TranslateVideoAlias(physAddr)
	}
	pg := s.pageOf(physAddr)
	off := physAddr & (PageSize - 1)
	switch pg.Kind {
	case RAMPage:
		return uint32(pg.RAM[off])
	case MMIORegion:
		r := s.mmio.Region(pg.Region)
		return mmio.ReadPort(r, off, mmio.Width8)
	default:
		s.unmapped(physAddr, false)
		return 0
	}
}

func (s *Space) WriteByte(physAddr uint32, v uint32) {
	if inVideoAlias(physAddr) {
		physAddr = TranslateVideoAlias(physAddr)
	}
	pg := s.pageOf(physAddr)
	off := physAddr & (PageSize - 1)
	switch pg.Kind {
	case RAMPage:
		pg.RAM[off] = byte(v)
	case MMIORegion:
		r := s.mmio.Region(pg.Region)
		mmio.WritePort(r, off, mmio.Width8, v)
	default:
		s.unmapped(physAddr, true)
	}
}

func (s *Space) ReadWord(physAddr uint32) uint32 {
	if inVideoAlias(physAddr) {
		physAddr = TranslateVideoAlias(physAddr)
	}
	pg := s.pageOf(physAddr)
	off := physAddr & (PageSize - 1)
	switch pg.Kind {
	case RAMPage:
		return uint32(pg.RAM[off]) | uint32(pg.RAM[off+1])<<8
	case MMIORegion:
		r := s.mmio.Region(pg.Region)
		return mmio.ReadPort(r, off, mmio.Width16)
	default:
		s.unmapped(physAddr, false)
		return 0
	}
}

func (s *Space) WriteWord(physAddr uint32, v uint32) {
	if inVideoAlias(physAddr) {
		physAddr = TranslateVideoAlias(physAddr)
	}
	pg := s.pageOf(physAddr)
	off := physAddr & (PageSize - 1)
	switch pg.Kind {
	case RAMPage:
		pg.RAM[off] = byte(v)
		pg.RAM[off+1] = byte(v >> 8)
	case MMIORegion:
		r := s.mmio.Region(pg.Region)
		mmio.WritePort(r, off, mmio.Width16, v)
	default:
		s.unmapped(physAddr, true)
	}
}

func (s *Space) ReadLong(physAddr uint32) uint32 {
	if inVideoAlias(physAddr) {
		physAddr = TranslateVideoAlias(physAddr)
	}
	pg := s.pageOf(physAddr)
	off := physAddr & (PageSize - 1)
	switch pg.Kind {
	case RAMPage:
		return uint32(pg.RAM[off]) | uint32(pg.RAM[off+1])<<8 |
			uint32(pg.RAM[off+2])<<16 | uint32(pg.RAM[off+3])<<24
	case MMIORegion:
		r := s.mmio.Region(pg.Region)
		return mmio.ReadPort(r, off, mmio.Width32)
	default:
		s.unmapped(physAddr, false)
		return 0
	}
}

func (s *Space) WriteLong(physAddr, v uint32) {
	if inVideoAlias(physAddr) {
		physAddr = TranslateVideoAlias(physAddr)
	}
	pg := s.pageOf(physAddr)
	off := physAddr & (PageSize - 1)
	switch pg.Kind {
	case RAMPage:
		pg.RAM[off] = byte(v)
		pg.RAM[off+1] = byte(v >> 8)
		pg.RAM[off+2] = byte(v >> 16)
		pg.RAM[off+3] = byte(v >> 24)
	case MMIORegion:
		r := s.mmio.Region(pg.Region)
		mmio.WritePort(r, off, mmio.Width32, v)
	default:
		s.unmapped(physAddr, true)
	}
}

// WriteBurst writes a run of bytes starting at physAddr, used by the
// store-queue flush and cache writeback paths (spec.md §4.3).
func (s *Space) WriteBurst(physAddr uint32, data []byte) {
	for i, b := range data {
		s.WriteByte(physAddr+uint32(i), uint32(b))
	}
}

// RAMPageBytes returns the backing slice for the page containing addr,
// or nil if that page isn't RAM-backed. Used by the instruction-cache
// fastpath (spec.md §4.1) to cache a page pointer across fetches.
func (s *Space) RAMPageBytes(physAddr uint32) []byte {
	pg := s.pageOf(physAddr)
	if pg.Kind != RAMPage {
		return nil
	}
	return pg.RAM
}

func (s *Space) unmapped(addr uint32, write bool) {
	if s.onUnmapped != nil {
		s.onUnmapped(addr, write)
		return
	}
	kind := "read"
	if write {
		kind = "write"
	}
	slog.Warn("addrspace: access to unmapped page", "addr", addr, "kind", kind)
}
