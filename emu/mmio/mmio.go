/*
sh4core MMIO region registry: page-indexed lookup of on-chip register
regions with per-port metadata (spec.md §2 L0 "MMIO registry", §3 "MMIO
region").

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
package mmio

import "log/slog"

// Port width and access flags (spec.md §3 "MMIO region").
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32

	FlagR   = 1 << 0 // Register is readable.
	FlagW   = 1 << 1 // Register is writable.
	FlagMem = 1 << 2 // Register backs a memory-like array, not a scalar.
)

const Undefined = 0xFFFFFFFF // Sentinel value for unprogrammed registers.

// Port describes one named register inside a Region.
type Port struct {
	Offset  uint32 // Byte offset within the 1KB region page.
	Width   int    // 8, 16 or 32.
	Flags   int    // FlagR | FlagW | FlagMem.
	Default uint32 // Reset value.
	Name    string
	Desc    string
}

// Region is one MMIO block: a base address, a backing 1KB page used as
// the register store, a port table, and read/write dispatch hooks.
// MAX_IO_REGIONS bounds how many Regions may be registered; the page
// map (emu/addrspace) distinguishes a RAM page pointer from an MMIO
// region by keeping region IDs numerically below this bound.
const MaxIORegions = 1 << 16

type ReadFunc func(r *Region, offset uint32, width int) uint32
type WriteFunc func(r *Region, offset uint32, width int, value uint32)

type Region struct {
	ID      int
	Base    uint32
	Name    string
	Ports   []Port
	Page    [1024]byte
	Read    ReadFunc
	Write   WriteFunc
}

// Registry is a page-indexed table of registered Regions.
type Registry struct {
	regions []*Region
	byBase  map[uint32]*Region
}

func NewRegistry() *Registry {
	return &Registry{byBase: make(map[uint32]*Region)}
}

// Register installs a region and assigns it an ID. Every port without
// FlagMem is initialised to its Default value in the
// backing page so a cold read before any write returns the documented
// reset value; unlisted registers read back Undefined via ReadPort.
func (reg *Registry) Register(r *Region) int {
	r.ID = len(reg.regions)
	reg.regions = append(reg.regions, r)
	reg.byBase[r.Base] = r
	for _, p := range r.Ports {
		if p.Flags&FlagMem != 0 {
			continue
		}
		putWidth(r.Page[:], p.Offset, p.Width, p.Default)
	}
	return r.ID
}

func (reg *Registry) Region(id int) *Region {
	if id < 0 || id >= len(reg.regions) {
		return nil
	}
	return reg.regions[id]
}

func (reg *Registry) ByBase(base uint32) *Region {
	return reg.byBase[base]
}

func (reg *Registry) Count() int { return len(reg.regions) }

// ReadPort dispatches a read of `width` bits at `offset` within region
// r, preferring the region's custom Read hook, falling back to a plain
// page load. Unknown offsets log a warning and return Undefined —
// spec.md §7 "Non-exception errors".
func ReadPort(r *Region, offset uint32, width int) uint32 {
	if r.Read != nil {
		return r.Read(r, offset, width)
	}
	if !portKnown(r, offset) {
		slog.Warn("mmio: read of undefined register", "region", r.Name, "offset", offset)
		return Undefined
	}
	return getWidth(r.Page[:], offset, width)
}

func WritePort(r *Region, offset uint32, width int, value uint32) {
	if r.Write != nil {
		r.Write(r, offset, width, value)
		return
	}
	if !portKnown(r, offset) {
		slog.Warn("mmio: write to undefined register", "region", r.Name, "offset", offset)
		return
	}
	putWidth(r.Page[:], offset, width, value)
}

func portKnown(r *Region, offset uint32) bool {
	for _, p := range r.Ports {
		if p.Offset == offset {
			return true
		}
	}
	return false
}

func getWidth(page []byte, offset uint32, width int) uint32 {
	switch width {
	case Width8:
		return uint32(page[offset])
	case Width16:
		return uint32(page[offset]) | uint32(page[offset+1])<<8
	default:
		return uint32(page[offset]) | uint32(page[offset+1])<<8 |
			uint32(page[offset+2])<<16 | uint32(page[offset+3])<<24
	}
}

func putWidth(page []byte, offset uint32, width int, value uint32) {
	page[offset] = byte(value)
	if width >= Width16 {
		page[offset+1] = byte(value >> 8)
	}
	if width >= Width32 {
		page[offset+2] = byte(value >> 16)
		page[offset+3] = byte(value >> 24)
	}
}
