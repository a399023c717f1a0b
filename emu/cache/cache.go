/*
sh4core Cache model: instruction-cache and operand-cache tag arrays
plus the ORAM remap window (spec.md §2 L1 "Cache model", §4.3 "Cache
direct access", "ORAM mapping"). Per spec.md §1 non-goals the cache is
modelled as tags+ORAM only — it never actually serves data to normal
loads/stores, it only backs the P4 direct-access and store-queue
writeback paths and the CCR-programmable operand RAM window.

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
package cache

const (
	NumICLines = 256 // 8K direct-mapped IC / 32 bytes per line.
	NumOCLines = 512 // 16K direct-mapped OC / 32 bytes per line.
	LineSize   = 32

	// CCR bit positions relevant to ORAM remap (spec.md §4.3).
	CCROCE = 1 << 0 // Operand cache enable.
	CCRORA = 1 << 5 // Operand RAM mode (expose part of OC as RAM).
	CCROIX = 1 << 7 // Index mode for the ORAM window.

	ORAMBase = 0x7C000000
	ORAMSize = 64 * 1024 * 1024
	ORAMDataSize = 8 * 1024
)

// Line is one cache tag-array entry. Only tags + dirty state are
// modelled; there is no backing data array for normal cache lines
// (spec.md non-goal), only for the OC data bytes exposed to ORAM and
// to P4 direct data access.
type Line struct {
	Tag   uint32
	Valid bool
	Dirty bool // OC only.
}

type Cache struct {
	IC [NumICLines]Line
	OC [NumOCLines]Line

	// OC data array: the only "real" cache bytes this model keeps,
	// because they're addressable via P4 direct access and via the
	// ORAM window.
	OCData [NumOCLines * LineSize]byte

	CCR uint32
}

func New() *Cache {
	return &Cache{}
}

// Snapshot is the save-state record spec.md §6 names ("MMU state
// (cache page, ITLB, UTLB)").
type Snapshot struct {
	IC     [NumICLines]Line
	OC     [NumOCLines]Line
	OCData [NumOCLines * LineSize]byte
	CCR    uint32
}

func (c *Cache) Save() Snapshot {
	return Snapshot{IC: c.IC, OC: c.OC, OCData: c.OCData, CCR: c.CCR}
}

func (c *Cache) Restore(s Snapshot) {
	c.IC, c.OC, c.OCData, c.CCR = s.IC, s.OC, s.OCData, s.CCR
}

func icIndex(addr uint32) uint32 { return (addr / LineSize) % NumICLines }
func ocIndex(addr uint32) uint32 { return (addr / LineSize) % NumOCLines }

// ICLookup returns the tag line for addr without mutating state
// (read-only probe used by the P4 IC address-array access).
func (c *Cache) ICLookup(addr uint32) *Line { return &c.IC[icIndex(addr)] }
func (c *Cache) OCLookup(addr uint32) *Line { return &c.OC[ocIndex(addr)] }

// ICAddressWrite implements a P4 0xF0 region write: programs a tag and
// validity directly (spec.md §4.3 "Cache direct access").
func (c *Cache) ICAddressWrite(addr, tag uint32, valid bool) {
	l := &c.IC[icIndex(addr)]
	l.Tag = tag
	l.Valid = valid
}

// OCAddressWrite implements a P4 0xF4 region write. If the line being
// replaced is valid+dirty, writeback is triggered through wb, matching
// spec.md's "OC address-write triggers a writeback if the line is
// valid+dirty" rule. wb receives the physical target address and the
// LineSize bytes of the evicted line.
func (c *Cache) OCAddressWrite(addr, tag uint32, valid, dirty bool, wb func(target uint32, data []byte)) {
	idx := ocIndex(addr)
	l := &c.OC[idx]
	if l.Valid && l.Dirty && wb != nil {
		target := (l.Tag << 12) | (addr &^ (LineSize - 1) & 0xFFF)
		wb(target, c.OCData[idx*LineSize:idx*LineSize+LineSize])
	}
	l.Tag = tag
	l.Valid = valid
	l.Dirty = dirty
}

// OCDataWrite/OCDataRead implement the P4 0xF5 direct data-array
// access.
func (c *Cache) OCDataWrite(addr uint32, b byte) {
	idx := ocIndex(addr)*LineSize + (addr & (LineSize - 1))
	c.OCData[idx] = b
	c.OC[ocIndex(addr)].Dirty = true
}

func (c *Cache) OCDataRead(addr uint32) byte {
	idx := ocIndex(addr)*LineSize + (addr & (LineSize - 1))
	return c.OCData[idx]
}

// ORAMLayout selects how the 64MB window starting at 0x7C000000 maps
// onto the OC data array, per CCR.{ORA,OIX,OCE} (spec.md §4.3).
type ORAMLayout int

const (
	ORAMDisabled ORAMLayout = iota
	ORAMModeNormal
	ORAMModeIndexed
)

func (c *Cache) ORAMLayoutMode() ORAMLayout {
	if c.CCR&CCROCE == 0 || c.CCR&CCRORA == 0 {
		return ORAMDisabled
	}
	if c.CCR&CCROIX != 0 {
		return ORAMModeIndexed
	}
	return ORAMModeNormal
}

// ORAMRead/ORAMWrite translate an address inside the 64MB ORAM window
// into an offset within OCData, respecting the current layout mode.
// Addresses outside the exposed 8KB (or when disabled) read as zero /
// discard the write, since the window is otherwise just cache lines
// that aren't backed by real RAM in this tags-only model.
func (c *Cache) ORAMOffset(addr uint32) (int, bool) {
	if c.ORAMLayoutMode() == ORAMDisabled {
		return 0, false
	}
	off := int(addr-ORAMBase) % ORAMDataSize
	return off, true
}

func (c *Cache) ORAMRead(addr uint32) byte {
	off, ok := c.ORAMOffset(addr)
	if !ok {
		return 0
	}
	return c.OCData[off]
}

func (c *Cache) ORAMWrite(addr uint32, v byte) {
	off, ok := c.ORAMOffset(addr)
	if !ok {
		return
	}
	c.OCData[off] = v
}

// InvalidatePage clears any IC/OC lines whose tag maps into the 4KB
// page containing addr — used by flush_page for self-modifying code
// (spec.md §4.2 "Retirement").
func (c *Cache) InvalidatePage(pageBase uint32) {
	pageTag := pageBase >> 12
	for i := range c.IC {
		if c.IC[i].Tag == pageTag {
			c.IC[i].Valid = false
		}
	}
}
