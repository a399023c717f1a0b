/*
sh4core INTC: sorted priority queue of pending interrupt sources
(spec.md §2 L2 "INTC", §4.4).

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
package intc

// Source identifies one of the SH4's interrupt sources. Its vector code
// is the INTEVT value listed for it in VectorCode, which is what
// the interpreter stores to INTEVT when it accepts the interrupt.
type Source int

const (
	SrcIRL0 Source = iota
	SrcIRL1
	SrcIRL2
	SrcIRL3
	SrcTMUTUNI0
	SrcTMUTUNI1
	SrcTMUTUNI2
	SrcTMUTICPI2
	SrcRTCATI
	SrcRTCPRI
	SrcRTCCUI
	SrcSCIERI
	SrcSCIRXI
	SrcSCITXI
	SrcSCITEI
	SrcSCIFERI
	SrcSCIFRXI
	SrcSCIFBRI
	SrcSCIFTXI
	SrcWDT
	SrcREF
	SrcDMTE0
	SrcDMTE1
	SrcDMTE2
	SrcDMTE3
	SrcNumSources
)

// VectorCode is the INTEVT value for each source; 0 means "not wired"
// for sources this core doesn't model (kept so the Source enum stays
// dense and future sources slot in cleanly).
var VectorCode = [SrcNumSources]uint16{
	SrcTMUTUNI0:  0x400,
	SrcTMUTUNI1:  0x420,
	SrcTMUTUNI2:  0x440,
	SrcTMUTICPI2: 0x460,
	SrcSCIFERI:   0x700,
	SrcSCIFRXI:   0x720,
	SrcSCIFBRI:   0x740,
	SrcSCIFTXI:   0x760,
	SrcDMTE0:     0x640,
	SrcDMTE1:     0x660,
	SrcDMTE2:     0x680,
	SrcDMTE3:     0x6A0,
}

type pending struct {
	Source   Source
	Priority uint8
}

// INTC holds the ascending-priority, ascending-source-id ordered queue
// of pending interrupts (tail = highest priority, matching spec.md
// §4.4's "pending[]" exactly: "ordered by ascending priority (tail =
// highest) and by ascending source-ID within priority").
type INTC struct {
	queue    []pending
	priority [SrcNumSources]uint8 // Programmed via IPRA/IPRB/IPRC.

	imask      uint8 // SR.IMASK snapshot.
	blockBit   bool  // SR.BL snapshot.
	intPending bool
}

func New() *INTC {
	return &INTC{}
}

func (q *INTC) insertionIndex(priority uint8, source Source) int {
	lo, hi := 0, len(q.queue)
	for lo < hi {
		mid := (lo + hi) / 2
		e := q.queue[mid]
		if e.Priority < priority || (e.Priority == priority && e.Source < source) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (q *INTC) isQueued(source Source) bool {
	for _, e := range q.queue {
		if e.Source == source {
			return true
		}
	}
	return false
}

// Raise implements spec.md §4.4 "raise(which)".
func (q *INTC) Raise(which Source) {
	pr := q.priority[which]
	if pr == 0 || q.isQueued(which) {
		return
	}
	idx := q.insertionIndex(pr, which)
	q.queue = append(q.queue, pending{})
	copy(q.queue[idx+1:], q.queue[idx:])
	q.queue[idx] = pending{Source: which, Priority: pr}
	if idx == len(q.queue)-1 {
		q.evaluate()
	}
}

// Clear implements spec.md §4.4 "clear(which)".
func (q *INTC) Clear(which Source) {
	for i, e := range q.queue {
		if e.Source == which {
			wasTail := i == len(q.queue)-1
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			if wasTail {
				q.evaluate()
			}
			return
		}
	}
}

// Accept implements spec.md §4.4 "accept()": returns the tail entry's
// source without popping it. Callers pop via Clear after vectoring.
func (q *INTC) Accept() (Source, bool) {
	if len(q.queue) == 0 {
		return 0, false
	}
	return q.queue[len(q.queue)-1].Source, true
}

// SetMask implements spec.md §4.4 "mask_changed()"; callers invoke this
// whenever SR, SR.IMASK or SR.BL changes.
func (q *INTC) SetMask(imask uint8, blockBit bool) {
	q.imask = imask
	q.blockBit = blockBit
	q.evaluate()
}

func (q *INTC) evaluate() {
	if len(q.queue) == 0 {
		q.intPending = false
		return
	}
	tail := q.queue[len(q.queue)-1]
	q.intPending = tail.Priority > q.imask && !q.blockBit
}

func (q *INTC) Pending() bool { return q.intPending }

// SetPriority programs a source's 4-bit priority nibble, as written
// through IPRA/IPRB/IPRC (spec.md §4.4 last paragraph).
func (q *INTC) SetPriority(which Source, priority uint8) {
	q.priority[which] = priority & 0xF
	// Re-evaluate: a source whose priority just dropped to 0 must be
	// dequeued (spec.md implies "masked" sources never queue).
	if priority == 0 {
		q.Clear(which)
	}
}

func (q *INTC) Priority(which Source) uint8 { return q.priority[which] }

// Snapshot/Restore support save_state/load_state (spec.md §6).
type Snapshot struct {
	Queue      []pending
	Priority   [SrcNumSources]uint8
	IMask      uint8
	BlockBit   bool
	IntPending bool
}

func (q *INTC) Save() Snapshot {
	cp := make([]pending, len(q.queue))
	copy(cp, q.queue)
	return Snapshot{Queue: cp, Priority: q.priority, IMask: q.imask, BlockBit: q.blockBit, IntPending: q.intPending}
}

func (q *INTC) Restore(s Snapshot) {
	q.queue = append([]pending(nil), s.Queue...)
	q.priority = s.Priority
	q.imask = s.IMask
	q.blockBit = s.BlockBit
	q.intPending = s.IntPending
}
