/*
sh4core Master packet definitions, carried between the single-threaded
CPU core and the goroutines that front host I/O (telnet, wall-clock
ticker, debug console) — see SPEC_FULL.md §5.

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
package master

import "net"

// Msg identifies the kind of packet sent across the master channel.
type Msg int

const (
	TelConnect    Msg = iota // A telnet client connected to a SCIF port.
	TelDisconnect            // A telnet client disconnected.
	TelReceive                // Inbound byte(s) from a telnet client.
	TimeClock                // Wall-clock pulse, advances TMU/SCIF pacing.
	Start                     // Resume CPU execution.
	Stop                      // Suspend CPU execution.
	SetBreak                  // Arm a breakpoint.
	ClearBreak                // Disarm a breakpoint.
)

// Packet is the single envelope type exchanged with the core.
type Packet struct {
	Msg  Msg
	Port int    // Telnet port, for TelConnect/TelDisconnect/TelReceive.
	Data byte   // Inbound byte, for TelReceive.
	Addr uint32 // Breakpoint target, for SetBreak/ClearBreak.
	Conn net.Conn
}
