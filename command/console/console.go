/*
sh4core debug console: a line-oriented command dispatcher for the
interactive front end (SPEC_FULL.md §2 "Interactive console"), grounded on
the teacher's command/parser cmd-table-with-abbreviation-matching
pattern, narrowed to the handful of verbs a register/memory/breakpoint
console over an SH4 core needs.

Copyright 2024, Richard Cornwell

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dcsh4/sh4core/emu/core"
	"github.com/dcsh4/sh4core/emu/master"
	hexfmt "github.com/dcsh4/sh4core/util/hex"
)

type cmd struct {
	name    string
	min     int
	process func(*cmdLine, *core.Core) (string, error)
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{"break", 2, cmdBreak},
	{"clear", 2, cmdClear},
	{"continue", 1, cmdContinue},
	{"stop", 3, cmdStop},
	{"reg", 3, cmdReg},
	{"mem", 3, cmdMem},
	{"dump", 2, cmdDump},
}

// Execute parses and runs a single console command line against c,
// returning the text to print back to the user.
func Execute(commandLine string, c *core.Core) (string, error) {
	line := cmdLine{line: commandLine}
	word := line.getWord()
	if word == "" {
		return "", nil
	}

	var match *cmd
	for i := range cmdList {
		if cmdList[i].name == word {
			match = &cmdList[i]
			break
		}
	}
	if match == nil {
		var candidates []*cmd
		for i := range cmdList {
			if len(word) >= cmdList[i].min && strings.HasPrefix(cmdList[i].name, word) {
				candidates = append(candidates, &cmdList[i])
			}
		}
		if len(candidates) == 0 {
			return "", errors.New("command not found: " + word)
		}
		if len(candidates) > 1 {
			return "", errors.New("ambiguous command: " + word)
		}
		match = candidates[0]
	}

	return match.process(&line, c)
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && l.line[l.pos] == ' ' {
		l.pos++
	}
}

func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.line) && l.line[l.pos] != ' ' && l.line[l.pos] != '\n' && l.line[l.pos] != '\r' {
		l.pos++
	}
	return strings.ToLower(l.line[start:l.pos])
}

func cmdBreak(l *cmdLine, c *core.Core) (string, error) {
	word := l.getWord()
	addr, err := strconv.ParseUint(word, 16, 32)
	if err != nil {
		return "", fmt.Errorf("break requires a hex address: %q", word)
	}
	c.Master <- master.Packet{Msg: master.SetBreak, Addr: uint32(addr)}
	return fmt.Sprintf("breakpoint armed at %#x", addr), nil
}

func cmdClear(_ *cmdLine, c *core.Core) (string, error) {
	c.Master <- master.Packet{Msg: master.ClearBreak}
	return "breakpoint cleared", nil
}

func cmdContinue(_ *cmdLine, c *core.Core) (string, error) {
	c.Master <- master.Packet{Msg: master.Start}
	return "running", nil
}

func cmdStop(_ *cmdLine, c *core.Core) (string, error) {
	c.Master <- master.Packet{Msg: master.Stop}
	return "stopped", nil
}

func cmdReg(l *cmdLine, c *core.Core) (string, error) {
	name := l.getWord()
	if name == "" {
		r := &c.CPU.Regs
		var b strings.Builder
		fmt.Fprintf(&b, "PC=0x%08x SR=0x%08x PR=0x%08x GBR=0x%08x VBR=0x%08x\n", r.PC, r.SR, r.PR, r.GBR, r.VBR)
		for i := 0; i < 16; i += 4 {
			fmt.Fprintf(&b, "R%-2d=0x%08x R%-2d=0x%08x R%-2d=0x%08x R%-2d=0x%08x\n",
				i, r.R[i], i+1, r.R[i+1], i+2, r.R[i+2], i+3, r.R[i+3])
		}
		return b.String(), nil
	}

	idx, ok := registerIndex(name)
	value := l.getWord()
	if value == "" {
		if !ok {
			return "", errors.New("unknown register: " + name)
		}
		return fmt.Sprintf("%s=0x%08x", name, c.CPU.Regs.R[idx]), nil
	}

	v, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return "", fmt.Errorf("register value must be hex: %q", value)
	}
	if !ok {
		return "", errors.New("unknown register: " + name)
	}
	c.CPU.Regs.R[idx] = uint32(v)
	return fmt.Sprintf("%s=0x%08x", name, v), nil
}

func registerIndex(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'r' {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n > 15 {
		return 0, false
	}
	return n, true
}

func cmdMem(l *cmdLine, c *core.Core) (string, error) {
	addrStr := l.getWord()
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return "", fmt.Errorf("mem requires a hex address: %q", addrStr)
	}

	valueStr := l.getWord()
	if valueStr == "" {
		return fmt.Sprintf("0x%08x: 0x%08x", addr, c.Space.ReadLong(uint32(addr))), nil
	}

	v, err := strconv.ParseUint(valueStr, 16, 32)
	if err != nil {
		return "", fmt.Errorf("mem value must be hex: %q", valueStr)
	}
	c.Space.WriteLong(uint32(addr), uint32(v))
	return fmt.Sprintf("0x%08x: 0x%08x", addr, v), nil
}

// cmdDump prints a run of words starting at addr, eight per line, in
// the same fixed-width hex layout the teacher's listing dumps use.
func cmdDump(l *cmdLine, c *core.Core) (string, error) {
	addrStr := l.getWord()
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return "", fmt.Errorf("dump requires a hex address: %q", addrStr)
	}

	count := 16
	if countStr := l.getWord(); countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("dump count must be a positive decimal number: %q", countStr)
		}
		count = n
	}

	var b strings.Builder
	words := make([]uint32, 0, 8)
	for i := 0; i < count; i++ {
		words = append(words, c.Space.ReadLong(uint32(addr)+uint32(i*4)))
		if len(words) == 8 || i == count-1 {
			fmt.Fprintf(&b, "%#010x: ", uint32(addr)+uint32((i-len(words)+1)*4))
			hexfmt.FormatWord(&b, words)
			b.WriteByte('\n')
			words = words[:0]
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
