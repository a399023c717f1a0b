/*
sh4core machine configuration: registers the RAM/ROM/SCIF/XLAT/VERIFY
config-file models against config/configparser, the way the teacher's
config/debugconfig registers its DEBUG model (spec.md §6 "map_region,
create_ram_region, load_rom, register_io_region" driven from a config
file instead of hardcoded call sites).

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
package sh4config

import (
	"errors"
	"os"
	"strconv"

	config "github.com/dcsh4/sh4core/config/configparser"
	"github.com/dcsh4/sh4core/emu/core"
)

// Machine is the instance config lines apply to. main sets this with
// SetMachine before calling config.LoadConfigFile, matching the
// teacher's pattern of registering config models against whatever
// global state they mutate (debugconfig reaches the running CPU
// through emu/sys_channel the same indirect way).
var Machine *core.Core

// SetMachine installs m and wires its on-chip peripherals' MMIO regions
// (emu/core.WireStandardPeripherals). Machine is nil during package
// init, when config models first register, so this is the earliest
// point those regions can be built.
func SetMachine(m *core.Core) {
	Machine = m
	m.WireStandardPeripherals()
}

func init() {
	config.RegisterModel("RAM", config.TypeOptions, createRAM)
	config.RegisterModel("ROM", config.TypeOptions, createROM)
	config.RegisterOption("SCIFPORT", createSCIFPort)
	config.RegisterSwitch("XLAT", func(uint32, string, []config.Option) error {
		Machine.SetUseXlat(true)
		return nil
	})
	config.RegisterSwitch("VERIFY", func(uint32, string, []config.Option) error {
		Machine.SetVerify(true)
		return nil
	})
}

func optionValue(options []config.Option, name string) (string, bool) {
	for _, opt := range options {
		if opt.Name == name {
			return opt.EqualOpt, true
		}
	}
	return "", false
}

func hexOption(options []config.Option, name string) (uint32, error) {
	v, ok := optionValue(options, name)
	if !ok {
		return 0, errors.New(name + " option required")
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, errors.New(name + " must be a hex number: " + v)
	}
	return uint32(n), nil
}

// createRAM handles config lines of the form "ram <base-hex> size=<hex>".
func createRAM(base uint32, _ string, options []config.Option) error {
	size, err := hexOption(options, "size")
	if err != nil {
		return err
	}
	Machine.CreateRAMRegion(base, size, "ram")
	return nil
}

// createROM handles config lines of the form
// "rom <base-hex> file=<path> crc=<hex>". crc is optional; when
// present the image is rejected if its checksum doesn't match.
func createROM(base uint32, _ string, options []config.Option) error {
	path, ok := optionValue(options, "file")
	if !ok {
		return errors.New("rom requires a file option")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var want uint32
	if crcStr, ok := optionValue(options, "crc"); ok {
		want, err = hexOption(options, "crc")
		if err != nil {
			return err
		}
		_ = crcStr
	}
	return Machine.LoadROM(data, base, want)
}

// createSCIFPort handles "scifport <decimal-port>", telling the
// telnet front end (wired in main) which TCP port feeds SCIF's RX
// FIFO; the port number itself lives outside the core since SCIF
// only knows about bytes, not sockets.
var SCIFPort int

func createSCIFPort(_ uint32, value string, _ []config.Option) error {
	p, err := strconv.Atoi(value)
	if err != nil {
		return errors.New("scifport requires a decimal port number: " + value)
	}
	SCIFPort = p
	return nil
}
