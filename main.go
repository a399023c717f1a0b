/*
 * sh4core - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	console "github.com/dcsh4/sh4core/command/console"
	config "github.com/dcsh4/sh4core/config/configparser"
	sh4config "github.com/dcsh4/sh4core/config/sh4config"
	core "github.com/dcsh4/sh4core/emu/core"
	master "github.com/dcsh4/sh4core/emu/master"
	logger "github.com/dcsh4/sh4core/util/logger"
	telnet "github.com/dcsh4/sh4core/telnet"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "sh4core.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optXlat := getopt.BoolLong("xlat", 'x', "Run through the block translator instead of the interpreter")
	optVerify := getopt.BoolLong("verify", 'v', "Shadow-verify every translated block against the interpreter")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	debug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &debug))
	slog.SetDefault(Logger)

	Logger.Info("sh4core started")

	if optConfig == nil || *optConfig == "" {
		Logger.Error("please specify a configuration file")
		os.Exit(1)
	}
	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		Logger.Error("configuration file not found", "path", *optConfig)
		os.Exit(1)
	}

	masterChannel := make(chan master.Packet, 16)
	machine := core.New(masterChannel)
	sh4config.SetMachine(machine)

	if err := config.LoadConfigFile(*optConfig); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	machine.SetUseXlat(*optXlat)
	machine.SetVerify(*optVerify)

	var scifServer *telnet.Server
	if sh4config.SCIFPort != 0 {
		var err error
		scifServer, err = telnet.Start(masterChannel, sh4config.SCIFPort)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		machine.AttachDevice(scifServer)
	}

	go machine.Start()
	masterChannel <- master.Packet{Msg: master.Start}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)

	input := liner.NewLiner()
	defer input.Close()
	input.SetCtrlCAborts(true)

	type consoleLine struct {
		text string
		quit bool
	}
	msg := make(chan consoleLine, 1)
	go func() {
		for {
			text, err := input.Prompt("sh4core> ")
			if err != nil {
				if !errors.Is(err, liner.ErrPromptAborted) {
					slog.Error("console: read error", "error", err)
				}
				msg <- consoleLine{quit: true}
				return
			}
			input.AppendHistory(text)
			msg <- consoleLine{text: text}
		}
	}()

loop:
	for {
		select {
		case <-sigChan:
			fmt.Println("Got quit signal")
			break loop
		case line := <-msg:
			if line.quit {
				break loop
			}
			out, err := console.Execute(strings.TrimSpace(line.text), machine)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if out != "" {
				fmt.Println(out)
			}
		}
	}

	Logger.Info("shutting down CPU")
	if scifServer != nil {
		scifServer.Stop()
	}
	machine.Stop()
	Logger.Info("sh4core stopped")
}
