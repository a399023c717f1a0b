/*
sh4core telnet: a single-line TCP front end for SCIF (SPEC_FULL.md §6
"telnet-attached serial line"), grounded on the teacher's
telnet/listener.go accept/shutdown goroutine pair, narrowed from the
teacher's multi-port unit-record multiplexer down to the one serial
line SCIF models.

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
package telnet

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dcsh4/sh4core/emu/master"
)

// Server fronts SCIF with one TCP port. At most one client is
// connected at a time, matching a physical serial cable: a second
// dial-in bumps the first.
type Server struct {
	wg       sync.WaitGroup
	listener net.Listener
	shutdown chan struct{}
	master   chan master.Packet
	port     int

	mu   sync.Mutex
	conn net.Conn
}

// Start opens the listening socket and begins accepting connections,
// delivering each inbound byte to master as a TelReceive packet.
func Start(masterChan chan master.Packet, port int) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("telnet: listen on port %d: %w", port, err)
	}

	s := &Server{
		listener: listener,
		shutdown: make(chan struct{}),
		master:   masterChan,
		port:     port,
	}

	s.wg.Add(1)
	go s.acceptConnections()

	slog.Info("telnet: SCIF listening", "port", port)
	return s, nil
}

// Stop closes the listener and any active connection, waiting up to a
// second for the accept loop to exit.
func (s *Server) Stop() {
	close(s.shutdown)
	s.listener.Close()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("telnet: stop timed out waiting for accept loop to exit")
	}
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				continue
			}
		}

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.conn = conn
		s.mu.Unlock()

		s.master <- master.Packet{Msg: master.TelConnect, Port: s.port, Conn: conn}
		go s.readLoop(conn)
	}
}

func (s *Server) readLoop(conn net.Conn) {
	buf := make([]byte, 1)
	for {
		n, err := conn.Read(buf)
		if n == 1 {
			s.master <- master.Packet{Msg: master.TelReceive, Port: s.port, Data: buf[0]}
		}
		if err != nil {
			break
		}
	}

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	s.master <- master.Packet{Msg: master.TelDisconnect, Port: s.port, Conn: conn}
}

// ReceiveData implements scif.Device, writing an SCIF-transmitted byte
// out to whichever client is currently connected. A byte transmitted
// with nobody listening is simply dropped, same as an unplugged cable.
func (s *Server) ReceiveData(b byte) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if _, err := conn.Write([]byte{b}); err != nil {
		slog.Warn("telnet: write to client failed", "error", err)
	}
}
