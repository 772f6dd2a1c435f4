/*
 * MIT License
 *
 * Copyright (c) 2025 enetkit authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package server implements the accept/datagram front door of the core: one
// Listening stream endpoint fanning new clients out across selectors, and one
// Bound datagram endpoint decoding each incoming packet straight into the
// shared inbox.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/logger"
	"github.com/sabouaram/enetkit/metrics"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/selector"
	"github.com/sabouaram/enetkit/socket"
)

// Server owns the listening/bound endpoints and the pool of selectors it
// spreads accepted clients across.
type Server struct {
	mu sync.Mutex

	id uuid.UUID

	stream   *socket.Endpoint
	datagram *socket.Endpoint

	selectors []*selector.Selector

	reg *packet.Registry
	box *inbox.Inbox
	log logger.FuncLog

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New returns an uninitialized Server. Call Init before Start.
func New(reg *packet.Registry, box *inbox.Inbox, log logger.FuncLog) *Server {
	return &Server{id: uuid.New(), reg: reg, box: box, log: log}
}

// ID returns the server instance's correlation identifier, attached to its
// log entries so multiple Server instances in one process stay distinguishable.
func (s *Server) ID() string { return s.id.String() }

// Init opens and binds the stream (listening) and datagram (bound) front
// doors on host:port. The two transports are independent sockets: if port is
// 0, each picks its own ephemeral port - callers that care use StreamPort and
// DatagramPort rather than assuming they match.
func (s *Server) Init(host string, port uint16) liberr.Error {
	stream := socket.New()
	if err := stream.Open(socket.Stream); err != nil {
		return err
	}
	if err := stream.Bind(host, port); err != nil {
		return err
	}
	if err := stream.Listen(); err != nil {
		return err
	}

	datagram := socket.New()
	if err := datagram.Open(socket.Datagram); err != nil {
		return err
	}
	if err := datagram.Bind(host, port); err != nil {
		return err
	}

	s.mu.Lock()
	s.stream = stream
	s.datagram = datagram
	s.mu.Unlock()
	return nil
}

// StreamPort returns the TCP listening port.
func (s *Server) StreamPort() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.Port()
}

// DatagramPort returns the UDP bound port.
func (s *Server) DatagramPort() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datagram.Port()
}

// Inbox returns the shared queue decoded packets land in.
func (s *Server) Inbox() *inbox.Inbox { return s.box }

// Registry returns the packet registry used to decode incoming frames.
func (s *Server) Registry() *packet.Registry { return s.reg }

// Running reports whether the accept/datagram loops are active.
func (s *Server) Running() bool { return s.running.Load() }

// Start launches the accept and datagram read loops. Requires Init to have
// run first; returns ErrorServerRunning if already started.
func (s *Server) Start() liberr.Error {
	s.mu.Lock()
	if s.stream == nil || s.datagram == nil {
		s.mu.Unlock()
		return socket.ErrorParamEmpty.Error(fmt.Errorf("start: server has not been initialized"))
	}
	s.mu.Unlock()

	if !s.running.CompareAndSwap(false, true) {
		return socket.ErrorServerRunning.Error(fmt.Errorf("start: server is already running"))
	}

	s.stopCh = make(chan struct{})
	s.wg.Add(2)
	go s.acceptLoop()
	go s.datagramLoop()
	return nil
}

// Stop signals both read loops to exit (by closing their sockets, which
// unblocks their pending Accept/RecvFrom call), waits for them, then stops
// every selector still holding clients.
func (s *Server) Stop() liberr.Error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	close(s.stopCh)

	s.mu.Lock()
	stream, datagram := s.stream, s.datagram
	s.mu.Unlock()

	_ = stream.Close()
	_ = datagram.Close()
	s.wg.Wait()

	s.mu.Lock()
	sels := make([]*selector.Selector, len(s.selectors))
	copy(sels, s.selectors)
	s.selectors = nil
	s.mu.Unlock()

	for _, sel := range sels {
		_ = sel.Stop()
	}
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		stream := s.stream
		s.mu.Unlock()

		peer, err := stream.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.logWarn("accept failed", err)
			continue
		}
		s.addClient(peer)
	}
}

func (s *Server) datagramLoop() {
	defer s.wg.Done()

	buf := make([]byte, socket.MaxDatagram)
	for {
		s.mu.Lock()
		datagram := s.datagram
		s.mu.Unlock()

		n, src, err := datagram.RecvFrom(buf)
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.logWarn("recvfrom failed", err)
			continue
		}

		pkt, errDec := packet.DecodePayload(s.reg, buf[:n], src)
		if errDec != nil {
			metrics.PacketsDroppedTotal.WithLabelValues("datagram").Inc()
			s.logWarn("dropping malformed datagram", errDec)
			continue
		}
		metrics.PacketsDecodedTotal.WithLabelValues("datagram").Inc()
		s.box.Push(pkt)
	}
}

// addClient drops any selector that has both emptied out and stopped itself,
// then offers the new client to the remaining selectors in order; only when
// none has room does it spin up and start a fresh one.
func (s *Server) addClient(e *socket.Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.selectors[:0]
	for _, sel := range s.selectors {
		if sel.Size() == 0 && !sel.Running() {
			continue
		}
		live = append(live, sel)
	}
	s.selectors = live

	for _, sel := range s.selectors {
		if sel.AddClient(e) {
			return
		}
	}

	sel := selector.New(s.reg, s.box, s.log)
	sel.AddClient(e)
	_ = sel.Start()
	s.selectors = append(s.selectors, sel)
}

// Broadcast encodes and sends p to every client currently connected, across
// every selector.
func (s *Server) Broadcast(p packet.Packet) {
	s.mu.Lock()
	sels := make([]*selector.Selector, len(s.selectors))
	copy(sels, s.selectors)
	s.mu.Unlock()

	for _, sel := range sels {
		sel.Broadcast(p)
	}
}

func (s *Server) logWarn(message string, data interface{}) {
	if s.log == nil {
		return
	}
	if l := s.log(); l != nil {
		l.Warning(message, map[string]interface{}{"server": s.id.String(), "detail": data})
	}
}
