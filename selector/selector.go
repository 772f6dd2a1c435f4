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

// Package selector implements the single reader loop a Server fans its
// Connected stream clients out to once a selector fills up to
// socket.MaxClients. It stands in for the original implementation's
// select()-based reactor: instead of blocking on an fd set, the run loop
// round-robins its clients with a bounded per-client read deadline, so the
// whole pass over every client completes within one cancellation quantum.
package selector

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/logger"
	"github.com/sabouaram/enetkit/metrics"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/socket"
)

// pollQuantum bounds one full pass over every client; Stop() is noticed at
// the end of the pass currently in flight, so this is also the worst-case
// shutdown latency.
const pollQuantum = 100 * time.Millisecond

// Selector holds up to socket.MaxClients Connected stream endpoints and runs
// one goroutine that decodes framed packets off each of them in turn,
// pushing the result into a shared Inbox.
type Selector struct {
	mu      sync.Mutex
	clients []*socket.Endpoint

	reg *packet.Registry
	box *inbox.Inbox
	log logger.FuncLog

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New returns an idle Selector backed by reg for packet decoding and box for
// delivering decoded packets. log may be nil.
func New(reg *packet.Registry, box *inbox.Inbox, log logger.FuncLog) *Selector {
	return &Selector{reg: reg, box: box, log: log}
}

// Size returns the number of client endpoints currently held.
func (s *Selector) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Running reports whether the reader loop goroutine is active.
func (s *Selector) Running() bool {
	return s.running.Load()
}

func (s *Selector) String() string {
	return fmt.Sprintf("selector[size=%d running=%t]", s.Size(), s.Running())
}

// AddClient inserts e and synthesizes its Connect packet atomically under the
// client-list lock, so the reader loop can never observe e mid-disconnect
// before its Connect has even been queued. Returns false, with no error,
// when the selector is already at socket.MaxClients capacity - the caller
// (Server) is expected to open a new selector in that case.
func (s *Selector) AddClient(e *socket.Endpoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clients) >= socket.MaxClients {
		return false
	}

	s.clients = append(s.clients, e)
	s.box.Push(packet.NewConnect(e))
	metrics.ClientsConnected.Inc()
	return true
}

func (s *Selector) removeClient(e *socket.Endpoint) {
	s.mu.Lock()
	for i, c := range s.clients {
		if c == e {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			metrics.ClientsConnected.Dec()
			break
		}
	}
	s.mu.Unlock()
}

func (s *Selector) disconnect(e *socket.Endpoint) {
	s.removeClient(e)
	_ = e.Close()
	s.box.Push(packet.NewDisconnect(e))
}

func (s *Selector) logWarn(message string, data interface{}) {
	if s.log == nil {
		return
	}
	if l := s.log(); l != nil {
		l.Warning(message, data)
	}
}

// Start launches the reader loop goroutine. Returns ErrorSelectorRunning if
// already running.
func (s *Selector) Start() liberr.Error {
	if !s.running.CompareAndSwap(false, true) {
		return socket.ErrorSelectorRunning.Error(fmt.Errorf("start: selector is already running"))
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	metrics.SelectorsActive.Inc()
	go s.run()
	return nil
}

// Stop requests the reader loop to exit and waits for it to do so. Idempotent:
// calling Stop on a selector that isn't running is a no-op.
func (s *Selector) Stop() liberr.Error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh
	metrics.SelectorsActive.Dec()
	return nil
}

func (s *Selector) run() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.mu.Lock()
		clients := make([]*socket.Endpoint, len(s.clients))
		copy(clients, s.clients)
		s.mu.Unlock()

		if len(clients) == 0 {
			s.running.Store(false)
			return
		}

		perClient := pollQuantum / time.Duration(len(clients))
		if perClient < time.Millisecond {
			perClient = time.Millisecond
		}

		for _, c := range clients {
			s.pollOne(c, perClient)
		}
	}
}

func (s *Selector) pollOne(c *socket.Endpoint, timeout time.Duration) {
	_ = c.SetReadDeadline(time.Now().Add(timeout))

	pkt, err := packet.DecodeStream(s.reg, c)

	switch {
	case err != nil && err.IsCode(socket.ErrorRecvTimeout):
		return

	case err == nil && pkt == nil:
		s.disconnect(c)

	case err != nil && (err.IsCode(socket.ErrorRecvFailed) || err.IsCode(socket.ErrorSystem)):
		s.disconnect(c)

	case err != nil:
		if c.State() == socket.Uninitialized {
			metrics.PacketsDroppedTotal.WithLabelValues("stream").Inc()
			s.logWarn("client closed mid-frame", err)
			s.disconnect(c)
			return
		}
		metrics.PacketsDroppedTotal.WithLabelValues("stream").Inc()
		s.logWarn("dropping malformed packet from client", err)

	default:
		metrics.PacketsDecodedTotal.WithLabelValues("stream").Inc()
		s.box.Push(pkt)
	}
}

// Broadcast encodes and sends p to every client currently held.
func (s *Selector) Broadcast(p packet.Packet) {
	s.mu.Lock()
	clients := make([]*socket.Endpoint, len(s.clients))
	copy(clients, s.clients)
	s.mu.Unlock()

	for _, c := range clients {
		if err := p.Encode(c); err != nil {
			s.logWarn("broadcast send failed", err)
		}
	}
}
