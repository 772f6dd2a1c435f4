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

// Package client implements the counterpart of server: one Connected stream
// endpoint plus one Bound datagram endpoint, each read by its own goroutine
// straight into a shared inbox.
package client

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
	"github.com/sabouaram/enetkit/socket"
)

// Client owns the connected/bound endpoints and the two reader goroutines
// decoding them into its inbox.
type Client struct {
	mu sync.Mutex

	id uuid.UUID

	stream   *socket.Endpoint
	datagram *socket.Endpoint
	server   *socket.Endpoint // remote datagram address, for Send(datagram)

	reg *packet.Registry
	box *inbox.Inbox
	log logger.FuncLog

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New returns an uninitialized Client. Call Init before Start.
func New(reg *packet.Registry, box *inbox.Inbox, log logger.FuncLog) *Client {
	return &Client{id: uuid.New(), reg: reg, box: box, log: log}
}

// ID returns the client instance's correlation identifier, attached to its
// log entries so multiple Client instances in one process stay distinguishable.
func (c *Client) ID() string { return c.id.String() }

// Init dials the remote stream endpoint and binds a local datagram endpoint
// to an ephemeral port, matching the server's symmetric front door.
func (c *Client) Init(host string, port uint16) liberr.Error {
	stream := socket.New()
	if err := stream.Open(socket.Stream); err != nil {
		return err
	}
	if err := stream.Connect(host, port); err != nil {
		return err
	}

	datagram := socket.New()
	if err := datagram.Open(socket.Datagram); err != nil {
		return err
	}
	if err := datagram.Bind("0.0.0.0", 0); err != nil {
		return err
	}

	c.mu.Lock()
	c.stream = stream
	c.datagram = datagram
	c.server = socket.Remote(host, port)
	c.mu.Unlock()
	return nil
}

// Inbox returns the shared queue decoded packets land in.
func (c *Client) Inbox() *inbox.Inbox { return c.box }

// Registry returns the packet registry used to decode incoming frames.
func (c *Client) Registry() *packet.Registry { return c.reg }

// Running reports whether the reader loops are active.
func (c *Client) Running() bool { return c.running.Load() }

// Start launches the stream and datagram reader loops, and synthesizes the
// Connect packet signaling the stream is up.
func (c *Client) Start() liberr.Error {
	c.mu.Lock()
	if c.stream == nil || c.datagram == nil {
		c.mu.Unlock()
		return socket.ErrorParamEmpty.Error(fmt.Errorf("start: client has not been initialized"))
	}
	stream := c.stream
	c.mu.Unlock()

	if !c.running.CompareAndSwap(false, true) {
		return socket.ErrorClientRunning.Error(fmt.Errorf("start: client is already running"))
	}

	c.stopCh = make(chan struct{})
	c.wg.Add(2)
	go c.streamLoop()
	go c.datagramLoop()

	c.box.Push(packet.NewConnect(stream))
	return nil
}

// Stop signals both reader loops to exit and waits for them. Idempotent and
// safe to call after a server-initiated disconnect has already torn the
// client down: teardown only runs once, but Stop always joins both
// goroutines before returning.
func (c *Client) Stop() liberr.Error {
	c.teardown()
	c.wg.Wait()
	return nil
}

// teardown closes both endpoints exactly once, unblocking whichever of
// streamLoop/datagramLoop is parked in a blocking read so it can observe
// !running and exit. Safe to call from either reader goroutine or from an
// external Stop().
func (c *Client) teardown() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}

	close(c.stopCh)

	c.mu.Lock()
	stream, datagram := c.stream, c.datagram
	c.mu.Unlock()

	_ = stream.Close()
	_ = datagram.Close()
}

func (c *Client) streamLoop() {
	defer c.wg.Done()

	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	for {
		pkt, err := packet.DecodeStream(c.reg, stream)
		if err != nil {
			if !c.running.Load() {
				c.box.Push(packet.NewDisconnect(stream))
				return
			}
			if err.IsCode(socket.ErrorRecvFailed) || stream.State() == socket.Uninitialized {
				c.box.Push(packet.NewDisconnect(stream))
				c.teardown()
				return
			}
			metrics.PacketsDroppedTotal.WithLabelValues("stream").Inc()
			c.logWarn("dropping malformed packet from server", err)
			continue
		}
		if pkt == nil {
			c.box.Push(packet.NewDisconnect(stream))
			c.teardown()
			return
		}
		metrics.PacketsDecodedTotal.WithLabelValues("stream").Inc()
		c.box.Push(pkt)
	}
}

func (c *Client) datagramLoop() {
	defer c.wg.Done()

	c.mu.Lock()
	datagram := c.datagram
	c.mu.Unlock()

	buf := make([]byte, socket.MaxDatagram)
	for {
		n, src, err := datagram.RecvFrom(buf)
		if err != nil {
			if !c.running.Load() {
				return
			}
			c.logWarn("recvfrom failed", err)
			continue
		}

		pkt, errDec := packet.DecodePayload(c.reg, buf[:n], src)
		if errDec != nil {
			metrics.PacketsDroppedTotal.WithLabelValues("datagram").Inc()
			c.logWarn("dropping malformed datagram", errDec)
			continue
		}
		metrics.PacketsDecodedTotal.WithLabelValues("datagram").Inc()
		c.box.Push(pkt)
	}
}

// Send dispatches p over the stream endpoint, attributing this client's
// stream socket as its source.
func (c *Client) Send(p packet.Packet) liberr.Error {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()

	p.SetSource(stream)
	return p.Encode(nil)
}

// SendDatagram dispatches p over the datagram endpoint to the server's
// advertised datagram address.
func (c *Client) SendDatagram(p packet.Packet) liberr.Error {
	c.mu.Lock()
	datagram, server := c.datagram, c.server
	c.mu.Unlock()

	p.SetSource(datagram)
	return p.Encode(server)
}

func (c *Client) logWarn(message string, data interface{}) {
	if c.log == nil {
		return
	}
	if l := c.log(); l != nil {
		l.Warning(message, map[string]interface{}{"client": c.id.String(), "detail": data})
	}
}
