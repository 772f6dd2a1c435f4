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

package socket

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/sabouaram/enetkit/errors"
)

var handleSeq uint64

func nextHandle() uint64 {
	return atomic.AddUint64(&handleSeq, 1)
}

// Endpoint is a protocol-typed network handle tracking the
// Uninitialized -> Initialized -> Bound -> Listening/Connected state machine.
// Its identity (Handle) is a process-local sequence number, standing in for
// the OS file descriptor the original implementation keyed packets on: a
// monotonic counter is cheaper to carry around than stashing raw fds and is
// just as stable for the lifetime of the endpoint.
type Endpoint struct {
	mu sync.Mutex

	handle   uint64
	protocol Protocol
	state    State
	host     string
	port     uint16

	conn     net.Conn
	listener net.Listener
	pconn    net.PacketConn
	addr     net.Addr
}

// New returns an Endpoint in the Uninitialized state.
func New() *Endpoint {
	return &Endpoint{handle: nextHandle()}
}

// Remote returns an Uninitialized Datagram endpoint carrying host:port with
// no backing OS socket - just enough identity to be used as a SendTo
// destination, for a peer address learned out of band (e.g. a server's
// advertised port) rather than from a RecvFrom call.
func Remote(host string, port uint16) *Endpoint {
	e := New()
	e.protocol = Datagram
	e.host = host
	e.port = port
	return e
}

// Handle returns the process-local identity of the endpoint.
func (e *Endpoint) Handle() uint64 {
	if e == nil {
		return 0
	}
	return e.handle
}

// Host returns the dotted-quad address the endpoint is bound/connected to.
func (e *Endpoint) Host() string {
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host
}

// Port returns the local or peer port associated with the endpoint.
func (e *Endpoint) Port() uint16 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.port
}

// Protocol returns the transport kind the endpoint was opened with.
func (e *Endpoint) Protocol() Protocol {
	if e == nil {
		return ProtocolUndefined
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.protocol
}

// State returns the current lifecycle state.
func (e *Endpoint) State() State {
	if e == nil {
		return Uninitialized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Endpoint) String() string {
	return fmt.Sprintf("%s://%s:%d[%s]", e.Protocol(), e.Host(), e.Port(), e.State())
}

func stateErr(fn string, have State) liberr.Error {
	return ErrorState.Error(fmt.Errorf("%s: invalid in state %s", fn, have))
}

// Open acquires the endpoint for the given protocol. Requires Uninitialized.
func (e *Endpoint) Open(protocol Protocol) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Uninitialized {
		return stateErr("open", e.state)
	}
	if protocol != Stream && protocol != Datagram {
		return ErrorParamEmpty.Error(fmt.Errorf("open: protocol must be Stream or Datagram"))
	}

	e.protocol = protocol
	e.state = Initialized
	return nil
}

func dottedQuad(host string, port uint16) (string, liberr.Error) {
	if host == "" {
		host = "0.0.0.0"
	}
	if net.ParseIP(host) == nil {
		return "", ErrorSystem.Error(fmt.Errorf("bind: %q is not a dotted-quad address", host))
	}
	return net.JoinHostPort(host, strconv.Itoa(int(port))), nil
}

// Bind reserves the local address. For Datagram protocols the OS socket is
// opened immediately (UDP has no separate listen step); for Stream protocols
// the OS listen happens later, in Listen.
func (e *Endpoint) Bind(host string, port uint16) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Initialized {
		return stateErr("bind", e.state)
	}

	addr, err := dottedQuad(host, port)
	if err != nil {
		return err
	}

	if e.protocol == Datagram {
		pc, errListen := listenConfig.ListenPacket(context.Background(), "udp", addr)
		if errListen != nil {
			return ErrorBindFailed.Error(errListen)
		}
		e.pconn = pc
		if udpAddr, ok := pc.LocalAddr().(*net.UDPAddr); ok {
			e.host = udpAddr.IP.String()
			e.port = uint16(udpAddr.Port)
		}
	} else {
		e.host = host
		e.port = port
	}

	e.state = Bound
	return nil
}

// Listen transitions a bound Stream endpoint to Listening, opening the OS listener.
func (e *Endpoint) Listen() liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Bound {
		return stateErr("listen", e.state)
	}
	if e.protocol != Stream {
		return ErrorProtocolMismatch.Error(fmt.Errorf("listen: requires Stream protocol"))
	}

	addr := net.JoinHostPort(e.host, strconv.Itoa(int(e.port)))
	l, err := listenConfig.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return ErrorListenFailed.Error(err)
	}

	if tcpAddr, ok := l.Addr().(*net.TCPAddr); ok {
		e.port = uint16(tcpAddr.Port)
	}

	e.listener = l
	e.state = Listening
	return nil
}

// Accept blocks for the next incoming stream connection, requires Listening.
func (e *Endpoint) Accept() (*Endpoint, liberr.Error) {
	e.mu.Lock()
	if e.state != Listening {
		st := e.state
		e.mu.Unlock()
		return nil, stateErr("accept", st)
	}
	l := e.listener
	e.mu.Unlock()

	c, err := l.Accept()
	if err != nil {
		return nil, ErrorAcceptFailed.Error(err)
	}

	peer := New()
	peer.protocol = Stream
	peer.state = Connected
	peer.conn = c
	if tcpAddr, ok := c.RemoteAddr().(*net.TCPAddr); ok {
		peer.host = tcpAddr.IP.String()
		peer.port = uint16(tcpAddr.Port)
	}

	return peer, nil
}

// Connect dials a remote stream peer, requires Initialized.
func (e *Endpoint) Connect(host string, port uint16) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Initialized {
		return stateErr("connect", e.state)
	}
	if e.protocol != Stream {
		return ErrorProtocolMismatch.Error(fmt.Errorf("connect: requires Stream protocol"))
	}

	addr, err := dottedQuad(host, port)
	if err != nil {
		return err
	}

	c, errDial := net.Dial("tcp", addr)
	if errDial != nil {
		return ErrorConnectFailed.Error(errDial)
	}

	e.conn = c
	e.host = host
	e.port = port
	e.state = Connected
	return nil
}

// SetReadDeadline bounds the next Recv/RecvFrom call, letting a single-thread
// reactor (Selector) poll several endpoints in round-robin instead of
// blocking forever on one. A zero time.Time clears the deadline.
func (e *Endpoint) SetReadDeadline(t time.Time) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.conn != nil:
		if err := e.conn.SetReadDeadline(t); err != nil {
			return ErrorSystem.Error(err)
		}
	case e.pconn != nil:
		if err := e.pconn.SetReadDeadline(t); err != nil {
			return ErrorSystem.Error(err)
		}
	default:
		return stateErr("setreaddeadline", e.state)
	}
	return nil
}

// Recv blocks for the next chunk of stream data. A zero-length read means the
// peer closed; the endpoint auto-transitions to Uninitialized in that case.
// A deadline set via SetReadDeadline elapsing with no data yields
// ErrorRecvTimeout without closing the endpoint.
func (e *Endpoint) Recv(buf []byte) (int, liberr.Error) {
	e.mu.Lock()
	if e.state != Connected || e.protocol != Stream {
		st := e.state
		e.mu.Unlock()
		return 0, stateErr("recv", st)
	}
	c := e.conn
	e.mu.Unlock()

	n, err := c.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, ErrorRecvTimeout.Error(err)
		}
		e.mu.Lock()
		_ = e.closeLocked()
		e.mu.Unlock()
		if err == io.EOF {
			return 0, nil
		}
		return 0, ErrorRecvFailed.Error(err)
	}
	if n == 0 {
		e.mu.Lock()
		_ = e.closeLocked()
		e.mu.Unlock()
		return 0, nil
	}

	return n, nil
}

// RecvFrom blocks for the next datagram, requires Bound && Datagram. The
// returned source endpoint is a fresh, Uninitialized handle carrying the
// sender's address, suitable as a SendTo destination or a packet's source.
func (e *Endpoint) RecvFrom(buf []byte) (int, *Endpoint, liberr.Error) {
	e.mu.Lock()
	if e.state != Bound || e.protocol != Datagram {
		st := e.state
		e.mu.Unlock()
		return 0, nil, stateErr("recvfrom", st)
	}
	pc := e.pconn
	e.mu.Unlock()

	n, addr, err := pc.ReadFrom(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil, ErrorRecvTimeout.Error(err)
		}
		return 0, nil, ErrorRecvFailed.Error(err)
	}

	src := New()
	src.protocol = Datagram
	src.state = Uninitialized
	src.addr = addr
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		src.host = udpAddr.IP.String()
		src.port = uint16(udpAddr.Port)
	}

	return n, src, nil
}

// Send writes to the connected peer, requires Connected && Stream.
func (e *Endpoint) Send(buf []byte) (int, liberr.Error) {
	e.mu.Lock()
	if e.state != Connected || e.protocol != Stream {
		st := e.state
		e.mu.Unlock()
		return 0, stateErr("send", st)
	}
	c := e.conn
	e.mu.Unlock()

	n, err := c.Write(buf)
	if err != nil {
		return n, ErrorSendFailed.Error(err)
	}
	return n, nil
}

// SendTo writes one datagram to dst, requires Bound && Datagram && dst != nil.
func (e *Endpoint) SendTo(buf []byte, dst *Endpoint) (int, liberr.Error) {
	e.mu.Lock()
	if e.state != Bound || e.protocol != Datagram {
		st := e.state
		e.mu.Unlock()
		return 0, stateErr("sendto", st)
	}
	pc := e.pconn
	e.mu.Unlock()

	if dst == nil {
		return 0, ErrorParamEmpty.Error(fmt.Errorf("sendto: dst is nil"))
	}

	addr := dst.netAddr()
	if addr == nil {
		return 0, ErrorParamEmpty.Error(fmt.Errorf("sendto: dst has no resolvable address"))
	}

	n, err := pc.WriteTo(buf, addr)
	if err != nil {
		return n, ErrorSendFailed.Error(err)
	}
	return n, nil
}

func (e *Endpoint) netAddr() net.Addr {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.addr != nil {
		return e.addr
	}
	if e.host == "" {
		return nil
	}
	return &net.UDPAddr{IP: net.ParseIP(e.host), Port: int(e.port)}
}

// Shutdown disables the requested half (or both) of a stream connection's transport.
func (e *Endpoint) Shutdown(service Service) liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Uninitialized {
		return stateErr("shutdown", e.state)
	}

	tcp, ok := e.conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	var err error
	switch service {
	case ServiceReceive:
		err = tcp.CloseRead()
	case ServiceSend:
		err = tcp.CloseWrite()
	default:
		err = tcp.CloseRead()
		if errW := tcp.CloseWrite(); err == nil {
			err = errW
		}
	}

	if err != nil {
		return ErrorShutdownFailed.Error(err)
	}
	return nil
}

// Close releases the OS resources held by the endpoint and transitions to Uninitialized.
func (e *Endpoint) Close() liberr.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked()
}

func (e *Endpoint) closeLocked() liberr.Error {
	if e.state == Uninitialized {
		return stateErr("close", e.state)
	}

	var err error
	if e.conn != nil {
		err = e.conn.Close()
		e.conn = nil
	}
	if e.listener != nil {
		if errL := e.listener.Close(); err == nil {
			err = errL
		}
		e.listener = nil
	}
	if e.pconn != nil {
		if errP := e.pconn.Close(); err == nil {
			err = errP
		}
		e.pconn = nil
	}

	e.state = Uninitialized

	if err != nil {
		return ErrorCloseFailed.Error(err)
	}
	return nil
}
