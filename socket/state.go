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

// State is the endpoint lifecycle position. The zero value, Uninitialized,
// is the only state from which Open is valid and the only state close() fails from.
type State uint8

const (
	Uninitialized State = iota
	Initialized
	Bound
	Listening
	Connected
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Bound:
		return "bound"
	case Listening:
		return "listening"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Protocol is the transport kind an endpoint was opened with.
type Protocol uint8

const (
	ProtocolUndefined Protocol = iota
	Stream
	Datagram
)

func (p Protocol) String() string {
	switch p {
	case Stream:
		return "stream"
	case Datagram:
		return "datagram"
	default:
		return "undefined"
	}
}

// Service selects which half of a stream connection Shutdown disables.
type Service uint8

const (
	ServiceReceive Service = iota
	ServiceSend
	ServiceBoth
)

// MaxClients is the capacity of one selector. Listen does not pass it as a
// backlog; the listener uses the Go runtime's default accept queue length.
const MaxClients = 64

// MaxDatagram is the largest payload a single UDP datagram may carry in this core.
const MaxDatagram = 65507
