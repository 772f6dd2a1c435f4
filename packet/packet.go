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

// Package packet implements the wire framing and the built-in packet variants
// (Connect, Disconnect, RawBytes): a 2-byte type tag followed by a
// variant-specific payload, dispatched through a Registry of tag constructors.
package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/socket"
)

// Tag identifies the wire type of a Packet. Tags in [0, ReservedMax] are
// reserved for built-in variants and cannot be claimed by Registry.Register.
type Tag uint16

const (
	TagDisconnect Tag = 0x0000
	TagConnect    Tag = 0x0001
	TagRawBytes   Tag = 0x0002

	// ReservedMax is the last tag value off-limits to user registration.
	ReservedMax Tag = 0x000F
)

// Packet is the dispatch surface every variant implements. DecodeStream pulls
// any further bytes a variant needs from its source (called after the 2-byte
// tag has already been consumed); DecodePayload decodes in place from a
// datagram buffer; Encode writes tag+payload to dst (or to the packet's own
// source, for a stream reply).
type Packet interface {
	Tag() Tag
	Source() *socket.Endpoint
	SetSource(src *socket.Endpoint)
	DecodeStream(src *socket.Endpoint) liberr.Error
	DecodePayload(buf []byte) liberr.Error
	Encode(dst *socket.Endpoint) liberr.Error
	Equal(other Packet) bool
}

type base struct {
	tag    Tag
	source *socket.Endpoint
}

func (b *base) Tag() Tag                      { return b.tag }
func (b *base) Source() *socket.Endpoint      { return b.source }
func (b *base) SetSource(src *socket.Endpoint) { b.source = src }

// writeTag writes the 2-byte little-endian tag prefix shared by every variant.
func writeTag(tag Tag, w *bytes.Buffer) {
	var h [2]byte
	binary.LittleEndian.PutUint16(h[:], uint16(tag))
	w.Write(h[:])
}

// SendFrame dispatches a fully-built frame (tag ‖ payload) to dst following
// the same Stream/Datagram encode contract the built-in variants use:
// Stream packets default to writing back to their own source when dst is
// nil; Datagram packets require an explicit dst. User-registered variants
// call this from their own Encode instead of re-deriving the dispatch rules.
func SendFrame(p Packet, dst *socket.Endpoint, frame []byte) liberr.Error {
	return sendFrame(p, dst, frame)
}

func sendFrame(p Packet, dst *socket.Endpoint, frame []byte) liberr.Error {
	src := p.Source()
	if src == nil {
		return socket.ErrorParamEmpty.Error(fmt.Errorf("encode: packet has no source endpoint"))
	}

	switch src.Protocol() {
	case socket.Stream:
		target := dst
		if target == nil {
			target = src
		}
		n, err := target.Send(frame)
		if err != nil {
			return err
		}
		if n != len(frame) {
			return socket.ErrorTruncated.Error(fmt.Errorf("send: wrote %d of %d bytes", n, len(frame)))
		}
		return nil

	case socket.Datagram:
		if dst == nil {
			return socket.ErrorParamEmpty.Error(fmt.Errorf("sendto: dst is required for a datagram packet"))
		}
		n, err := src.SendTo(frame, dst)
		if err != nil {
			return err
		}
		if n != len(frame) {
			return socket.ErrorTruncated.Error(fmt.Errorf("sendto: wrote %d of %d bytes", n, len(frame)))
		}
		return nil

	default:
		return socket.ErrorProtocolMismatch.Error(fmt.Errorf("encode: source endpoint has no protocol"))
	}
}
