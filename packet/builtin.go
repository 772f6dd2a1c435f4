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

package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/socket"
)

// Disconnect is synthesized by the reader loops whenever a peer goes away
// (clean close or fatal recv error); it is also a valid wire frame on its own.
type Disconnect struct{ base }

// NewDisconnect builds a Disconnect packet carrying src as its source.
func NewDisconnect(src *socket.Endpoint) Packet {
	return &Disconnect{base{tag: TagDisconnect, source: src}}
}

func (p *Disconnect) DecodeStream(_ *socket.Endpoint) liberr.Error { return nil }
func (p *Disconnect) DecodePayload(_ []byte) liberr.Error          { return nil }

func (p *Disconnect) Encode(dst *socket.Endpoint) liberr.Error {
	var w bytes.Buffer
	writeTag(p.tag, &w)
	return sendFrame(p, dst, w.Bytes())
}

func (p *Disconnect) Equal(other Packet) bool {
	_, ok := other.(*Disconnect)
	return ok
}

// Connect is synthesized by Selector.AddClient right after a client is
// inserted, and by Client.Start once the stream connection is up.
type Connect struct{ base }

// NewConnect builds a Connect packet carrying src as its source.
func NewConnect(src *socket.Endpoint) Packet {
	return &Connect{base{tag: TagConnect, source: src}}
}

func (p *Connect) DecodeStream(_ *socket.Endpoint) liberr.Error { return nil }
func (p *Connect) DecodePayload(_ []byte) liberr.Error          { return nil }

func (p *Connect) Encode(dst *socket.Endpoint) liberr.Error {
	var w bytes.Buffer
	writeTag(p.tag, &w)
	return sendFrame(p, dst, w.Bytes())
}

func (p *Connect) Equal(other Packet) bool {
	_, ok := other.(*Connect)
	return ok
}

// RawBytes carries an opaque byte payload, framed on the stream path as
// len:i32_le ‖ bytes[len] and, on the datagram path, as the remainder of the
// datagram buffer (the length prefix is redundant there but kept for a
// uniform payload format across both transports).
type RawBytes struct {
	base
	Payload []byte
}

// NewRawBytes builds a RawBytes packet carrying src as its source, with an
// empty payload ready to be filled by Decode* or set directly before Encode.
func NewRawBytes(src *socket.Endpoint) Packet {
	return &RawBytes{base: base{tag: TagRawBytes, source: src}}
}

// NewRawBytesPayload builds a RawBytes packet ready to send, with payload
// copied into a private buffer (the original implementation's send() bug
// copied a buffer over itself; here the payload is owned outright so there
// is nothing to alias).
func NewRawBytesPayload(src *socket.Endpoint, payload []byte) Packet {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return &RawBytes{base: base{tag: TagRawBytes, source: src}, Payload: buf}
}

func (p *RawBytes) DecodeStream(src *socket.Endpoint) liberr.Error {
	lenBuf := make([]byte, 4)
	n, err := readFull(src, lenBuf)
	if err != nil {
		return err
	}
	if n < 4 {
		return socket.ErrorTruncated.Error(fmt.Errorf("rawbytes: short length prefix (%d of 4 bytes)", n))
	}

	length := int32(binary.LittleEndian.Uint32(lenBuf))
	if length < 0 || length > socket.MaxDatagram {
		return socket.ErrorTruncated.Error(fmt.Errorf("rawbytes: implausible length %d", length))
	}

	payload := make([]byte, length)
	n, err = readFull(src, payload)
	if err != nil {
		return err
	}
	if n < int(length) {
		return socket.ErrorTruncated.Error(fmt.Errorf("rawbytes: short payload (%d of %d bytes)", n, length))
	}

	p.Payload = payload
	return nil
}

func (p *RawBytes) DecodePayload(buf []byte) liberr.Error {
	if len(buf) < 4 {
		return socket.ErrorTruncated.Error(fmt.Errorf("rawbytes: datagram shorter than length prefix"))
	}

	length := int32(binary.LittleEndian.Uint32(buf[:4]))
	if length < 0 || int(length) != len(buf)-4 {
		return socket.ErrorTruncated.Error(fmt.Errorf("rawbytes: declared length %d does not match datagram payload %d", length, len(buf)-4))
	}

	payload := make([]byte, length)
	copy(payload, buf[4:4+length])
	p.Payload = payload
	return nil
}

func (p *RawBytes) Encode(dst *socket.Endpoint) liberr.Error {
	var w bytes.Buffer
	writeTag(p.tag, &w)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(p.Payload)))
	w.Write(lenBuf[:])
	w.Write(p.Payload)

	return sendFrame(p, dst, w.Bytes())
}

func (p *RawBytes) Equal(other Packet) bool {
	o, ok := other.(*RawBytes)
	if !ok {
		return false
	}
	return bytes.Equal(p.Payload, o.Payload)
}
