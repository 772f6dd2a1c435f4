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
	"encoding/binary"
	"fmt"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/socket"
)

// readFull reads exactly len(buf) bytes from src, looping over partial reads.
// It returns the number of bytes actually read; a short read with a nil error
// means the peer closed mid-frame (src.Recv already transitioned the endpoint
// to Uninitialized). Callers distinguish a clean boundary close (n == 0) from
// a truncated frame (0 < n < len(buf)).
func readFull(src *socket.Endpoint, buf []byte) (int, liberr.Error) {
	total := 0
	for total < len(buf) {
		n, err := src.Recv(buf[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
	return total, nil
}

// DecodeStream reads one framed packet from src: a 2-byte tag followed by
// whatever bytes the resolved variant pulls for itself. It returns (nil, nil)
// when src closed cleanly at the frame boundary (no tag byte arrived) -
// callers treat that as an implicit Disconnect. A tag with no registered
// constructor yields ErrorUnknownType; a variant that can't complete its
// payload yields ErrorTruncated. Either way, src.State() tells the caller
// whether the connection is still usable.
func DecodeStream(reg *Registry, src *socket.Endpoint) (Packet, liberr.Error) {
	var tagBuf [2]byte
	n, err := readFull(src, tagBuf[:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n < 2 {
		return nil, socket.ErrorTruncated.Error(fmt.Errorf("decode: peer closed after %d of 2 tag bytes", n))
	}

	tag := Tag(binary.LittleEndian.Uint16(tagBuf[:]))
	ctor, ok := reg.Lookup(tag)
	if !ok {
		return nil, socket.ErrorUnknownType.Error(fmt.Errorf("decode: tag 0x%04x has no constructor", uint16(tag)))
	}

	pkt := ctor(src)
	if errDec := pkt.DecodeStream(src); errDec != nil {
		return nil, errDec
	}
	return pkt, nil
}

// DecodePayload decodes one complete datagram buf into a packet, attributing
// src as its source. The first 2 bytes are the tag; the rest is handed to the
// variant's DecodePayload.
func DecodePayload(reg *Registry, buf []byte, src *socket.Endpoint) (Packet, liberr.Error) {
	if len(buf) < 2 {
		return nil, socket.ErrorTruncated.Error(fmt.Errorf("decode: datagram shorter than the tag prefix"))
	}

	tag := Tag(binary.LittleEndian.Uint16(buf[:2]))
	ctor, ok := reg.Lookup(tag)
	if !ok {
		return nil, socket.ErrorUnknownType.Error(fmt.Errorf("decode: tag 0x%04x has no constructor", uint16(tag)))
	}

	pkt := ctor(src)
	if errDec := pkt.DecodePayload(buf[2:]); errDec != nil {
		return nil, errDec
	}
	return pkt, nil
}
