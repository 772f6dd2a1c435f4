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

// Package chat is the one application-level consumer of the networking core:
// it registers a custom packet variant carrying a chat line and wires the
// chatserver/chatclient demos around it. Nothing here is part of the core -
// it only imports the core's public packet/registry/inbox surface.
package chat

import (
	"bytes"
	"encoding/binary"
	"fmt"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/socket"
)

// TagMessage is the custom tag the chat demo registers on top of the core's
// reserved [0x0000, 0x000F] range.
const TagMessage packet.Tag = 0x1001

// Message carries a nickname and a chat line, each length-prefixed on the
// wire as len:u16_le ‖ bytes.
type Message struct {
	source *socket.Endpoint

	Nick string
	Text string
}

// New is the Registry constructor for TagMessage.
func New(source *socket.Endpoint) packet.Packet {
	return &Message{source: source}
}

// NewMessage builds an outbound Message ready to Encode.
func NewMessage(source *socket.Endpoint, nick, text string) packet.Packet {
	return &Message{source: source, Nick: nick, Text: text}
}

func (m *Message) Tag() packet.Tag                { return TagMessage }
func (m *Message) Source() *socket.Endpoint       { return m.source }
func (m *Message) SetSource(src *socket.Endpoint) { m.source = src }

func (m *Message) Equal(other packet.Packet) bool {
	o, ok := other.(*Message)
	return ok && m.Nick == o.Nick && m.Text == o.Text
}

func writeString(w *bytes.Buffer, s string) {
	var h [2]byte
	binary.LittleEndian.PutUint16(h[:], uint16(len(s)))
	w.Write(h[:])
	w.WriteString(s)
}

func readString(r *bytes.Reader) (string, liberr.Error) {
	var h [2]byte
	if n, err := r.Read(h[:]); err != nil || n < 2 {
		return "", socket.ErrorTruncated.Error(fmt.Errorf("message: truncated string length prefix"))
	}
	l := int(binary.LittleEndian.Uint16(h[:]))

	buf := make([]byte, l)
	if n, err := r.Read(buf); err != nil && l > 0 || n < l {
		return "", socket.ErrorTruncated.Error(fmt.Errorf("message: wanted %d string bytes, got %d", l, n))
	}
	return string(buf), nil
}

// DecodePayload decodes from a single complete buffer (datagram path).
func (m *Message) DecodePayload(buf []byte) liberr.Error {
	r := bytes.NewReader(buf)

	nick, err := readString(r)
	if err != nil {
		return err
	}
	text, err := readString(r)
	if err != nil {
		return err
	}
	if r.Len() != 0 {
		return socket.ErrorTruncated.Error(fmt.Errorf("message: %d excess bytes in datagram", r.Len()))
	}

	m.Nick, m.Text = nick, text
	return nil
}

// DecodeStream pulls the nick/text pair from src (stream path). Each string
// is read in full before the next is attempted, so a short read on either
// fails the whole packet with Truncated rather than leaving a half-decoded
// Message in the inbox.
func (m *Message) DecodeStream(src *socket.Endpoint) liberr.Error {
	nick, err := readFramedString(src)
	if err != nil {
		return err
	}
	text, err := readFramedString(src)
	if err != nil {
		return err
	}
	m.Nick, m.Text = nick, text
	return nil
}

func readFramedString(src *socket.Endpoint) (string, liberr.Error) {
	var h [2]byte
	n, err := readFull(src, h[:])
	if err != nil {
		return "", err
	}
	if n < 2 {
		return "", socket.ErrorTruncated.Error(fmt.Errorf("message: truncated string length prefix"))
	}
	l := int(binary.LittleEndian.Uint16(h[:]))
	if l == 0 {
		return "", nil
	}

	buf := make([]byte, l)
	n, err = readFull(src, buf)
	if err != nil {
		return "", err
	}
	if n < l {
		return "", socket.ErrorTruncated.Error(fmt.Errorf("message: wanted %d string bytes, got %d", l, n))
	}
	return string(buf), nil
}

// readFull loops partial Recv calls until buf is full or the connection
// closes mid-frame, mirroring the core codec's own framing helper.
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

// Encode writes tag ‖ nick ‖ text as a single frame, following the same
// Stream/Datagram dispatch contract every built-in variant uses.
func (m *Message) Encode(dst *socket.Endpoint) liberr.Error {
	var w bytes.Buffer

	var h [2]byte
	binary.LittleEndian.PutUint16(h[:], uint16(TagMessage))
	w.Write(h[:])
	writeString(&w, m.Nick)
	writeString(&w, m.Text)

	return packet.SendFrame(m, dst, w.Bytes())
}
