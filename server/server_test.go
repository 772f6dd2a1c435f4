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

package server_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/server"
	"github.com/sabouaram/enetkit/socket"
)

func popUntil(box *inbox.Inbox, tag packet.Tag, timeout time.Duration) packet.Packet {
	var found packet.Packet
	Eventually(func() bool {
		for {
			p := box.Pop()
			if p == nil {
				return false
			}
			if p.Tag() == tag {
				found = p
				return true
			}
		}
	}, timeout, 10*time.Millisecond).Should(BeTrue())
	return found
}

var _ = Describe("Server", func() {
	It("accepts a client, reports its Connect, and relays its RawBytes", func() {
		box := inbox.New()
		srv := server.New(packet.NewRegistry(), box, nil)

		Expect(srv.Init("127.0.0.1", 0)).To(BeNil())
		Expect(srv.Start()).To(BeNil())
		defer func() { _ = srv.Stop() }()

		cli := socket.New()
		Expect(cli.Open(socket.Stream)).To(BeNil())
		Expect(cli.Connect("127.0.0.1", srv.StreamPort())).To(BeNil())
		defer func() { _ = cli.Close() }()

		popUntil(box, packet.TagConnect, 2*time.Second)

		Expect(packet.NewRawBytesPayload(cli, []byte("hi server")).Encode(nil)).To(BeNil())
		got := popUntil(box, packet.TagRawBytes, 2*time.Second)
		Expect(got.(*packet.RawBytes).Payload).To(Equal([]byte("hi server")))
	})

	It("decodes a datagram straight into the inbox", func() {
		box := inbox.New()
		srv := server.New(packet.NewRegistry(), box, nil)

		Expect(srv.Init("127.0.0.1", 0)).To(BeNil())
		Expect(srv.Start()).To(BeNil())
		defer func() { _ = srv.Stop() }()

		cli := socket.New()
		Expect(cli.Open(socket.Datagram)).To(BeNil())
		Expect(cli.Bind("127.0.0.1", 0)).To(BeNil())
		defer func() { _ = cli.Close() }()

		dst := socket.Remote("127.0.0.1", srv.DatagramPort())

		frame := append([]byte{0x02, 0x00, 4, 0, 0, 0}, []byte("ping")...)
		_, errSend := cli.SendTo(frame, dst)
		Expect(errSend).To(BeNil())

		got := popUntil(box, packet.TagRawBytes, 2*time.Second)
		Expect(got.(*packet.RawBytes).Payload).To(Equal([]byte("ping")))
	})
})
