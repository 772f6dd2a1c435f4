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

package client_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/enetkit/client"
	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/server"
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

var _ = Describe("Client", func() {
	It("connects to a server, exchanges a RawBytes packet both ways, and reports Disconnect on Stop", func() {
		srvBox := inbox.New()
		srv := server.New(packet.NewRegistry(), srvBox, nil)
		Expect(srv.Init("127.0.0.1", 0)).To(BeNil())
		Expect(srv.Start()).To(BeNil())
		defer func() { _ = srv.Stop() }()

		cliBox := inbox.New()
		cli := client.New(packet.NewRegistry(), cliBox, nil)
		Expect(cli.Init("127.0.0.1", srv.StreamPort())).To(BeNil())
		Expect(cli.Start()).To(BeNil())

		popUntil(cliBox, packet.TagConnect, 2*time.Second)
		popUntil(srvBox, packet.TagConnect, 2*time.Second)

		Expect(cli.Send(packet.NewRawBytesPayload(nil, []byte("hello from client")))).To(BeNil())
		got := popUntil(srvBox, packet.TagRawBytes, 2*time.Second)
		Expect(got.(*packet.RawBytes).Payload).To(Equal([]byte("hello from client")))

		srv.Broadcast(packet.NewRawBytesPayload(nil, []byte("hello from server")))
		gotBack := popUntil(cliBox, packet.TagRawBytes, 2*time.Second)
		Expect(gotBack.(*packet.RawBytes).Payload).To(Equal([]byte("hello from server")))

		Expect(cli.Stop()).To(BeNil())
		popUntil(cliBox, packet.TagDisconnect, 2*time.Second)
	})

	It("exchanges datagrams with the server's front door", func() {
		// Init binds both transports to the identical configured port number,
		// so a fixed (non-zero) port keeps the client's datagram target in
		// sync with the server's actual datagram port.
		const port = 18421

		srvBox := inbox.New()
		srv := server.New(packet.NewRegistry(), srvBox, nil)
		Expect(srv.Init("127.0.0.1", port)).To(BeNil())
		Expect(srv.Start()).To(BeNil())
		defer func() { _ = srv.Stop() }()

		cliBox := inbox.New()
		cli := client.New(packet.NewRegistry(), cliBox, nil)
		Expect(cli.Init("127.0.0.1", port)).To(BeNil())
		Expect(cli.Start()).To(BeNil())
		defer func() { _ = cli.Stop() }()

		popUntil(cliBox, packet.TagConnect, 2*time.Second)

		Expect(cli.SendDatagram(packet.NewRawBytesPayload(nil, []byte("ping")))).To(BeNil())
		got := popUntil(srvBox, packet.TagRawBytes, 2*time.Second)
		Expect(got.(*packet.RawBytes).Payload).To(Equal([]byte("ping")))
	})
})
