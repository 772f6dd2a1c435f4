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

package inbox_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/socket"
)

var _ = Describe("Inbox", func() {
	It("pops in FIFO order", func() {
		box := inbox.New()
		src := socket.New()

		a := packet.NewRawBytesPayload(src, []byte("a"))
		b := packet.NewRawBytesPayload(src, []byte("b"))
		c := packet.NewRawBytesPayload(src, []byte("c"))

		box.Push(a)
		box.Push(b)
		box.Push(c)
		Expect(box.Len()).To(Equal(3))

		Expect(box.Pop()).To(Equal(a))
		Expect(box.Pop()).To(Equal(b))
		Expect(box.Pop()).To(Equal(c))
		Expect(box.Pop()).To(BeNil())
	})

	It("preserves per-source order under concurrent pushes from different sources", func() {
		box := inbox.New()
		srcA := socket.New()
		srcB := socket.New()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				box.Push(packet.NewRawBytesPayload(srcA, []byte{byte(i)}))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				box.Push(packet.NewRawBytesPayload(srcB, []byte{byte(i)}))
			}
		}()
		wg.Wait()

		Expect(box.Len()).To(Equal(100))

		lastA, lastB := -1, -1
		for {
			p := box.Pop()
			if p == nil {
				break
			}
			rb := p.(*packet.RawBytes)
			v := int(rb.Payload[0])
			switch rb.Source() {
			case srcA:
				Expect(v).To(BeNumerically(">", lastA))
				lastA = v
			case srcB:
				Expect(v).To(BeNumerically(">", lastB))
				lastB = v
			}
		}
	})

	It("purges every packet from a given source", func() {
		box := inbox.New()
		srcA := socket.New()
		srcB := socket.New()

		box.Push(packet.NewRawBytesPayload(srcA, []byte("1")))
		box.Push(packet.NewRawBytesPayload(srcB, []byte("2")))
		box.Push(packet.NewRawBytesPayload(srcA, []byte("3")))

		dropped := box.PurgeSource(srcA.Handle())
		Expect(dropped).To(Equal(2))
		Expect(box.Len()).To(Equal(1))

		remaining := box.Pop()
		Expect(remaining.(*packet.RawBytes).Source()).To(Equal(srcB))
	})
})
