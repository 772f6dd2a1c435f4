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

// Package inbox implements the thread-safe FIFO queue that selectors, servers
// and clients push decoded packets into, and consumer goroutines drain from.
package inbox

import (
	"container/list"
	"sync"

	"github.com/sabouaram/enetkit/packet"
)

// Inbox is a thread-safe FIFO of decoded packets. Packets from the same
// source endpoint always come out in the order they went in; packets from
// different sources carry no relative ordering guarantee.
type Inbox struct {
	mu sync.Mutex
	l  *list.List
}

// New returns an empty Inbox.
func New() *Inbox {
	return &Inbox{l: list.New()}
}

// Push appends p to the tail of the queue. A nil packet is a no-op.
func (i *Inbox) Push(p packet.Packet) {
	if p == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.l.PushBack(p)
}

// Pop removes and returns the packet at the head of the queue, or nil if the
// queue is empty. Non-blocking.
func (i *Inbox) Pop() packet.Packet {
	i.mu.Lock()
	defer i.mu.Unlock()

	e := i.l.Front()
	if e == nil {
		return nil
	}
	i.l.Remove(e)
	return e.Value.(packet.Packet)
}

// Len returns the number of packets currently queued.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.l.Len()
}

// PurgeSource drops every queued packet whose Source handle matches handle,
// and reports how many were dropped. The selector, server and client do not
// call it when a client disconnects; queued packets from that source stay in
// the queue unless PurgeSource is called.
func (i *Inbox) PurgeSource(handle uint64) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	dropped := 0
	var next *list.Element
	for e := i.l.Front(); e != nil; e = next {
		next = e.Next()
		p := e.Value.(packet.Packet)
		if p.Source() != nil && p.Source().Handle() == handle {
			i.l.Remove(e)
			dropped++
		}
	}
	return dropped
}
