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
	"fmt"
	"sync"

	liberr "github.com/sabouaram/enetkit/errors"
	"github.com/sabouaram/enetkit/socket"
)

// Constructor builds a zero-value Packet of one wire type, attributing src as
// its source. DecodeStream/DecodePayload fill it in afterward.
type Constructor func(source *socket.Endpoint) Packet

// Registry maps wire tags to packet constructors. The intended lifecycle is
// write-once-before-start: register every custom tag up front, then call
// Freeze before handing the registry to a Selector/Server/Client. Once
// frozen, Register fails with ErrorState. Calling Freeze is optional; an
// unfrozen registry keeps accepting registrations, and Lookup takes the read
// lock either way.
type Registry struct {
	mu     sync.RWMutex
	frozen bool
	ctor   map[Tag]Constructor
}

// NewRegistry returns a Registry with the built-in Disconnect/Connect/RawBytes
// tags already registered; they can never be replaced.
func NewRegistry() *Registry {
	r := &Registry{ctor: make(map[Tag]Constructor, 8)}
	r.ctor[TagDisconnect] = NewDisconnect
	r.ctor[TagConnect] = NewConnect
	r.ctor[TagRawBytes] = NewRawBytes
	return r
}

// Register adds a constructor for a custom tag. Tags in [0, ReservedMax] are
// rejected with ErrorReservedType, whether or not they collide with a
// built-in - the whole low range is off-limits to user code, not just the
// three tags currently occupying it.
func (r *Registry) Register(tag Tag, ctor Constructor) liberr.Error {
	if tag <= ReservedMax {
		return socket.ErrorReservedType.Error(fmt.Errorf("register: tag 0x%04x is in the reserved range", uint16(tag)))
	}
	if ctor == nil {
		return socket.ErrorParamEmpty.Error(fmt.Errorf("register: constructor is nil"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return socket.ErrorState.Error(fmt.Errorf("register: registry is frozen"))
	}

	r.ctor[tag] = ctor
	return nil
}

// Freeze marks the registry read-only. It is a documentation/defensive aid,
// not a requirement: Lookup always takes the read lock regardless.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Lookup returns the constructor registered for tag, if any.
func (r *Registry) Lookup(tag Tag) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.ctor[tag]
	return c, ok
}
