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

// Package socket implements the typed endpoint state machine shared by the
// selector, server and client: a thin wrapper over net.Conn/net.Listener/
// net.PacketConn that tracks the Uninitialized -> Initialized -> Bound ->
// Listening/Connected lifecycle and reports failures as liberr.Error values
// instead of a package-global "last error".
package socket

import (
	liberr "github.com/sabouaram/enetkit/errors"
)

// Error codes for the endpoint state machine and its callers (selector, server,
// client, packet codec). Grouped here rather than split per-package so every
// layer shares one registered message table, matching the core's single error
// taxonomy (spec-less codes would force each caller to re-derive the mapping).
const (
	ErrorParamEmpty liberr.CodeError = iota + 4100
	ErrorState
	ErrorSystem
	ErrorProtocolMismatch
	ErrorTruncated
	ErrorUnknownType
	ErrorReservedType
	ErrorAcceptFailed
	ErrorConnectFailed
	ErrorBindFailed
	ErrorListenFailed
	ErrorRecvFailed
	ErrorSendFailed
	ErrorShutdownFailed
	ErrorCloseFailed
	ErrorSelectorRunning
	ErrorSelectorEmpty
	ErrorServerRunning
	ErrorServerStopped
	ErrorClientRunning
	ErrorClientStopped
	ErrorRecvTimeout
)

func init() {
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorParamEmpty:
		return "required parameter is empty or nil"
	case ErrorState:
		return "operation not valid for the endpoint's current state"
	case ErrorSystem:
		return "underlying system call failed"
	case ErrorProtocolMismatch:
		return "operation not valid for the endpoint's protocol"
	case ErrorTruncated:
		return "frame was truncated before the declared payload length"
	case ErrorUnknownType:
		return "packet type tag has no registered constructor"
	case ErrorReservedType:
		return "packet type tag falls in the reserved range"
	case ErrorAcceptFailed:
		return "accept failed"
	case ErrorConnectFailed:
		return "connect failed"
	case ErrorBindFailed:
		return "bind failed"
	case ErrorListenFailed:
		return "listen failed"
	case ErrorRecvFailed:
		return "recv failed"
	case ErrorSendFailed:
		return "send failed"
	case ErrorShutdownFailed:
		return "shutdown failed"
	case ErrorCloseFailed:
		return "close failed"
	case ErrorSelectorRunning:
		return "selector is already running"
	case ErrorSelectorEmpty:
		return "selector has no client endpoints"
	case ErrorServerRunning:
		return "server is already running"
	case ErrorServerStopped:
		return "server is not running"
	case ErrorClientRunning:
		return "client is already running"
	case ErrorClientStopped:
		return "client is not running"
	case ErrorRecvTimeout:
		return "recv deadline elapsed with no data"
	}
	return liberr.NullMessage
}
