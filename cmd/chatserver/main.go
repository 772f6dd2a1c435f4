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

// Command chatserver is a thin demo wired on top of the networking core: it
// accepts chat.Message packets from any number of clients and rebroadcasts
// each one to every connected peer. It is intentionally lightweight - no SQL
// storage, no console UI - and only ever touches the core through inbox,
// packet, registry and server's public surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sabouaram/enetkit/chat"
	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/logger"
	"github.com/sabouaram/enetkit/logger/config"
	"github.com/sabouaram/enetkit/logger/level"
	"github.com/sabouaram/enetkit/packet"
	"github.com/sabouaram/enetkit/server"
)

func main() {
	host := pflag.StringP("host", "H", "0.0.0.0", "address to bind the chat front door on")
	port := pflag.Uint16P("port", "p", 9000, "port both the stream and datagram front doors bind to")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug-level logging")
	pflag.Parse()

	log := logger.New(context.Background())
	if *verbose {
		log.SetLevel(level.DebugLevel)
	} else {
		log.SetLevel(level.InfoLevel)
	}
	if err := log.SetOptions(&config.Options{Stdout: &config.OptionsStd{EnableTrace: *verbose}}); err != nil {
		fmt.Fprintln(os.Stderr, "configuring logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Close() }()

	reg := packet.NewRegistry()
	if err := reg.Register(chat.TagMessage, chat.New); err != nil {
		log.Error("registering chat message tag", err)
		os.Exit(1)
	}
	reg.Freeze()

	box := inbox.New()
	funcLog := func() logger.Logger { return log }

	srv := server.New(reg, box, funcLog)
	if err := srv.Init(*host, *port); err != nil {
		log.Error("initializing server", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		log.Error("starting server", err)
		os.Exit(1)
	}
	log.Info("chatserver listening", map[string]interface{}{
		"host":          *host,
		"stream_port":   srv.StreamPort(),
		"datagram_port": srv.DatagramPort(),
	})

	g, gctx := errgroup.WithContext(context.Background())
	gctx, cancel := context.WithCancel(gctx)
	g.Go(func() error { dispatchLoop(gctx, srv, box, log); return nil })

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down", nil)
	cancel()
	_ = g.Wait()
	_ = srv.Stop()
}

// dispatchLoop drains the inbox and rebroadcasts every chat.Message to every
// connected client; Connect/Disconnect packets are logged but not relayed.
func dispatchLoop(ctx context.Context, srv *server.Server, box *inbox.Inbox, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p := box.Pop()
		if p == nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		switch p.Tag() {
		case packet.TagConnect:
			log.Info("client connected", nil)
		case packet.TagDisconnect:
			log.Info("client disconnected", nil)
		case chat.TagMessage:
			m := p.(*chat.Message)
			log.Info("broadcasting message", map[string]interface{}{"nick": m.Nick})
			srv.Broadcast(chat.NewMessage(nil, m.Nick, m.Text))
		default:
			log.Warning("ignoring unknown packet tag", p.Tag())
		}
	}
}
