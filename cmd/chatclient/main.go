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

// Command chatclient is the peer-side counterpart of chatserver: it connects
// to the chat front door, prints every chat.Message line it receives to
// stdout, and sends a line typed on stdin as a chat.Message of its own. Like
// chatserver, it is a thin external consumer of the core - no console
// printer subsystem, just fmt and bufio.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sabouaram/enetkit/chat"
	"github.com/sabouaram/enetkit/client"
	"github.com/sabouaram/enetkit/inbox"
	"github.com/sabouaram/enetkit/logger"
	"github.com/sabouaram/enetkit/logger/config"
	"github.com/sabouaram/enetkit/logger/level"
	"github.com/sabouaram/enetkit/packet"
)

func main() {
	host := pflag.StringP("host", "H", "127.0.0.1", "chatserver address")
	port := pflag.Uint16P("port", "p", 9000, "chatserver stream/datagram port")
	nick := pflag.StringP("nick", "n", "anon", "nickname attached to every outgoing line")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug-level logging")
	pflag.Parse()

	log := logger.New(context.Background())
	if *verbose {
		log.SetLevel(level.DebugLevel)
	} else {
		log.SetLevel(level.ErrorLevel)
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

	cli := client.New(reg, box, funcLog)
	if err := cli.Init(*host, *port); err != nil {
		log.Error("connecting to chatserver", err)
		os.Exit(1)
	}
	if err := cli.Start(); err != nil {
		log.Error("starting client", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Stop() }()

	g, gctx := errgroup.WithContext(context.Background())
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error { printLoop(gctx, box, cancel); return nil })
	g.Go(func() error { readLines(gctx, cli, *nick, cancel); return nil })

	_ = g.Wait()
}

// printLoop drains the inbox and prints every chat.Message line; Connect and
// Disconnect are rendered as presence notices. A Disconnect packet cancels
// ctx, unblocking readLines too.
func printLoop(ctx context.Context, box *inbox.Inbox, cancel context.CancelFunc) {
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
			fmt.Println("* connected")
		case packet.TagDisconnect:
			fmt.Println("* disconnected")
			cancel()
			return
		case chat.TagMessage:
			m := p.(*chat.Message)
			fmt.Printf("%s: %s\n", m.Nick, m.Text)
		}
	}
}

// readLines reads stdin line by line and sends each as a chat.Message until
// stdin closes or ctx is cancelled.
func readLines(ctx context.Context, cli *client.Client, nick string, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		text := scanner.Text()
		if err := cli.Send(chat.NewMessage(nil, nick, text)); err != nil {
			fmt.Fprintln(os.Stderr, "send failed:", err)
		}
	}
	cancel()
}
