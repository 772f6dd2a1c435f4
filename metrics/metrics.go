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

// Package metrics exposes the handful of Prometheus collectors the
// networking core updates as it runs: how many clients are currently held
// across all selectors, how many selectors exist, and how many packets have
// been decoded off clients versus datagrams. Package-level vars rather than
// per-Server instances, since a process normally runs one core and the
// collectors must survive being registered exactly once regardless of how
// many Server/Selector values get constructed (tests construct many).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ClientsConnected is the number of stream clients currently held across
	// every selector in the process.
	ClientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "enetkit_clients_connected",
		Help: "Number of connected stream clients currently held by a selector.",
	})

	// SelectorsActive is the number of selectors currently running.
	SelectorsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "enetkit_selectors_active",
		Help: "Number of selectors currently running.",
	})

	// PacketsDecodedTotal counts successfully decoded packets, labeled by
	// transport.
	PacketsDecodedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enetkit_packets_decoded_total",
		Help: "Total packets successfully decoded, by transport.",
	}, []string{"transport"})

	// PacketsDroppedTotal counts packets dropped for being malformed
	// (Truncated/UnknownType), labeled by transport.
	PacketsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enetkit_packets_dropped_total",
		Help: "Total malformed packets dropped without closing their source, by transport.",
	}, []string{"transport"})
)

func init() {
	prometheus.MustRegister(ClientsConnected, SelectorsActive, PacketsDecodedTotal, PacketsDroppedTotal)
}
