/*
 * MIT License
 *
 * Copyright (c) 2026 chatrelay contributors
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
 */

// Package metrics projects the server's event stream onto Prometheus
// collectors. It holds no protocol state of its own: every value it reports
// is derived from an event.Event it has already seen.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/chatrelay/event"
)

const namespace = "chatrelay"

// Collector is the set of Prometheus collectors this package registers, kept
// unexported so callers only interact through Register, Observer and
// AddBytesRouted.
type Collector struct {
	activeConnections prometheus.Gauge
	chatsEstablished   prometheus.Counter
	chatsEnded         prometheus.Counter
	filesRouted        prometheus.Counter
	bytesRouted        prometheus.Counter
	bufferErrors       prometheus.Counter
	clientErrors       prometheus.Counter
}

// New builds a Collector. Call Register to expose it, and Observer to obtain
// the event.Observer that keeps it updated.
func New() *Collector {
	return &Collector{
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of sessions currently present in the client registry.",
		}),
		chatsEstablished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chats_established_total",
			Help:      "Total number of chat pairings accepted.",
		}),
		chatsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chats_ended_total",
			Help:      "Total number of chat pairings stopped.",
		}),
		filesRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_routed_total",
			Help:      "Total number of binary frames relayed between clients.",
		}),
		bytesRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_routed_bytes_total",
			Help:      "Total payload bytes relayed in binary frames, including headers.",
		}),
		bufferErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_errors_total",
			Help:      "Total number of handler panics recovered by the request buffer.",
		}),
		clientErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_errors_total",
			Help:      "Total number of non-EOF transport errors seen on client sessions.",
		}),
	}
}

// Register adds every collector to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, coll := range []prometheus.Collector{
		c.activeConnections,
		c.chatsEstablished,
		c.chatsEnded,
		c.filesRouted,
		c.bytesRouted,
		c.bufferErrors,
		c.clientErrors,
	} {
		if err := reg.Register(coll); err != nil {
			return err
		}
	}
	return nil
}

// Observer returns an event.Observer that updates this Collector. Subscribe
// it to a server's Observable to keep metrics current.
func (c *Collector) Observer() event.Observer {
	return func(ev event.Event) {
		switch e := ev.(type) {
		case event.ActiveConnectionsChanged:
			c.activeConnections.Set(float64(e.Count))
		case event.ChatEstablished:
			c.chatsEstablished.Inc()
		case event.ChatEnded:
			c.chatsEnded.Inc()
		case event.FileTransferRouted:
			c.filesRouted.Inc()
		case event.BufferError:
			c.bufferErrors.Inc()
		case event.ClientError:
			c.clientErrors.Inc()
		}
	}
}

// AddBytesRouted records n additional bytes relayed by a file-transfer
// frame. Handlers call this directly, alongside emitting
// event.FileTransferRouted, since the event itself carries no byte count.
func (c *Collector) AddBytesRouted(n int) {
	c.bytesRouted.Add(float64(n))
}
