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

// Package server is the protocol engine: connection acceptance, per-client
// framing, the serialized request-dispatch pipeline, the pairing state
// machine, the file-transfer consent-and-relay protocol, and the
// consistency rules that keep the client registry and active-session set
// coherent under concurrent disconnects.
//
// A single sync.Mutex guards the registry, the active-pair set, and the
// pending-response set together (see the design notes in SPEC_FULL.md,
// section 9, on why this stays a single coarse lock rather than three).
// Handlers look a target up under the lock and release it before sending: a
// session that is closed between the lookup and the send makes that send
// fail with a transport error, and the frame is dropped.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/nabbar/chatrelay/buffer"
	"github.com/nabbar/chatrelay/chaterr"
	"github.com/nabbar/chatrelay/event"
	"github.com/nabbar/chatrelay/frame"
	"github.com/nabbar/chatrelay/metrics"
	"github.com/nabbar/chatrelay/protocol"
	"github.com/nabbar/chatrelay/session"
)

// Config controls how a Server binds and the limits it enforces.
type Config struct {
	// BindIP is the address to listen on. Empty means all interfaces.
	BindIP string
	// Port to listen on; 0 delegates the choice to the OS.
	Port int
	// TLSConfig, if non-nil, upgrades the listener to TLS.
	TLSConfig *tls.Config
	// MaxFileFrameBytes bounds the payload of any single frame, text or
	// binary (it sets frame.MaxPayload). Zero means unbounded (not recommended for an Internet-facing deployment).
	MaxFileFrameBytes uint32
	// BufferCapacity is the request buffer's queue depth. Zero uses
	// buffer.DefaultCapacity.
	BufferCapacity int
	// MaxConnections caps the number of connections accepted and handled
	// concurrently. Zero means unbounded, which is not recommended for an
	// Internet-facing deployment: every accepted connection runs its own
	// reader goroutine, so an unbounded accept loop is an unbounded goroutine
	// count.
	MaxConnections int
	// Metrics, if non-nil, receives a byte count for every relayed file
	// frame. The Collector must already be subscribed to the Server's event
	// stream for its other counters to move; this field only covers the
	// one measurement (bytes routed) that has no event field of its own.
	Metrics *metrics.Collector
}

type pairKey struct{ a, b string }

// Server holds the client registry, the active-pair set, the pending
// chat-response set, and the request buffer that serializes all mutation of
// that state onto a single worker goroutine.
type Server struct {
	event.Observable

	cfg Config

	mu      sync.Mutex
	clients map[string]*session.Session
	active  map[pairKey]struct{}
	pending map[string]struct{}

	buf      *buffer.Buffer
	listener net.Listener

	// conns bounds the number of connections accepted concurrently. nil
	// means Config.MaxConnections was zero: no cap.
	conns *semaphore.Weighted

	wg sync.WaitGroup
}

// New constructs a Server. Call ListenAndServe to start accepting
// connections.
func New(cfg Config) *Server {
	frame.MaxPayload = cfg.MaxFileFrameBytes
	s := &Server{
		cfg:     cfg,
		clients: make(map[string]*session.Session),
		active:  make(map[pairKey]struct{}),
		pending: make(map[string]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.conns = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	s.buf = buffer.New(cfg.BufferCapacity, s.process, s.Emit)
	return s
}

func (s *Server) process(item buffer.Item) {
	protocol.Dispatch(s, item.Session, item.Type, item.Payload)
}

// ListenAndServe binds the listener, emits ServerStarted, and runs the
// accept loop until ctx is canceled or the listener fails. It returns nil on
// a clean, context-driven shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindIP, s.cfg.Port)

	var (
		ln  net.Listener
		err error
	)
	if s.cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", addr, s.cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", addr)
	}
	if err != nil {
		s.Emit(event.FatalError{Msg: err.Error()})
		return chaterr.Wrap(chaterr.CodeTransport, "listening", err)
	}
	s.listener = ln

	tcpAddr, _ := ln.Addr().(*net.TCPAddr)
	port := s.cfg.Port
	if tcpAddr != nil {
		port = tcpAddr.Port
	}
	networkIP := probeNetworkIP()
	s.Emit(event.ServerStarted{BindIP: s.cfg.BindIP, Port: port, NetworkIP: networkIP})

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		if s.conns != nil {
			if err := s.conns.Acquire(ctx, 1); err != nil {
				// ctx was canceled while waiting for a free slot; shut
				// down here without reaching Accept().
				s.wg.Wait()
				s.buf.Stop()
				s.Emit(event.ServerStopped{NetworkIP: networkIP, Port: port})
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if s.conns != nil {
				s.conns.Release(1)
			}
			select {
			case <-ctx.Done():
				s.wg.Wait()
				s.buf.Stop()
				s.Emit(event.ServerStopped{NetworkIP: networkIP, Port: port})
				return nil
			default:
				s.Emit(event.FatalError{Msg: err.Error()})
				s.wg.Wait()
				s.buf.Stop()
				s.Emit(event.ServerStopped{NetworkIP: networkIP, Port: port})
				return chaterr.Wrap(chaterr.CodeTransport, "accept loop", err)
			}
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// probeNetworkIP opens a UDP socket toward a well-known address purely to
// read back the local interface address the OS would route through; no
// packet needs to actually be sent for this. Used only for display.
func probeNetworkIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer func() { _ = conn.Close() }()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	if s.conns != nil {
		defer s.conns.Release(1)
	}

	sess := session.New(conn)
	// Server shutdown closes the session, which ends the read loop below.
	stopClose := context.AfterFunc(ctx, func() { _ = sess.Close() })
	defer stopClose()
	s.Emit(event.ClientHandshakeStarted{Addr: sess.Addr(), TempName: sess.Name(), SessID: sess.ID()})

	for {
		t, payload, err := sess.RecvFrame()
		if err != nil {
			if err != io.EOF {
				s.Emit(event.ClientError{SessionName: sess.Name(), Msg: err.Error()})
			}
			break
		}
		s.buf.Add(buffer.Item{Session: sess, Type: t, Payload: payload})
	}
	s.disconnect(sess)
}
