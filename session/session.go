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

// Package session wraps one accepted TCP connection: it owns the socket
// exclusively, serializes outbound frames so a header is never interleaved
// with another goroutine's payload, and tracks the client's registered name.
package session

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nabbar/chatrelay/chaterr"
	"github.com/nabbar/chatrelay/frame"
)

// TempPrefix marks a placeholder name assigned at accept time, before
// SET_NAME has succeeded. The registry must never accept a client-chosen
// name containing this substring.
const TempPrefix = "Temp_"

// Session is the server-side object wrapping one connected socket.
type Session struct {
	conn net.Conn
	addr net.Addr
	id   uuid.UUID

	name atomic.Value // string
	wmu  sync.Mutex   // serializes Send so header+payload are never interleaved
	done atomic.Bool
}

// New constructs a Session over conn with a freshly minted Temp_ placeholder
// name and a UUID correlation ID. The ID never appears on the wire; it
// exists so logs and metrics can tell apart two sessions that happen to
// collide on the same 4-digit placeholder before either has registered.
func New(conn net.Conn) *Session {
	s := &Session{conn: conn, addr: conn.RemoteAddr(), id: uuid.New()}
	s.name.Store(randomTempName())
	return s
}

// ID returns the session's correlation UUID.
func (s *Session) ID() uuid.UUID { return s.id }

func randomTempName() string {
	return fmt.Sprintf("%s%04d", TempPrefix, rand.Intn(10000))
}

// Addr returns the peer address captured at accept time.
func (s *Session) Addr() net.Addr { return s.addr }

// Name returns the session's current registered (or placeholder) name.
func (s *Session) Name() string {
	if v, ok := s.name.Load().(string); ok {
		return v
	}
	return ""
}

// SetName overwrites the session's name. Callers are responsible for holding
// whatever registry lock makes this assignment consistent with the name
// registry (see Invariant 4 in SPEC_FULL.md: a session leaves its Temp_
// placeholder on its first SET_NAME and may later be renamed, with the old
// registry key removed under the same lock).
func (s *Session) SetName(name string) { s.name.Store(name) }

// Closed reports whether Close has already run.
func (s *Session) Closed() bool { return s.done.Load() }

// Send serializes one frame and writes it atomically: no other Send call on
// this Session can interleave its header or payload bytes with this one.
func (s *Session) Send(t frame.Type, payload []byte) error {
	buf, err := frame.Encode(t, payload)
	if err != nil {
		return chaterr.Wrap(chaterr.CodeTransport, "encoding frame", err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.done.Load() {
		return chaterr.New(chaterr.CodeTransport, "session is closed")
	}
	if _, err := s.conn.Write(buf); err != nil {
		return chaterr.Wrap(chaterr.CodeTransport, "writing frame", err)
	}
	return nil
}

// SendText is a convenience wrapper for the common case of a UTF-8 control
// or chat frame.
func (s *Session) SendText(t frame.Type, text string) error {
	return s.Send(t, []byte(text))
}

// RecvFrame blocks for the next frame on the peer's socket. It returns
// io.EOF when the peer closes cleanly.
func (s *Session) RecvFrame() (frame.Type, []byte, error) {
	return frame.Read(s.conn)
}

// Close is idempotent: only the first call actually closes the socket.
func (s *Session) Close() error {
	if !s.done.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}
