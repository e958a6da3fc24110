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

package server

import (
	"github.com/nabbar/chatrelay/event"
	"github.com/nabbar/chatrelay/session"
)

// disconnect runs on any session termination, whether from a clean peer
// close, a transport error, or server shutdown. It removes the session from
// the registry only if the registry still maps its name to this exact
// session instance, guarding against a name-reuse race where a second
// session has already registered the same name by the time this runs (see
// Invariant 6).
func (s *Server) disconnect(sess *session.Session) {
	name := sess.Name()
	addr := sess.Addr()

	s.mu.Lock()
	removed := false
	if cur, ok := s.clients[name]; ok && cur == sess {
		delete(s.clients, name)
		removed = true
	}
	delete(s.pending, name)
	for k := range s.active {
		if k.a == name || k.b == name {
			delete(s.active, k)
		}
	}
	count := len(s.clients)
	s.mu.Unlock()

	s.Emit(event.ClientDisconnected{Name: name, Addr: addr})
	if removed {
		s.Emit(event.ActiveConnectionsChanged{Count: count})
	}
	_ = sess.Close()
}
