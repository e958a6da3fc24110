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
	"fmt"
	"strconv"
	"strings"

	"github.com/nabbar/chatrelay/event"
	"github.com/nabbar/chatrelay/frame"
	"github.com/nabbar/chatrelay/session"
)

// HandleSetName implements SET_NAME:<n>. A session may re-register under a
// new name after already holding one; the old registry entry is removed
// atomically with the new one's insertion rather than left behind as a
// second, stale key pointing at the same session.
func (s *Server) HandleSetName(sess *session.Session, name string) {
	old := sess.Name()

	s.mu.Lock()
	_, taken := s.clients[name]
	if name == "" || taken || strings.Contains(name, session.TempPrefix) {
		s.mu.Unlock()
		_ = sess.SendText(frame.Control, "NAME_TAKEN")
		return
	}

	if cur, ok := s.clients[old]; ok && cur == sess {
		delete(s.clients, old)
	}
	sess.SetName(name)
	s.clients[name] = sess
	count := len(s.clients)
	s.mu.Unlock()

	_ = sess.SendText(frame.Control, "NAME_OK")
	s.Emit(event.ClientJoined{Name: name, Addr: sess.Addr()})
	s.Emit(event.ActiveConnectionsChanged{Count: count})
}

// HandleGetUsers implements GET_USERS.
func (s *Server) HandleGetUsers(sess *session.Session) {
	s.mu.Lock()
	names := make([]string, 0, len(s.clients))
	for n := range s.clients {
		names = append(names, n)
	}
	s.mu.Unlock()

	_ = sess.SendText(frame.Control, "LIST_USERS:"+strings.Join(names, ","))
}

// HandleReqChat implements REQ_CHAT:<target>.
func (s *Server) HandleReqChat(sess *session.Session, target string) {
	s.mu.Lock()
	t, ok := s.clients[target]
	s.mu.Unlock()

	if !ok {
		_ = sess.SendText(frame.Control, "ERROR:Usuario "+target+" no encontrado")
		return
	}
	_ = t.SendText(frame.Control, "REQ_CHAT_FROM:"+sess.Name())
}

// HandleAcceptChat implements ACCEPT_CHAT:<requester> sent by the target of
// a pending request.
func (s *Server) HandleAcceptChat(sess *session.Session, requester string) {
	name := sess.Name()

	s.mu.Lock()
	delete(s.pending, name)
	r, ok := s.clients[requester]
	if ok {
		s.active[pairKey{name, requester}] = struct{}{}
		s.active[pairKey{requester, name}] = struct{}{}
	}
	s.mu.Unlock()

	if !ok {
		_ = sess.SendText(frame.Control, "ERROR:Usuario "+requester+" ya no está conectado")
		return
	}

	_ = r.SendText(frame.Control, "CHAT_ACCEPTED:"+name)
	_ = sess.SendText(frame.Control, "CHAT_ACCEPTED:"+requester)
	s.Emit(event.ChatEstablished{A: name, B: requester})
}

// HandleDenyChat implements DENY_CHAT:<requester>.
func (s *Server) HandleDenyChat(sess *session.Session, requester string) {
	name := sess.Name()

	s.mu.Lock()
	delete(s.pending, name)
	r, ok := s.clients[requester]
	s.mu.Unlock()

	if ok {
		_ = r.SendText(frame.Control, "CHAT_DENIED:"+name)
	}
}

// HandleStopChat implements STOP_CHAT:<other>, callable by either side of an
// active pairing.
func (s *Server) HandleStopChat(sess *session.Session, target string) {
	name := sess.Name()

	s.mu.Lock()
	delete(s.active, pairKey{name, target})
	delete(s.active, pairKey{target, name})
	t, ok := s.clients[target]
	s.mu.Unlock()

	if ok {
		_ = t.SendText(frame.Control, "CHAT_STOPPED:"+name)
	}
	s.Emit(event.ChatEnded{Who: name, WithWhom: target})
}

// HandleChatMessage implements CHAT:<target>:<text>. The second split uses
// exactly two ':' separators so chat text may itself contain ':'.
func (s *Server) HandleChatMessage(sess *session.Session, raw string) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		_ = sess.SendText(frame.Control, "ERROR:Formato de mensaje inválido")
		return
	}
	name := sess.Name()
	target, text := parts[1], parts[2]

	s.mu.Lock()
	_, active := s.active[pairKey{name, target}]
	if !active {
		s.mu.Unlock()
		_ = sess.SendText(frame.Control, "ERROR:No tienes un chat activo con "+target+".")
		return
	}
	t, ok := s.clients[target]
	if !ok {
		delete(s.active, pairKey{name, target})
		delete(s.active, pairKey{target, name})
	}
	s.mu.Unlock()

	if !ok {
		_ = sess.SendText(frame.Control, "ERROR:Usuario "+target+" desconectado")
		return
	}
	_ = t.SendText(frame.Chat, fmt.Sprintf("FROM:%s:%s", name, text))
}

// HandleReqSendFiles implements REQ_SEND_FILES:<target>:<count>.
func (s *Server) HandleReqSendFiles(sess *session.Session, arg string) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		_ = sess.SendText(frame.Control, "ERROR:Formato de solicitud de archivos inválido")
		return
	}
	target, countStr := parts[0], parts[1]
	count, err := strconv.Atoi(countStr)
	if err != nil {
		_ = sess.SendText(frame.Control, "ERROR:Cantidad de archivos inválida")
		return
	}

	s.mu.Lock()
	t, ok := s.clients[target]
	s.mu.Unlock()

	if !ok {
		_ = sess.SendText(frame.Control, "ERROR:Usuario "+target+" no encontrado")
		return
	}

	name := sess.Name()
	_ = t.SendText(frame.Control, fmt.Sprintf("REQ_SEND_FILES_FROM:%s:%d", name, count))
	s.Emit(event.FileTransferRequested{Sender: name, Receiver: target, Count: count})
}

// HandleAcceptSendFiles implements ACCEPT_SEND_FILES:<sender>.
func (s *Server) HandleAcceptSendFiles(sess *session.Session, sender string) {
	s.mu.Lock()
	snd, ok := s.clients[sender]
	s.mu.Unlock()
	if !ok {
		_ = sess.SendText(frame.Control, "ERROR:Usuario "+sender+" ya no está conectado")
		return
	}

	name := sess.Name()
	_ = snd.SendText(frame.Control, "ACCEPT_SEND_FILES_FROM:"+name)
	s.Emit(event.FileTransferAccepted{Receiver: name, Sender: sender})
}

// HandleDenySendFiles implements DENY_SEND_FILES:<sender>.
func (s *Server) HandleDenySendFiles(sess *session.Session, sender string) {
	s.mu.Lock()
	snd, ok := s.clients[sender]
	s.mu.Unlock()
	if !ok {
		return
	}

	name := sess.Name()
	_ = snd.SendText(frame.Control, "DENY_SEND_FILES_FROM:"+name)
	s.Emit(event.FileTransferDenied{Receiver: name, Sender: sender})
}

// HandleFilesReceived implements FILES_RECEIVED:<sender>, the target's
// signal that it has received every frame of the current lot.
func (s *Server) HandleFilesReceived(sess *session.Session, sender string) {
	s.mu.Lock()
	snd, ok := s.clients[sender]
	s.mu.Unlock()
	if !ok {
		return
	}

	name := sess.Name()
	_ = snd.SendText(frame.Control, "FILES_RECEIVED_FROM:"+name)
	s.Emit(event.FileTransferCompleted{Receiver: name, Sender: sender})
}

// HandleFileRelay implements the binary relay phase: it rewrites the
// dst_len|dst header into sender_len|sender and forwards to dst, gated on an
// active chat pairing between the sender and dst.
func (s *Server) HandleFileRelay(sess *session.Session, payload []byte) {
	if len(payload) < 1 {
		_ = sess.SendText(frame.Control, "ERROR:Trama de archivo vacía")
		return
	}
	dstLen := int(payload[0])
	if len(payload) < 1+dstLen {
		_ = sess.SendText(frame.Control, "ERROR:Trama de archivo truncada")
		return
	}
	dst := string(payload[1 : 1+dstLen])
	rest := payload[1+dstLen:]
	name := sess.Name()

	s.mu.Lock()
	_, active := s.active[pairKey{name, dst}]
	t, ok := s.clients[dst]
	s.mu.Unlock()

	if !active || !ok {
		_ = sess.SendText(frame.Control, "ERROR:No tienes un chat activo con "+dst+" para enviar archivos.")
		return
	}

	out := make([]byte, 0, 1+len(name)+len(rest))
	out = append(out, byte(len(name)))
	out = append(out, name...)
	out = append(out, rest...)

	_ = t.Send(frame.Binary, out)
	s.Emit(event.FileTransferRouted{Sender: name, Receiver: dst})
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.AddBytesRouted(len(out))
	}
}
