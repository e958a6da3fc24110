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

// Package protocol decodes the text sub-protocol carried by frame.Chat and
// frame.Control frames and routes each command to the matching method of a
// Core implementation. Binary (frame.Binary) frames bypass command parsing
// entirely and go straight to the file-relay handler.
package protocol

import (
	"strings"

	"github.com/nabbar/chatrelay/frame"
	"github.com/nabbar/chatrelay/session"
)

// Core is the set of server operations the dispatcher routes commands to.
// The server package implements this; keeping it as an interface here avoids
// a dependency cycle between protocol and server.
type Core interface {
	HandleSetName(s *session.Session, name string)
	HandleGetUsers(s *session.Session)
	HandleReqChat(s *session.Session, target string)
	HandleAcceptChat(s *session.Session, requester string)
	HandleDenyChat(s *session.Session, requester string)
	HandleStopChat(s *session.Session, target string)
	HandleChatMessage(s *session.Session, raw string)
	HandleReqSendFiles(s *session.Session, arg string)
	HandleAcceptSendFiles(s *session.Session, target string)
	HandleDenySendFiles(s *session.Session, target string)
	HandleFilesReceived(s *session.Session, target string)
	HandleFileRelay(s *session.Session, payload []byte)
}

// Dispatch decodes (t, payload) and routes it to the matching Core method.
// Unknown control/chat commands are silently dropped, per the protocol's
// error-handling design: only protocol, policy, and transport errors are
// surfaced to the client, never an unrecognized verb.
func Dispatch(core Core, s *session.Session, t frame.Type, payload []byte) {
	if t == frame.Binary {
		core.HandleFileRelay(s, payload)
		return
	}

	raw := string(payload)
	switch {
	case strings.HasPrefix(raw, "SET_NAME:"):
		core.HandleSetName(s, strings.TrimPrefix(raw, "SET_NAME:"))
	case strings.HasPrefix(raw, "GET_USERS"):
		core.HandleGetUsers(s)
	case strings.HasPrefix(raw, "REQ_CHAT:"):
		core.HandleReqChat(s, strings.TrimPrefix(raw, "REQ_CHAT:"))
	case strings.HasPrefix(raw, "ACCEPT_CHAT:"):
		core.HandleAcceptChat(s, strings.TrimPrefix(raw, "ACCEPT_CHAT:"))
	case strings.HasPrefix(raw, "DENY_CHAT:"):
		core.HandleDenyChat(s, strings.TrimPrefix(raw, "DENY_CHAT:"))
	case strings.HasPrefix(raw, "STOP_CHAT:"):
		core.HandleStopChat(s, strings.TrimPrefix(raw, "STOP_CHAT:"))
	case strings.HasPrefix(raw, "CHAT:"):
		core.HandleChatMessage(s, raw)
	case strings.HasPrefix(raw, "REQ_SEND_FILES:"):
		core.HandleReqSendFiles(s, strings.TrimPrefix(raw, "REQ_SEND_FILES:"))
	case strings.HasPrefix(raw, "ACCEPT_SEND_FILES:"):
		core.HandleAcceptSendFiles(s, strings.TrimPrefix(raw, "ACCEPT_SEND_FILES:"))
	case strings.HasPrefix(raw, "DENY_SEND_FILES:"):
		core.HandleDenySendFiles(s, strings.TrimPrefix(raw, "DENY_SEND_FILES:"))
	case strings.HasPrefix(raw, "FILES_RECEIVED:"):
		core.HandleFilesReceived(s, strings.TrimPrefix(raw, "FILES_RECEIVED:"))
	default:
		// Unknown commands are dropped silently; see the protocol's error
		// design notes. Known commands from a session that has not yet
		// called SET_NAME are routed by the cases above like any other; the
		// session is just invisible to peers until it registers a name.
	}
}
