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

// Package event defines the typed value set the chat relay server emits for
// observers, plus the Observable mixin that delivers them.
//
// Events carry no formatting or presentation logic of their own: a logger, a
// metrics collector, or a test harness all subscribe to the same stream and
// decide independently what to do with each value.
package event

import (
	"net"

	"github.com/google/uuid"
)

// Event is the marker interface every emitted value satisfies.
type Event interface {
	// Name returns a short, stable identifier for the event's type, used by
	// observers that want to filter or log without a type switch.
	Name() string
}

type ServerStarted struct {
	BindIP    string
	Port      int
	NetworkIP string
}

func (ServerStarted) Name() string { return "server_started" }

type ServerStopped struct {
	NetworkIP string
	Port      int
}

func (ServerStopped) Name() string { return "server_stopped" }

type FatalError struct {
	Msg string
}

func (FatalError) Name() string { return "fatal_error" }

type ClientHandshakeStarted struct {
	Addr     net.Addr
	TempName string
	SessID   uuid.UUID
}

func (ClientHandshakeStarted) Name() string { return "client_handshake_started" }

type ClientJoined struct {
	Name string
	Addr net.Addr
}

func (ClientJoined) Name() string { return "client_joined" }

type ClientDisconnected struct {
	Name string
	Addr net.Addr
}

func (ClientDisconnected) Name() string { return "client_disconnected" }

type ActiveConnectionsChanged struct {
	Count int
}

func (ActiveConnectionsChanged) Name() string { return "active_connections_changed" }

type ChatEstablished struct {
	A, B string
}

func (ChatEstablished) Name() string { return "chat_established" }

type ChatEnded struct {
	Who, WithWhom string
}

func (ChatEnded) Name() string { return "chat_ended" }

type FileTransferRequested struct {
	Sender, Receiver string
	Count            int
}

func (FileTransferRequested) Name() string { return "file_transfer_requested" }

type FileTransferAccepted struct {
	Receiver, Sender string
}

func (FileTransferAccepted) Name() string { return "file_transfer_accepted" }

type FileTransferDenied struct {
	Receiver, Sender string
}

func (FileTransferDenied) Name() string { return "file_transfer_denied" }

type FileTransferRouted struct {
	Sender, Receiver string
}

func (FileTransferRouted) Name() string { return "file_transfer_routed" }

type FileTransferCompleted struct {
	Receiver, Sender string
}

func (FileTransferCompleted) Name() string { return "file_transfer_completed" }

type BufferError struct {
	SessionName string
	Msg         string
}

func (BufferError) Name() string { return "buffer_error" }

type ClientError struct {
	SessionName string
	Msg         string
}

func (ClientError) Name() string { return "client_error" }
