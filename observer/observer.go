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

// Package observer renders the server's event stream as structured log
// entries. It carries no protocol logic: every field it logs comes straight
// off the event it is given.
package observer

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/chatrelay/event"
)

// Format selects the logrus formatter used by New.
type Format uint8

const (
	// TextFormat renders entries as logfmt-style text.
	TextFormat Format = iota
	// JSONFormat renders entries as JSON.
	JSONFormat
)

// ParseFormat maps a case-insensitive name ("text", "json") to a Format. It
// defaults to TextFormat for anything unrecognized.
func ParseFormat(name string) Format {
	if strings.EqualFold(name, "json") {
		return JSONFormat
	}
	return TextFormat
}

// Logger wraps a dedicated *logrus.Logger so this package never mutates the
// shared logrus singleton underneath an embedding application.
type Logger struct {
	log *logrus.Logger
}

// New builds a Logger writing to out in the given format.
func New(out io.Writer, format Format) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	switch format {
	case JSONFormat:
		l.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: false})
	default:
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false})
	}
	return &Logger{log: l}
}

// Observer returns an event.Observer that logs ev at a level chosen by its
// kind: FatalError is an error, ClientError/BufferError/FileTransferDenied
// are warnings, everything else is informational.
func (l *Logger) Observer() event.Observer {
	return func(ev event.Event) {
		entry := l.log.WithField("event", ev.Name())

		switch e := ev.(type) {
		case event.ServerStarted:
			entry.WithFields(logrus.Fields{"bind_ip": e.BindIP, "port": e.Port, "network_ip": e.NetworkIP}).Info("server started")
		case event.ServerStopped:
			entry.WithFields(logrus.Fields{"network_ip": e.NetworkIP, "port": e.Port}).Info("server stopped")
		case event.FatalError:
			entry.Error(e.Msg)
		case event.ClientHandshakeStarted:
			entry.WithFields(logrus.Fields{"addr": e.Addr, "temp_name": e.TempName, "session_id": e.SessID}).Info("handshake started")
		case event.ClientJoined:
			entry.WithFields(logrus.Fields{"name": e.Name, "addr": e.Addr}).Info("client joined")
		case event.ClientDisconnected:
			entry.WithFields(logrus.Fields{"name": e.Name, "addr": e.Addr}).Info("client disconnected")
		case event.ActiveConnectionsChanged:
			entry.WithField("count", e.Count).Info("active connections changed")
		case event.ChatEstablished:
			entry.WithFields(logrus.Fields{"a": e.A, "b": e.B}).Info("chat established")
		case event.ChatEnded:
			entry.WithFields(logrus.Fields{"who": e.Who, "with_whom": e.WithWhom}).Info("chat ended")
		case event.FileTransferRequested:
			entry.WithFields(logrus.Fields{"sender": e.Sender, "receiver": e.Receiver, "count": e.Count}).Info("file transfer requested")
		case event.FileTransferAccepted:
			entry.WithFields(logrus.Fields{"sender": e.Sender, "receiver": e.Receiver}).Info("file transfer accepted")
		case event.FileTransferDenied:
			entry.WithFields(logrus.Fields{"sender": e.Sender, "receiver": e.Receiver}).Warn("file transfer denied")
		case event.FileTransferRouted:
			entry.WithFields(logrus.Fields{"sender": e.Sender, "receiver": e.Receiver}).Info("file transfer routed")
		case event.FileTransferCompleted:
			entry.WithFields(logrus.Fields{"sender": e.Sender, "receiver": e.Receiver}).Info("file transfer completed")
		case event.BufferError:
			entry.WithFields(logrus.Fields{"session": e.SessionName, "msg": e.Msg}).Warn("buffer error")
		case event.ClientError:
			entry.WithFields(logrus.Fields{"session": e.SessionName, "msg": e.Msg}).Warn("client error")
		default:
			entry.Info("event")
		}
	}
}
