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

// Package testclient is a minimal client sufficient to exercise the server:
// it speaks the frame codec and the command vocabulary of section 6 of the
// protocol, and parses the events a real client would need to drive a UI.
// It has no GUI, no file-selection dialog, and no local persistence — those
// are out of scope per the specification's external-collaborator boundary.
package testclient

import (
	"fmt"
	"net"
	"time"

	"github.com/nabbar/chatrelay/frame"
)

// Client is a bare socket speaking the chat relay wire protocol, for tests.
type Client struct {
	conn net.Conn
}

// Dial connects to addr and returns a Client wrapping the raw socket.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying socket.
func (c *Client) Close() error { return c.conn.Close() }

// Send writes one frame.
func (c *Client) Send(t frame.Type, payload []byte) error {
	buf, err := frame.Encode(t, payload)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(buf)
	return err
}

// SendText is a convenience wrapper around Send for UTF-8 commands.
func (c *Client) SendText(t frame.Type, text string) error {
	return c.Send(t, []byte(text))
}

// Next blocks for the next frame from the server.
func (c *Client) Next() (frame.Type, []byte, error) {
	return frame.Read(c.conn)
}

// NextWithin blocks for the next frame, failing with an error if none
// arrives before timeout. Tests use this so a protocol regression surfaces
// as a failure instead of a hang.
func (c *Client) NextWithin(timeout time.Duration) (frame.Type, []byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()
	return c.Next()
}

// SendFile writes one type-2 relay frame: dst_len|dst|filename_len|filename|data.
func (c *Client) SendFile(dst, filename string, data []byte) error {
	if len(dst) > 255 || len(filename) > 255 {
		return fmt.Errorf("testclient: name or filename exceeds 255 bytes")
	}
	payload := make([]byte, 0, 2+len(dst)+len(filename)+len(data))
	payload = append(payload, byte(len(dst)))
	payload = append(payload, dst...)
	payload = append(payload, byte(len(filename)))
	payload = append(payload, filename...)
	payload = append(payload, data...)
	return c.Send(frame.Binary, payload)
}

// ParsedFile is the decoded form of an inbound type-2 relay frame.
type ParsedFile struct {
	Sender   string
	Filename string
	Data     []byte
}

// ParseFile decodes a forwarded file frame's payload:
// sender_len|sender|filename_len|filename|data.
func ParseFile(payload []byte) (ParsedFile, error) {
	if len(payload) < 1 {
		return ParsedFile{}, fmt.Errorf("testclient: empty file payload")
	}
	sLen := int(payload[0])
	if len(payload) < 1+sLen+1 {
		return ParsedFile{}, fmt.Errorf("testclient: truncated file payload")
	}
	sender := string(payload[1 : 1+sLen])
	fLen := int(payload[1+sLen])
	start := 2 + sLen
	if len(payload) < start+fLen {
		return ParsedFile{}, fmt.Errorf("testclient: truncated filename")
	}
	filename := string(payload[start : start+fLen])
	data := payload[start+fLen:]
	return ParsedFile{Sender: sender, Filename: filename, Data: data}, nil
}

// PendingLot is the receiving client's bookkeeping for an in-flight batch of
// files: it knows a lot is complete only by counting down from the count
// carried by REQ_SEND_FILES_FROM, since the server holds no per-lot state of
// its own.
type PendingLot struct {
	Sender    string
	Remaining int
}

// Received decrements Remaining and reports whether the lot is now complete.
func (p *PendingLot) Received() (complete bool) {
	if p.Remaining > 0 {
		p.Remaining--
	}
	return p.Remaining == 0
}
