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

// Package frame implements the wire codec for the chat relay protocol: a
// length-prefixed TLV frame of one byte of type, four bytes of big-endian
// length, and exactly length bytes of payload.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Type identifies the kind of payload a frame carries.
type Type uint8

const (
	// Chat carries a UTF-8 "FROM:<sender>:<text>" chat message.
	Chat Type = 0
	// Control carries a UTF-8 command or reply of the text sub-protocol.
	Control Type = 1
	// Binary carries a chunk of the file-relay wire format.
	Binary Type = 2
)

func (t Type) String() string {
	switch t {
	case Chat:
		return "chat"
	case Control:
		return "control"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// headerLen is the size in bytes of the type+length header that precedes
// every frame's payload.
const headerLen = 5

// MaxPayload bounds how large a single frame's payload may declare itself to
// be before Read refuses it. The wire format allows up to 2^32-1 bytes; a
// server should keep this far lower to avoid a malicious or buggy peer
// forcing a multi-gigabyte allocation. Zero means unbounded.
var MaxPayload uint32 = 0

// Encode serializes one frame. It fails if t is not one of Chat, Control, or
// Binary, or if payload is too large to declare in a uint32 length.
func Encode(t Type, payload []byte) ([]byte, error) {
	if t != Chat && t != Control && t != Binary {
		return nil, fmt.Errorf("frame: invalid type %d", t)
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("frame: payload too large (%d bytes)", len(payload))
	}

	buf := make([]byte, headerLen+len(payload))
	buf[0] = byte(t)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	return buf, nil
}

// Read reads one full frame from r, blocking until the header and payload
// are both drained. It returns io.EOF only when the stream ends cleanly
// before any byte of a new frame is read; a partial header or payload is
// reported as io.ErrUnexpectedEOF wrapped with context.
func Read(r io.Reader) (Type, []byte, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("frame: reading header: %w", err)
	}

	t := Type(hdr[0])
	length := binary.BigEndian.Uint32(hdr[1:5])

	if MaxPayload > 0 && length > MaxPayload {
		// Still must be drained or discarded; the caller owns the
		// connection and is expected to close it rather than resync.
		return 0, nil, fmt.Errorf("frame: payload of %d bytes exceeds limit of %d", length, MaxPayload)
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF {
				// The header promised a payload; ending here is truncation.
				err = io.ErrUnexpectedEOF
			}
			return 0, nil, fmt.Errorf("frame: reading payload: %w", err)
		}
	}
	return t, payload, nil
}
