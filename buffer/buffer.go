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

// Package buffer provides a bounded FIFO that serializes inbound protocol
// work, coming from every connected session's reader goroutine, onto a
// single worker goroutine. Linearizing dispatch this way lets every handler
// assume sequential execution without reaching for its own locking, at the
// cost of a slow handler stalling the whole server; see the "single worker
// queue" design note in SPEC_FULL.md, section 9, for the tradeoff this
// accepts.
package buffer

import (
	"fmt"
	"runtime/debug"

	"github.com/nabbar/chatrelay/event"
	"github.com/nabbar/chatrelay/frame"
	"github.com/nabbar/chatrelay/session"
)

// Item is one unit of queued work: a frame received from Session, awaiting
// dispatch.
type Item struct {
	Session *session.Session
	Type    frame.Type
	Payload []byte
}

// Handler processes one Item. A Handler that panics is recovered by the
// worker and reported as an event.BufferError; it does not stop the worker.
type Handler func(Item)

// DefaultCapacity is used by New when capacity <= 0.
const DefaultCapacity = 1024

// Buffer is a single-consumer, multi-producer FIFO of Items.
type Buffer struct {
	queue   chan Item
	stop    chan struct{}
	stopped chan struct{}
	handle  Handler
	emit    func(event.Event)
}

// New creates a Buffer with the given capacity (DefaultCapacity if <= 0) and
// starts its worker goroutine immediately, draining into handle. emit, if
// non-nil, receives an event.BufferError for every handler panic.
func New(capacity int, handle Handler, emit func(event.Event)) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if emit == nil {
		emit = func(event.Event) {}
	}
	b := &Buffer{
		queue:   make(chan Item, capacity),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		handle:  handle,
		emit:    emit,
	}
	go b.loop()
	return b
}

// Add enqueues a request. It blocks if the buffer is at capacity, providing
// natural backpressure on the reader goroutines that call it.
func (b *Buffer) Add(item Item) {
	select {
	case b.queue <- item:
	case <-b.stop:
	}
}

func (b *Buffer) loop() {
	defer close(b.stopped)
	for {
		select {
		case item := <-b.queue:
			b.process(item)
		case <-b.stop:
			// Drain whatever is already queued before exiting, preserving
			// FIFO order for work enqueued before Stop was called.
			for {
				select {
				case item := <-b.queue:
					b.process(item)
				default:
					return
				}
			}
		}
	}
}

func (b *Buffer) process(item Item) {
	defer func() {
		if r := recover(); r != nil {
			name := ""
			if item.Session != nil {
				name = item.Session.Name()
			}
			b.emit(event.BufferError{
				SessionName: name,
				Msg:         fmt.Sprintf("%v\n%s", r, debug.Stack()),
			})
		}
	}()
	b.handle(item)
}

// Stop drains the buffer and joins the worker. It is safe to call exactly
// once; a second call panics, since it closes the already closed stop
// channel.
func (b *Buffer) Stop() {
	close(b.stop)
	<-b.stopped
}
