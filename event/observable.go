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

package event

import "sync"

// Observer receives every event emitted by an Observable, in subscription
// order. A panic inside an Observer is recovered and swallowed so a single
// misbehaving consumer cannot take down the emitter's goroutine.
type Observer func(Event)

// Observable is a thread-safe subscriber list. Emit delivers synchronously,
// in the emitting goroutine, to a snapshot of the subscriber list taken
// under lock; subscribers added or removed during delivery do not affect
// the event currently being emitted.
type Observable struct {
	mu   sync.Mutex
	subs []subscription
	next uint64
}

type subscription struct {
	id uint64
	fn Observer
}

// Token identifies a prior Subscribe call for Unsubscribe.
type Token uint64

// Subscribe registers fn to receive every subsequent event. It returns a
// Token that Unsubscribe accepts to remove this registration.
func (o *Observable) Subscribe(fn Observer) Token {
	if fn == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next++
	id := o.next
	o.subs = append(o.subs, subscription{id: id, fn: fn})
	return Token(id)
}

// Unsubscribe removes a previously registered observer. It is a no-op if
// the token is unknown or was already removed.
func (o *Observable) Unsubscribe(tok Token) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, s := range o.subs {
		if s.id == uint64(tok) {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to every subscribed observer, in subscription order.
func (o *Observable) Emit(ev Event) {
	o.mu.Lock()
	subs := make([]subscription, len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		deliver(s.fn, ev)
	}
}

func deliver(fn Observer, ev Event) {
	defer func() { _ = recover() }()
	fn(ev)
}
