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

package server_test

import (
	"context"
	"fmt"
	"time"

	"github.com/nabbar/chatrelay/event"
	"github.com/nabbar/chatrelay/frame"
	"github.com/nabbar/chatrelay/server"
	"github.com/nabbar/chatrelay/testclient"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const stepTimeout = 2 * time.Second

// newServer starts a Server on an OS-assigned loopback port and returns its
// address plus a teardown func that cancels the context and waits for a
// clean ListenAndServe return.
func newServer() (addr string, teardown func()) {
	srv := server.New(server.Config{BindIP: "127.0.0.1", Port: 0, BufferCapacity: 16})

	started := make(chan event.ServerStarted, 1)
	srv.Subscribe(func(ev event.Event) {
		if se, ok := ev.(event.ServerStarted); ok {
			started <- se
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	var se event.ServerStarted
	Eventually(started, stepTimeout).Should(Receive(&se))
	addr = fmt.Sprintf("127.0.0.1:%d", se.Port)

	return addr, func() {
		cancel()
		Eventually(done, stepTimeout).Should(Receive())
	}
}

func dial(addr string) *testclient.Client {
	c, err := testclient.Dial(addr)
	Expect(err).ToNot(HaveOccurred())
	return c
}

func register(c *testclient.Client, name string) {
	Expect(c.SendText(frame.Control, "SET_NAME:"+name)).To(Succeed())
	typ, payload, err := c.NextWithin(stepTimeout)
	Expect(err).ToNot(HaveOccurred())
	Expect(typ).To(Equal(frame.Control))
	Expect(string(payload)).To(Equal("NAME_OK"))
}

func establishChat(a, b *testclient.Client) {
	Expect(a.SendText(frame.Control, "REQ_CHAT:B")).To(Succeed())
	_, payload, err := b.NextWithin(stepTimeout)
	Expect(err).ToNot(HaveOccurred())
	Expect(string(payload)).To(Equal("REQ_CHAT_FROM:A"))

	Expect(b.SendText(frame.Control, "ACCEPT_CHAT:A")).To(Succeed())

	_, pa, err := a.NextWithin(stepTimeout)
	Expect(err).ToNot(HaveOccurred())
	Expect(string(pa)).To(Equal("CHAT_ACCEPTED:B"))

	_, pb, err := b.NextWithin(stepTimeout)
	Expect(err).ToNot(HaveOccurred())
	Expect(string(pb)).To(Equal("CHAT_ACCEPTED:A"))
}

var _ = Describe("server", func() {
	var (
		addr     string
		teardown func()
	)

	BeforeEach(func() {
		addr, teardown = newServer()
	})

	AfterEach(func() {
		teardown()
	})

	It("registers a name and lists it back", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")

		Expect(a.SendText(frame.Control, "GET_USERS")).To(Succeed())
		_, payload, err := a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("LIST_USERS:A"))
	})

	It("rejects a colliding name, then accepts a free one", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")

		b := dial(addr)
		defer b.Close()
		Expect(b.SendText(frame.Control, "SET_NAME:A")).To(Succeed())
		_, payload, err := b.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("NAME_TAKEN"))

		register(b, "B")
	})

	It("re-registers a session under a new name, releasing the old one", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		register(a, "A2")

		b := dial(addr)
		defer b.Close()
		register(b, "A")
	})

	It("runs the chat handshake and delivers a message", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		b := dial(addr)
		defer b.Close()
		register(b, "B")

		establishChat(a, b)

		Expect(a.SendText(frame.Control, "CHAT:B:hey")).To(Succeed())
		typ, payload, err := b.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(typ).To(Equal(frame.Chat))
		Expect(string(payload)).To(Equal("FROM:A:hey"))
	})

	It("preserves ':' characters inside chat text beyond the second split", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		b := dial(addr)
		defer b.Close()
		register(b, "B")
		establishChat(a, b)

		Expect(a.SendText(frame.Control, "CHAT:B:10:30:00 see you then")).To(Succeed())
		_, payload, err := b.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("FROM:A:10:30:00 see you then"))
	})

	It("errors a chat message sent without an active pairing", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		b := dial(addr)
		defer b.Close()
		register(b, "B")

		Expect(a.SendText(frame.Control, "CHAT:B:hey")).To(Succeed())
		_, payload, err := a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(HavePrefix("ERROR:No tienes un chat activo con B."))
	})

	It("stops a chat then errors a subsequent message", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		b := dial(addr)
		defer b.Close()
		register(b, "B")
		establishChat(a, b)

		Expect(a.SendText(frame.Control, "STOP_CHAT:B")).To(Succeed())
		_, payload, err := b.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("CHAT_STOPPED:A"))

		Expect(a.SendText(frame.Control, "CHAT:B:yo")).To(Succeed())
		_, payload, err = a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(HavePrefix("ERROR:"))
	})

	It("relays a two-file lot with consent and completion", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		b := dial(addr)
		defer b.Close()
		register(b, "B")
		establishChat(a, b)

		Expect(a.SendText(frame.Control, "REQ_SEND_FILES:B:2")).To(Succeed())
		_, payload, err := b.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("REQ_SEND_FILES_FROM:A:2"))

		Expect(b.SendText(frame.Control, "ACCEPT_SEND_FILES:A")).To(Succeed())
		_, payload, err = a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("ACCEPT_SEND_FILES_FROM:B"))

		lot := testclient.PendingLot{Sender: "A", Remaining: 2}
		for _, fname := range []string{"f1", "f2"} {
			Expect(a.SendFile("B", fname, []byte("contents-of-"+fname))).To(Succeed())
			typ, fp, err := b.NextWithin(stepTimeout)
			Expect(err).ToNot(HaveOccurred())
			Expect(typ).To(Equal(frame.Binary))

			parsed, err := testclient.ParseFile(fp)
			Expect(err).ToNot(HaveOccurred())
			Expect(parsed.Sender).To(Equal("A"))
			Expect(parsed.Filename).To(Equal(fname))
			lot.Received()
		}
		Expect(lot.Remaining).To(Equal(0))

		Expect(b.SendText(frame.Control, "FILES_RECEIVED:A")).To(Succeed())
		_, payload, err = a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("FILES_RECEIVED_FROM:B"))
	})

	It("refuses a file relay without an active pairing", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")
		b := dial(addr)
		defer b.Close()
		register(b, "B")

		Expect(a.SendFile("B", "f1", []byte("data"))).To(Succeed())
		_, payload, err := a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(HavePrefix("ERROR:"))
	})

	It("cleans up the active pairing when a peer disconnects", func() {
		a := dial(addr)
		b := dial(addr)
		defer b.Close()
		register(a, "A")
		register(b, "B")
		establishChat(a, b)

		Expect(a.Close()).To(Succeed())

		c := dial(addr)
		defer c.Close()
		register(c, "A")

		Expect(b.SendText(frame.Control, "CHAT:A:still there?")).To(Succeed())
		_, payload, err := b.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(HavePrefix("ERROR:"))
	})

	It("keeps an unnamed session invisible to GET_USERS on a peer", func() {
		unnamed := dial(addr)
		defer unnamed.Close()

		Expect(unnamed.SendText(frame.Control, "GET_USERS")).To(Succeed())
		_, payload, err := unnamed.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("LIST_USERS:"))

		a := dial(addr)
		defer a.Close()
		register(a, "A")
		Expect(a.SendText(frame.Control, "GET_USERS")).To(Succeed())
		_, payload, err = a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("LIST_USERS:A"))
	})

	It("errors REQ_CHAT against an unknown target", func() {
		a := dial(addr)
		defer a.Close()
		register(a, "A")

		Expect(a.SendText(frame.Control, "REQ_CHAT:ghost")).To(Succeed())
		_, payload, err := a.NextWithin(stepTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(payload)).To(Equal("ERROR:Usuario ghost no encontrado"))
	})
})

var _ = Describe("server connection cap", func() {
	It("holds a second connection's accept until a slot frees up", func() {
		srv := server.New(server.Config{BindIP: "127.0.0.1", Port: 0, BufferCapacity: 16, MaxConnections: 1})

		started := make(chan event.ServerStarted, 1)
		srv.Subscribe(func(ev event.Event) {
			if se, ok := ev.(event.ServerStarted); ok {
				started <- se
			}
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- srv.ListenAndServe(ctx) }()

		var se event.ServerStarted
		Eventually(started, stepTimeout).Should(Receive(&se))
		addr := fmt.Sprintf("127.0.0.1:%d", se.Port)

		a := dial(addr)
		defer a.Close()
		register(a, "A")

		b, err := testclient.Dial(addr)
		Expect(err).ToNot(HaveOccurred())
		defer b.Close()

		Expect(b.SendText(frame.Control, "SET_NAME:B")).To(Succeed())
		_, _, err = b.NextWithin(300 * time.Millisecond)
		Expect(err).To(HaveOccurred())

		Expect(a.Close()).To(Succeed())

		register(b, "B")

		cancel()
		Eventually(done, stepTimeout).Should(Receive())
	})
})
