package observer_test

import (
	"bytes"
	"encoding/json"
	"net"

	"github.com/nabbar/chatrelay/event"
	"github.com/nabbar/chatrelay/observer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("observer", func() {
	It("parses format names case-insensitively, defaulting to text", func() {
		Expect(observer.ParseFormat("json")).To(Equal(observer.JSONFormat))
		Expect(observer.ParseFormat("JSON")).To(Equal(observer.JSONFormat))
		Expect(observer.ParseFormat("text")).To(Equal(observer.TextFormat))
		Expect(observer.ParseFormat("")).To(Equal(observer.TextFormat))
	})

	It("renders an event as one JSON log line with the expected fields", func() {
		var buf bytes.Buffer
		l := observer.New(&buf, observer.JSONFormat)
		l.Observer()(event.ClientJoined{Name: "alice", Addr: &net.TCPAddr{IP: net.ParseIP("127.0.0.1")}})

		var decoded map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded["event"]).To(Equal("client_joined"))
		Expect(decoded["name"]).To(Equal("alice"))
		Expect(decoded["level"]).To(Equal("info"))
	})

	It("logs a FatalError at error level", func() {
		var buf bytes.Buffer
		l := observer.New(&buf, observer.JSONFormat)
		l.Observer()(event.FatalError{Msg: "listener closed"})

		var decoded map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded["level"]).To(Equal("error"))
		Expect(decoded["msg"]).To(Equal("listener closed"))
	})

	It("logs a ClientError at warning level", func() {
		var buf bytes.Buffer
		l := observer.New(&buf, observer.JSONFormat)
		l.Observer()(event.ClientError{SessionName: "bob", Msg: "reset by peer"})

		var decoded map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded["level"]).To(Equal("warning"))
		Expect(decoded["session"]).To(Equal("bob"))
	})

	It("never mutates the package-level logrus singleton", func() {
		var bufA, bufB bytes.Buffer
		a := observer.New(&bufA, observer.JSONFormat)
		b := observer.New(&bufB, observer.TextFormat)

		a.Observer()(event.ActiveConnectionsChanged{Count: 1})
		b.Observer()(event.ActiveConnectionsChanged{Count: 2})

		Expect(bufA.String()).To(ContainSubstring(`"count":1`))
		Expect(bufB.String()).ToNot(ContainSubstring("json"))
	})
})
