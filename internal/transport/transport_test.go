package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var callPhone = protocol.Request{
	Service:     "Util",
	Action:      "callPhone",
	CallbackTag: "call_phone",
	Fields:      map[string]any{"phone": "13800138000"},
}

func TestURLTransportLoadsEncodedFrame(t *testing.T) {
	var gotURL string
	var gotTTL time.Duration
	loader := FrameLoaderFunc(func(u string, ttl time.Duration) error {
		gotURL, gotTTL = u, ttl
		return nil
	})

	tr := NewURLTransport("", 0, loader, nil)
	require.NoError(t, tr.Send(context.Background(), callPhone))

	prefix := "ctrip://h5/plugin?jsparam="
	require.True(t, strings.HasPrefix(gotURL, prefix), gotURL)
	assert.Equal(t, DefaultFrameTTL, gotTTL)

	payload, err := url.PathUnescape(strings.TrimPrefix(gotURL, prefix))
	require.NoError(t, err)
	req, err := protocol.ParseRequest(payload)
	require.NoError(t, err)
	assert.Equal(t, "callPhone", req.Action)
	assert.Equal(t, "13800138000", req.Fields["phone"])
}

func TestDirectTransportCallsServiceProxy(t *testing.T) {
	var object, method, payload string
	proxy := ProxyInvokerFunc(func(o, m, p string) error {
		object, method, payload = o, m, p
		return nil
	})

	tr := NewDirectTransport(proxy, nil)
	require.NoError(t, tr.Send(context.Background(), callPhone))

	assert.Equal(t, "Util_a", object)
	assert.Equal(t, "callPhone", method)
	assert.Equal(t, callPhone.Encode(), payload)
}

func TestEmptyEnvelopeIsNotSent(t *testing.T) {
	called := false
	nav := NewURLTransport("", 0, FrameLoaderFunc(func(string, time.Duration) error {
		called = true
		return nil
	}), nil)
	direct := NewDirectTransport(ProxyInvokerFunc(func(string, string, string) error {
		called = true
		return nil
	}), nil)

	bad := protocol.Request{Service: "Util"}
	assert.ErrorIs(t, nav.Send(context.Background(), bad), ErrEmptyEnvelope)
	assert.ErrorIs(t, direct.Send(context.Background(), bad), ErrEmptyEnvelope)
	assert.False(t, called)
}

func TestSelect(t *testing.T) {
	var hit string
	ios := SenderFunc(func(context.Context, protocol.Request) error { hit = "ios"; return nil })
	android := SenderFunc(func(context.Context, protocol.Request) error { hit = "android"; return nil })

	cases := map[hostctx.Platform]string{
		hostctx.PlatformIOS:     "ios",
		hostctx.PlatformAndroid: "android",
		hostctx.PlatformUnknown: "ios",
	}
	for p, want := range cases {
		hit = ""
		s := Select(hostctx.New(p, "5.5"), ios, android)
		require.NoError(t, s.Send(context.Background(), callPhone))
		assert.Equal(t, want, hit, p.String())
	}
}

func TestWSTransportRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, err := protocol.ParseRequest(string(data))
			if err != nil {
				return
			}
			raw, _ := protocol.EncodeResponse(protocol.Response{"tagname": req.CallbackTag})
			_ = conn.WriteMessage(websocket.TextMessage, []byte(raw))
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	tr, err := DialWS(context.Background(), wsURL, "secret", nil)
	require.NoError(t, err)

	got := make(chan string, 1)
	tr.Listen(func(raw string) { got <- raw })
	require.NoError(t, tr.Send(context.Background(), callPhone))

	select {
	case raw := <-got:
		resp, err := protocol.DecodeResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, "call_phone", resp.TagName())
	case <-time.After(5 * time.Second):
		t.Fatal("no response from host")
	}

	require.NoError(t, tr.Close())
	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not exit")
	}
}

func TestWSTransportDoneWithoutListen(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	tr, err := DialWS(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), "", nil)
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}
	tr.Listen(func(string) { t.Error("listener started after Close") })
}
