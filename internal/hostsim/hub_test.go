package hostsim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/bridge"
	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"github.com/HsiangNianian/hybridbridge/internal/transport"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	hub     *Hub
	srv     *httptest.Server
	page    *bridge.Bridge
	tr      *transport.WSTransport
	replies chan protocol.Response
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	cfg := config.Default().Host
	cfg.AuthToken = token
	cfg.InstalledApps = []string{"com.example.maps"}
	cfg.Location = config.Location{City: "Shanghai", Lat: "31.2", Lng: "121.4"}

	hub, err := NewHub(store.NewMemoryStore(), cfg, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(hub, cfg))
	t.Cleanup(srv.Close)

	tr, err := transport.DialWS(context.Background(), wsURL(srv, cfg.PagePath), token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	f := &fixture{hub: hub, srv: srv, tr: tr, replies: make(chan protocol.Response, 16)}
	f.page = bridge.New(bridge.Options{
		Context: hostctx.Default(),
		IOS:     tr,
		Android: tr,
		Handler: bridge.HandlerFunc(func(resp protocol.Response) any {
			f.replies <- resp
			return nil
		}),
	})
	tr.Listen(func(raw string) { f.page.Callback(raw) })

	require.Eventually(t, func() bool { return hub.Sessions() == 1 }, 5*time.Second, 10*time.Millisecond)
	return f
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func (f *fixture) next(t *testing.T) protocol.Response {
	t.Helper()
	select {
	case resp := <-f.replies:
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("no reply from host")
		return nil
	}
}

func TestPageSession(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	// Before the host reports a version, gated calls stay local.
	require.ErrorIs(t, f.page.ReadClipboard(ctx), bridge.ErrVersionTooLow)
	assert.Equal(t, protocol.TagVersionTooLow, f.next(t).TagName())

	require.NoError(t, f.page.InitMemberH5Info(ctx))
	info := f.next(t)
	assert.Equal(t, "init_member_H5_info", info.TagName())
	assert.Equal(t, "hostsim", info["device"])
	assert.True(t, f.page.Context().IsAndroid())
	assert.Equal(t, "5.5", f.page.Context().Version())

	require.NoError(t, f.page.CopyToClipboard(ctx, "hello"))
	assert.Equal(t, "copy_string_to_clipboard", f.next(t).TagName())

	require.NoError(t, f.page.ReadClipboard(ctx))
	clip := f.next(t)
	assert.Equal(t, "read_copied_string_from_clipboard", clip.TagName())
	assert.Equal(t, "hello", clip["copiedString"])

	require.NoError(t, f.page.CheckAppInstallStatus(ctx, "maps://", "com.example.maps"))
	assert.Equal(t, true, f.next(t)["isInstalledApp"])

	require.NoError(t, f.page.CheckNetworkStatus(ctx))
	assert.Equal(t, true, f.next(t)["hasNetwork"])

	require.NoError(t, f.page.Locate(ctx, false))
	loc := f.next(t)
	value := loc["param"].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, "Shanghai", value["ctyName"])

	require.NoError(t, f.page.DownloadData(ctx, "http://www.example.com/logo.gif"))
	dl := f.next(t)["param"].(map[string]any)
	assert.Equal(t, "http://www.example.com/logo.gif", dl["downloadUrl"])
	assert.True(t, strings.HasPrefix(dl["savedPath"].(string), "../wb_cache/"))

	// Unhandled actions are acknowledged with their tag.
	require.NoError(t, f.page.BackToHome(ctx))
	assert.Equal(t, protocol.Response{"tagname": "back_to_home"}, f.next(t))
}

func TestLoginKeepsUser(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.page.MemberLogin(ctx))
	first := f.next(t)
	assert.Equal(t, "member_login", first.TagName())
	user := first["param"].(map[string]any)["data"].(map[string]any)
	assert.NotEmpty(t, user["UserID"])
	assert.Equal(t, false, user["IsNonUser"])

	require.NoError(t, f.page.NonMemberLogin(ctx))
	second := f.next(t)
	assert.Equal(t, "non_member_login", second.TagName())
	again := second["param"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, user["UserID"], again["UserID"])
	assert.Equal(t, true, again["IsNonUser"])
}

func TestLogGetsNoReply(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.page.Log(ctx, "shown", "ok"))
	require.NoError(t, f.page.CheckUpdate(ctx))
	// The first reply to arrive is the one for CheckUpdate.
	assert.Equal(t, "check_update", f.next(t).TagName())
}

func TestMonitorSeesTraffic(t *testing.T) {
	f := newFixture(t, "")

	mon, _, err := websocket.DefaultDialer.Dial(wsURL(f.srv, config.Default().Host.MonitorPath), nil)
	require.NoError(t, err)
	defer mon.Close()
	require.Eventually(t, func() bool {
		f.hub.monitorMu.RLock()
		defer f.hub.monitorMu.RUnlock()
		return len(f.hub.monitors) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, f.page.CallPhone(context.Background(), "13800138000"))
	f.next(t)

	var in, out protocol.Trace
	require.NoError(t, mon.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, mon.ReadJSON(&in))
	require.NoError(t, mon.ReadJSON(&out))

	assert.Equal(t, DirectionPageToHost, in.Direction)
	assert.Contains(t, string(in.Payload), `"phone":"13800138000"`)
	assert.Equal(t, DirectionHostToPage, out.Direction)
	assert.Contains(t, string(out.Payload), `"call_phone"`)
	assert.Equal(t, in.Session, out.Session)
}

func TestPush(t *testing.T) {
	f := newFixture(t, "")

	assert.Equal(t, 1, f.hub.PushAll(protocol.Response{"tagname": "click_tag_name"}))
	assert.Equal(t, "click_tag_name", f.next(t).TagName())

	res, err := http.Post(f.srv.URL+"/push", "application/json", strings.NewReader(`{"tagname":"web_view_refresh"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "web_view_refresh", f.next(t).TagName())

	res, err = http.Post(f.srv.URL+"/push", "application/json", strings.NewReader(`[1]`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	assert.ErrorIs(t, f.hub.Push("nope", protocol.Response{}), ErrUnknownSession)
}

func TestSessionRoutes(t *testing.T) {
	f := newFixture(t, "")

	res, err := http.Get(f.srv.URL + "/sessions")
	require.NoError(t, err)
	var listed struct {
		Sessions []string `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&listed))
	res.Body.Close()
	require.Len(t, listed.Sessions, 1)
	assert.Equal(t, f.hub.SessionIDs(), listed.Sessions)

	res, err = http.Post(f.srv.URL+"/sessions/"+listed.Sessions[0]+"/push", "application/json", strings.NewReader(`{"tagname":"click_tag_name"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "click_tag_name", f.next(t).TagName())

	res, err = http.Post(f.srv.URL+"/sessions/missing/push", "application/json", strings.NewReader(`{"tagname":"x"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = http.Get(f.srv.URL + "/push")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, err = http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAuthToken(t *testing.T) {
	f := newFixture(t, "secret")

	_, res, err := websocket.DefaultDialer.Dial(wsURL(f.srv, config.Default().Host.PagePath), nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	require.NoError(t, f.page.CheckNetworkStatus(context.Background()))
	assert.Equal(t, "check_network_status", f.next(t).TagName())
}

func TestCustomHandler(t *testing.T) {
	f := newFixture(t, "")
	f.hub.Handle("Util", "callPhone", func(_ context.Context, _ string, req protocol.Request) (protocol.Response, error) {
		return protocol.Response{"dialed": req.Fields["phone"], "tagname": "ignored"}, nil
	})

	require.NoError(t, f.page.CallPhone(context.Background(), "10086"))
	resp := f.next(t)
	assert.Equal(t, "call_phone", resp.TagName())
	assert.Equal(t, "10086", resp["dialed"])
}
