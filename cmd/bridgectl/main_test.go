package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/bridge"
	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/HsiangNianian/hybridbridge/internal/hostsim"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"github.com/HsiangNianian/hybridbridge/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEveryCommandSends(t *testing.T) {
	var actions []string
	sender := transport.SenderFunc(func(_ context.Context, req protocol.Request) error {
		actions = append(actions, req.Action)
		return nil
	})
	b := bridge.New(bridge.Options{
		Context: hostctx.New(hostctx.PlatformIOS, "5.5"),
		IOS:     sender,
		Handler: bridge.HandlerFunc(func(protocol.Response) any { return nil }),
	})

	for name, cmd := range commands {
		args := []string{}
		for i := 0; i < cmd.args; i++ {
			args = append(args, `{"center":[]}`)
		}
		before := len(actions)
		require.NoError(t, cmd.run(context.Background(), b, args), name)
		assert.Len(t, actions, before+1, name)
	}
	assert.Len(t, usageLines(), len(commands))
}

func TestOpenURLRejectsBadMode(t *testing.T) {
	b := bridge.New(bridge.Options{Context: hostctx.Default()})
	err := commands["open-url"].run(context.Background(), b, []string{"http://x", "fast"})
	assert.Error(t, err)
}

func TestRunAgainstHostSimulator(t *testing.T) {
	cfg := config.Default()
	cfg.Host.AuthToken = ""
	hub, err := hostsim.NewHub(store.NewMemoryStore(), cfg.Host, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(hostsim.NewRouter(hub, cfg.Host))
	defer srv.Close()

	target := "ws" + strings.TrimPrefix(srv.URL, "http") + cfg.Host.PagePath
	err = run(context.Background(), cfg, target, 5*time.Second, true, commands["network"], nil, zap.NewNop())
	assert.NoError(t, err)

	// Without init the bootstrap context has no version, so the gate answers locally.
	err = run(context.Background(), cfg, target, 5*time.Second, false, commands["paste"], nil, zap.NewNop())
	assert.NoError(t, err)

	// The host only records log lines, so these return once sent.
	err = run(context.Background(), cfg, target, time.Second, false, commands["log"], []string{"hello"}, zap.NewNop())
	assert.NoError(t, err)
	err = run(context.Background(), cfg, target, time.Second, false, commands["log-event"], []string{"opened"}, zap.NewNop())
	assert.NoError(t, err)
}

func TestOnlyLogCommandsExpectNoReply(t *testing.T) {
	for name, cmd := range commands {
		assert.Equal(t, name == "log" || name == "log-event", cmd.noReply, name)
	}
}
