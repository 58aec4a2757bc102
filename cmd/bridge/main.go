//go:build js && wasm

// Command bridge is the in-page half of the hybrid app protocol, built with
// GOOS=js GOARCH=wasm and loaded by every page of the embedded web view.
//
// Globals installed on window:
//
//	__bridge_callback(encoded)        entry point the native host calls with replies
//	__writeLocalStorage(key, value)   key/value write helper
//	HybridBridge.<method>(...)        capability calls, see methods below
//
// Replies are handed to window.app.callback(jsonObject), which the page defines.
package main

import (
	"context"
	"log"
	"syscall/js"

	"github.com/HsiangNianian/hybridbridge/internal/bridge"
	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/HsiangNianian/hybridbridge/internal/logging"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"github.com/HsiangNianian/hybridbridge/internal/transport"
	"go.uber.org/zap"
)

type method func(ctx context.Context, b *bridge.Bridge, args []js.Value) error

var methods = map[string]method{
	"log": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.Log(ctx, str(a, 0), str(a, 1))
	},
	"logEvent": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.LogEvent(ctx, str(a, 0))
	},
	"initMemberH5Info": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.InitMemberH5Info(ctx)
	},
	"callPhone": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.CallPhone(ctx, str(a, 0))
	},
	"backToHome": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.BackToHome(ctx)
	},
	"backToLastPage": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.BackToLast(ctx, str(a, 0))
	},
	"locate": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.Locate(ctx, len(a) > 0 && a[0].Truthy())
	},
	"refreshNavBar": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.RefreshNavBar(ctx, str(a, 0))
	},
	"openUrl": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		mode := bridge.OpenInCurrentView
		if len(a) > 1 && a[1].Type() == js.TypeNumber {
			mode = a[1].Int()
		}
		return b.OpenURL(ctx, str(a, 0), mode, str(a, 2))
	},
	"checkUpdate": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.CheckUpdate(ctx)
	},
	"recommendAppToFriends": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.RecommendAppToFriends(ctx)
	},
	"addWeixinFriend": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.AddWeixinFriend(ctx)
	},
	"crossPackageHref": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.CrossPackageHref(ctx, str(a, 0), str(a, 1))
	},
	"showNewestIntroduction": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.ShowNewestIntroduction(ctx)
	},
	"checkNetworkStatus": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.CheckNetworkStatus(ctx)
	},
	"checkAppInstallStatus": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.CheckAppInstallStatus(ctx, str(a, 0), str(a, 1))
	},
	"refreshNativePage": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.RefreshNativePage(ctx, str(a, 0), str(a, 1))
	},
	"copyStringToClipboard": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.CopyToClipboard(ctx, str(a, 0))
	},
	"readCopiedStringFromClipboard": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.ReadClipboard(ctx)
	},
	"callSystemShare": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.SystemShare(ctx, str(a, 0), str(a, 1))
	},
	"downloadData": func(ctx context.Context, b *bridge.Bridge, a []js.Value) error {
		return b.DownloadData(ctx, str(a, 0))
	},
	"memberLogin": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.MemberLogin(ctx)
	},
	"nonMemberLogin": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.NonMemberLogin(ctx)
	},
	"memberAutoLogin": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.MemberAutoLogin(ctx)
	},
	"memberRegister": func(ctx context.Context, b *bridge.Bridge, _ []js.Value) error {
		return b.MemberRegister(ctx)
	},
}

func main() {
	cfg := config.Default()
	if raw := js.Global().Get("__bridge_config"); raw.Type() == js.TypeString {
		parsed, err := config.Parse([]byte(raw.String()))
		if err != nil {
			log.Printf("bridge config ignored: %v", err)
		} else {
			cfg = parsed
		}
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logger = zap.NewNop()
	}
	hc, err := cfg.Bridge.Context()
	if err != nil {
		logger.Warn("bootstrap context invalid", zap.Error(err))
	}

	var st store.Store
	if ls, err := store.NewLocalStorage(); err == nil {
		st = ls
	} else {
		logger.Warn("fall back to memory store", zap.Error(err))
		st = store.NewMemoryStore()
	}

	b := bridge.New(bridge.Options{
		Context: hc,
		IOS:     transport.NewURLTransport(cfg.Bridge.Scheme, cfg.Bridge.FrameTTL(), transport.DOMFrameLoader{}, logger),
		Android: transport.NewDirectTransport(transport.GlobalProxy{}, logger),
		Handler: pageHandler{},
		Store:   st,
		PageURL: func() string { return js.Global().Get("location").Get("href").String() },
		Logger:  logger,
	})

	js.Global().Set("__bridge_callback", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) < 1 || args[0].Type() != js.TypeString {
			return protocol.CallbackFailure
		}
		return b.Callback(args[0].String())
	}))

	js.Global().Set("__writeLocalStorage", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if err := b.WriteLocalStorage(context.Background(), str(args, 0), str(args, 1)); err != nil {
			logger.Warn("write local storage failed", zap.Error(err))
		}
		return nil
	}))

	api := js.Global().Get("Object").New()
	for name, fn := range methods {
		name, fn := name, fn
		api.Set(name, js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			if err := fn(context.Background(), b, args); err != nil {
				logger.Info("bridge call not sent", zap.String("method", name), zap.Error(err))
			}
			return nil
		}))
	}
	js.Global().Set("HybridBridge", api)

	js.Global().Call("dispatchEvent", js.Global().Get("CustomEvent").New("hybridbridge:ready"))
	logger.Info("bridge ready",
		zap.Stringer("platform", hc.Platform()),
		zap.String("scheme", cfg.Bridge.Scheme),
	)

	select {}
}

// pageHandler forwards replies to window.app.callback, looked up per call so
// the page may define it after the bridge loads.
type pageHandler struct{}

func (pageHandler) Callback(resp protocol.Response) any {
	app := js.Global().Get("app")
	if app.Type() != js.TypeObject || app.Get("callback").Type() != js.TypeFunction {
		return nil
	}
	ret := app.Call("callback", js.ValueOf(map[string]any(resp)))
	if !ret.Truthy() {
		return nil
	}
	return ret
}

func str(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}
