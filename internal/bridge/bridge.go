// Package bridge is the page side of the hybrid app protocol: it sends
// capability requests to the native host and hands the host's replies to the
// page.
//
// Replies are matched to requests by tag name only. Two requests in flight
// with the same callback tag cannot be told apart by the page.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"github.com/HsiangNianian/hybridbridge/internal/transport"
	"go.uber.org/zap"
)

var ErrVersionTooLow = errors.New("app version too low")

// Handler is the page-level callback every reply is forwarded to.
type Handler interface {
	Callback(resp protocol.Response) any
}

type HandlerFunc func(resp protocol.Response) any

func (f HandlerFunc) Callback(resp protocol.Response) any { return f(resp) }

type Options struct {
	Context hostctx.Context
	// IOS and Android are the senders for each platform; Android falls back
	// to IOS when nil.
	IOS     transport.Sender
	Android transport.Sender
	Handler Handler
	Store   store.Store
	// PageURL reports the current page address for requests that carry it.
	PageURL func() string
	Logger  *zap.Logger
}

type Bridge struct {
	mu     sync.RWMutex
	hc     hostctx.Context
	sender transport.Sender

	ios     transport.Sender
	android transport.Sender
	handler Handler
	store   store.Store
	pageURL func() string
	logger  *zap.Logger
}

func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Android == nil {
		opts.Android = opts.IOS
	}
	if opts.PageURL == nil {
		opts.PageURL = func() string { return "" }
	}
	b := &Bridge{
		ios:     opts.IOS,
		android: opts.Android,
		handler: opts.Handler,
		store:   opts.Store,
		pageURL: opts.PageURL,
		logger:  opts.Logger.Named("bridge"),
	}
	b.UpdateContext(opts.Context)
	return b
}

func (b *Bridge) Context() hostctx.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hc
}

// UpdateContext replaces the runtime context and picks the sender for it.
func (b *Bridge) UpdateContext(hc hostctx.Context) {
	sender := transport.Select(hc, b.ios, b.android)

	b.mu.Lock()
	prev := b.hc
	b.hc = hc
	b.sender = sender
	b.mu.Unlock()

	if !hc.IsIOS() && !hc.IsAndroid() {
		b.logger.Warn("neither platform set, falling back to the iOS sender",
			zap.Stringer("platform", hc.Platform()),
			zap.String("version", hc.Version()),
		)
	}
	if prev != hc {
		b.logger.Info("runtime context updated",
			zap.Stringer("platform", hc.Platform()),
			zap.String("version", hc.Version()),
		)
	}
}

// Callback is the entry point the native host calls with a percent-encoded
// JSON envelope. It returns what the page handler returned when that is
// truthy, protocol.CallbackSuccess otherwise, and protocol.CallbackFailure
// when raw does not decode to an object.
func (b *Bridge) Callback(raw string) any {
	resp, err := protocol.DecodeResponse(raw)
	if err != nil {
		b.logger.Warn("drop host reply", zap.Error(err), zap.Int("len", len(raw)))
		return protocol.CallbackFailure
	}

	if platform, version, ok := protocol.RuntimeInfo(resp); ok {
		b.UpdateContext(hostctx.New(hostctx.Platform(platform), version))
	}

	b.logger.Debug("recv host->page", zap.String("tagname", resp.TagName()))
	if ret := b.notify(resp); truthy(ret) {
		return ret
	}
	return protocol.CallbackSuccess
}

// Invoke sends one request through the sender of the current context.
func (b *Bridge) Invoke(ctx context.Context, service, action string, fields map[string]any, callbackTag string) error {
	req := protocol.Request{
		Service:     service,
		Action:      action,
		CallbackTag: callbackTag,
		Fields:      fields,
	}

	b.mu.RLock()
	sender := b.sender
	b.mu.RUnlock()
	if sender == nil {
		return fmt.Errorf("%s.%s: no transport configured", service, action)
	}

	if err := sender.Send(ctx, req); err != nil {
		b.logger.Warn("send page->host failed",
			zap.String("service", service),
			zap.String("action", action),
			zap.Error(err),
		)
		return fmt.Errorf("%s.%s: %w", service, action, err)
	}
	b.logger.Debug("send page->host",
		zap.String("service", service),
		zap.String("action", action),
		zap.String("callback_tagname", callbackTag),
	)
	return nil
}

// requireVersion reports an app_version_too_low envelope to the page when the
// host is older than min. The host is not told.
func (b *Bridge) requireVersion(min string) error {
	hc := b.Context()
	if hc.AtLeast(min) {
		return nil
	}
	resp := protocol.VersionTooLow(min, hc.Version())
	b.logger.Info("capability not supported",
		zap.String("start_version", min),
		zap.String("app_version", hc.Version()),
	)
	b.notify(resp)
	return fmt.Errorf("%w: need %s, have %q", ErrVersionTooLow, min, hc.Version())
}

// ParamError reports an app_param_error envelope to the page.
func (b *Bridge) ParamError(description string) {
	b.logger.Info("param error", zap.String("description", description))
	b.notify(protocol.ParamError(description))
}

// WriteLocalStorage stores value under key. Empty keys are ignored.
func (b *Bridge) WriteLocalStorage(ctx context.Context, key, value string) error {
	if key == "" {
		return nil
	}
	if b.store == nil {
		return errors.New("no store configured")
	}
	return b.store.SetItem(ctx, key, value)
}

func (b *Bridge) notify(resp protocol.Response) any {
	if b.handler == nil {
		b.logger.Warn("no page handler", zap.String("tagname", resp.TagName()))
		return nil
	}
	return b.handler.Callback(resp)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	}
	return true
}
