package transport

import (
	"context"

	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"go.uber.org/zap"
)

// ProxyInvoker calls method on a host-injected global object with payload.
type ProxyInvoker interface {
	Invoke(object, method, payload string) error
}

type ProxyInvokerFunc func(object, method, payload string) error

func (f ProxyInvokerFunc) Invoke(object, method, payload string) error {
	return f(object, method, payload)
}

// DirectTransport reaches hosts that inject one proxy object per service,
// named <Service>_a, exposing one method per action.
type DirectTransport struct {
	proxy  ProxyInvoker
	logger *zap.Logger
}

func NewDirectTransport(proxy ProxyInvoker, logger *zap.Logger) *DirectTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectTransport{proxy: proxy, logger: logger.Named("direct_transport")}
}

func (t *DirectTransport) Send(_ context.Context, req protocol.Request) error {
	payload, err := encode(req)
	if err != nil {
		return err
	}
	t.logger.Debug("invoke proxy",
		zap.String("object", req.ProxyObject()),
		zap.String("method", req.Action),
	)
	return t.proxy.Invoke(req.ProxyObject(), req.Action, payload)
}
