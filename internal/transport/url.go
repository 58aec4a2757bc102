package transport

import (
	"context"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"go.uber.org/zap"
)

const DefaultFrameTTL = 200 * time.Millisecond

// FrameLoader navigates a throwaway hidden frame to url and detaches it after ttl.
type FrameLoader interface {
	LoadFrame(url string, ttl time.Duration) error
}

type FrameLoaderFunc func(url string, ttl time.Duration) error

func (f FrameLoaderFunc) LoadFrame(url string, ttl time.Duration) error { return f(url, ttl) }

// URLTransport reaches hosts that intercept navigation to a custom scheme.
type URLTransport struct {
	scheme string
	ttl    time.Duration
	loader FrameLoader
	logger *zap.Logger
}

func NewURLTransport(scheme string, ttl time.Duration, loader FrameLoader, logger *zap.Logger) *URLTransport {
	if scheme == "" {
		scheme = protocol.DefaultScheme
	}
	if ttl <= 0 {
		ttl = DefaultFrameTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &URLTransport{
		scheme: scheme,
		ttl:    ttl,
		loader: loader,
		logger: logger.Named("url_transport"),
	}
}

func (t *URLTransport) Send(_ context.Context, req protocol.Request) error {
	payload, err := encode(req)
	if err != nil {
		return err
	}
	u := protocol.MakeURL(t.scheme, payload)
	t.logger.Debug("load frame",
		zap.String("service", req.Service),
		zap.String("action", req.Action),
		zap.Int("url_len", len(u)),
	)
	return t.loader.LoadFrame(u, t.ttl)
}
