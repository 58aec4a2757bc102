// Package transport delivers request envelopes to the native host.
package transport

import (
	"context"
	"errors"

	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
)

var (
	ErrEmptyEnvelope = errors.New("service and action are required")
	ErrNoProxy       = errors.New("native proxy object not found")
)

// Sender hands one envelope to the host. It does not wait for a reply.
type Sender interface {
	Send(ctx context.Context, req protocol.Request) error
}

type SenderFunc func(ctx context.Context, req protocol.Request) error

func (f SenderFunc) Send(ctx context.Context, req protocol.Request) error {
	return f(ctx, req)
}

// Select picks the sender for a runtime context. Hosts that report neither
// platform get the iOS sender.
func Select(hc hostctx.Context, ios, android Sender) Sender {
	if hc.IsAndroid() {
		return android
	}
	return ios
}

func encode(req protocol.Request) (string, error) {
	payload := req.Encode()
	if payload == "" {
		return "", ErrEmptyEnvelope
	}
	return payload, nil
}
