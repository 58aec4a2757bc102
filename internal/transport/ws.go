package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSTransport talks to the host simulator instead of a real native host.
// Requests go out as JSON text frames; every text frame read back is a
// percent-encoded response.
type WSTransport struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	logger *zap.Logger

	listenOnce sync.Once
	done       chan struct{}
}

func DialWS(ctx context.Context, targetURL, authToken string, logger *zap.Logger) (*WSTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	header := http.Header{}
	if authToken != "" {
		header.Set("Authorization", "Bearer "+authToken)
	}

	logger.Info("dial host", zap.String("url", targetURL))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, targetURL, header)
	if err != nil {
		return nil, err
	}
	return &WSTransport{
		conn:   conn,
		logger: logger.Named("ws_transport"),
		done:   make(chan struct{}),
	}, nil
}

func (t *WSTransport) Send(_ context.Context, req protocol.Request) error {
	payload, err := encode(req)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		return err
	}
	t.logger.Debug("send page->host", zap.String("service", req.Service), zap.String("action", req.Action))
	return nil
}

// Listen starts the read loop. onResponse runs on the loop's goroutine.
func (t *WSTransport) Listen(onResponse func(raw string)) {
	t.listenOnce.Do(func() {
		go t.read(onResponse)
	})
}

func (t *WSTransport) read(onResponse func(raw string)) {
	defer close(t.done)
	for {
		typ, data, err := t.conn.ReadMessage()
		if err != nil {
			t.logger.Info("host disconnected", zap.Error(err))
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		onResponse(string(data))
	}
}

// Done is closed when the read loop exits, or by Close when there is none.
func (t *WSTransport) Done() <-chan struct{} { return t.done }

// Close also closes Done when Listen was never called.
func (t *WSTransport) Close() error {
	t.listenOnce.Do(func() { close(t.done) })
	t.mu.Lock()
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.mu.Unlock()
	return t.conn.Close()
}
