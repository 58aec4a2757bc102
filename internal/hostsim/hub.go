// Package hostsim stands in for the native app during page development. Pages
// connect over websocket, send request envelopes and get replies in the same
// percent-encoded form the native host hands to the bridge entry point.
package hostsim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/HsiangNianian/hybridbridge/internal/protocol"
	"github.com/HsiangNianian/hybridbridge/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DirectionPageToHost = "page->host"
	DirectionHostToPage = "host->page"
)

var ErrUnknownSession = errors.New("unknown page session")

// ActionFunc answers one request. A nil response means no reply is sent.
type ActionFunc func(ctx context.Context, session string, req protocol.Request) (protocol.Response, error)

type clientConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *clientConn) WriteText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *clientConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Hub struct {
	store     store.Store
	cfg       config.HostConfig
	hc        hostctx.Context
	authToken string
	logger    *zap.Logger

	upgrader websocket.Upgrader

	pageMu sync.RWMutex
	pages  map[string]*clientConn

	monitorMu sync.RWMutex
	monitors  map[*clientConn]struct{}

	handlerMu sync.RWMutex
	handlers  map[string]ActionFunc
}

func NewHub(st store.Store, cfg config.HostConfig, logger *zap.Logger) (*Hub, error) {
	hc, err := cfg.Context()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		store:     st,
		cfg:       cfg,
		hc:        hc,
		authToken: cfg.AuthToken,
		logger:    logger.Named("hostsim"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		pages:    make(map[string]*clientConn),
		monitors: make(map[*clientConn]struct{}),
		handlers: make(map[string]ActionFunc),
	}
	h.registerDefaults()
	return h, nil
}

// Handle installs fn for service.action, replacing any previous handler.
func (h *Hub) Handle(service, action string, fn ActionFunc) {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.handlers[service+"."+action] = fn
}

func (h *Hub) authorized(r *http.Request) bool {
	return h.authToken == "" || r.Header.Get("Authorization") == "Bearer "+h.authToken
}

func (h *Hub) HandlePage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Info("page unauthorized", zap.String("remote", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade page ws failed", zap.Error(err))
		return
	}
	client := &clientConn{conn: conn}
	session := uuid.NewString()

	h.pageMu.Lock()
	h.pages[session] = client
	pageCount := len(h.pages)
	h.pageMu.Unlock()

	h.logger.Info("page connected",
		zap.String("session", session),
		zap.String("remote", r.RemoteAddr),
		zap.Int("active_pages", pageCount),
	)
	h.readPage(session, client)
}

func (h *Hub) readPage(session string, client *clientConn) {
	defer func() {
		h.pageMu.Lock()
		delete(h.pages, session)
		pageCount := len(h.pages)
		h.pageMu.Unlock()
		_ = client.conn.Close()
		h.logger.Info("page disconnected", zap.String("session", session), zap.Int("active_pages", pageCount))
	}()

	for {
		typ, data, err := client.conn.ReadMessage()
		if err != nil {
			h.logger.Debug("recv page->host failed", zap.String("session", session), zap.Error(err))
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		h.trace(DirectionPageToHost, session, data)

		resp, err := h.dispatch(context.Background(), session, string(data))
		if err != nil {
			h.logger.Warn("handle request failed", zap.String("session", session), zap.Error(err))
			continue
		}
		if resp == nil {
			continue
		}
		if err := h.write(session, client, resp); err != nil {
			h.logger.Warn("send host->page failed", zap.String("session", session), zap.Error(err))
			return
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, session, payload string) (protocol.Response, error) {
	req, err := protocol.ParseRequest(payload)
	if err != nil {
		return nil, err
	}
	if req.Service == "" || req.Action == "" {
		return nil, errors.New("missing service or action")
	}
	h.logger.Debug("request",
		zap.String("session", session),
		zap.String("service", req.Service),
		zap.String("action", req.Action),
		zap.String("callback_tagname", req.CallbackTag),
	)

	h.handlerMu.RLock()
	fn, ok := h.handlers[req.Service+"."+req.Action]
	h.handlerMu.RUnlock()
	if !ok {
		return protocol.Response{protocol.KeyTagName: req.CallbackTag}, nil
	}

	resp, err := fn(ctx, session, req)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		resp[protocol.KeyTagName] = req.CallbackTag
	}
	return resp, nil
}

// Push sends a host-initiated envelope, such as a nav bar button tap, to one
// page session.
func (h *Hub) Push(session string, resp protocol.Response) error {
	h.pageMu.RLock()
	client, ok := h.pages[session]
	h.pageMu.RUnlock()
	if !ok {
		return ErrUnknownSession
	}
	return h.write(session, client, resp)
}

// PushAll sends resp to every connected page and returns how many got it.
func (h *Hub) PushAll(resp protocol.Response) int {
	h.pageMu.RLock()
	targets := make(map[string]*clientConn, len(h.pages))
	for s, c := range h.pages {
		targets[s] = c
	}
	h.pageMu.RUnlock()

	delivered := 0
	for session, client := range targets {
		if err := h.write(session, client, resp); err != nil {
			h.logger.Warn("push host->page failed", zap.String("session", session), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

// HandlePush accepts a JSON response envelope over HTTP POST and pushes it
// to the session named in the route, or to every page when there is none.
func (h *Hub) HandlePush(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var resp protocol.Response
	if err := json.Unmarshal(body, &resp); err != nil || resp == nil {
		http.Error(w, "body must be a JSON object", http.StatusBadRequest)
		return
	}

	delivered := 0
	if session := mux.Vars(r)["id"]; session != "" {
		if err := h.Push(session, resp); err != nil {
			if errors.Is(err, ErrUnknownSession) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		delivered = 1
	} else {
		delivered = h.PushAll(resp)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"delivered": delivered})
}

func (h *Hub) write(session string, client *clientConn, resp protocol.Response) error {
	raw, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	if err := client.WriteText([]byte(raw)); err != nil {
		return err
	}
	if b, err := json.Marshal(resp); err == nil {
		h.trace(DirectionHostToPage, session, b)
	}
	return nil
}

func (h *Hub) HandleMonitor(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Info("monitor unauthorized", zap.String("remote", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade monitor ws failed", zap.Error(err))
		return
	}
	client := &clientConn{conn: conn}

	h.monitorMu.Lock()
	h.monitors[client] = struct{}{}
	monitorCount := len(h.monitors)
	h.monitorMu.Unlock()
	h.logger.Info("monitor connected", zap.String("remote", r.RemoteAddr), zap.Int("active_monitors", monitorCount))

	defer func() {
		h.monitorMu.Lock()
		delete(h.monitors, client)
		monitorCount := len(h.monitors)
		h.monitorMu.Unlock()
		_ = conn.Close()
		h.logger.Info("monitor disconnected", zap.Int("active_monitors", monitorCount))
	}()

	// Monitors only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) trace(direction, session string, payload []byte) {
	t := protocol.Trace{
		Direction: direction,
		Session:   session,
		Timestamp: time.Now().UnixMilli(),
		Payload:   json.RawMessage(payload),
	}
	if !json.Valid(payload) {
		t.Payload = nil
	}

	h.monitorMu.RLock()
	defer h.monitorMu.RUnlock()
	for monitor := range h.monitors {
		if err := monitor.WriteJSON(t); err != nil {
			h.logger.Debug("broadcast to monitor failed", zap.Error(err))
		}
	}
}

func (h *Hub) Sessions() int {
	h.pageMu.RLock()
	defer h.pageMu.RUnlock()
	return len(h.pages)
}
