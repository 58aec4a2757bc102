package hostsim

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/HsiangNianian/hybridbridge/internal/config"
	"github.com/gorilla/mux"
)

func NewRouter(h *Hub, cfg config.HostConfig) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc(cfg.PagePath, h.HandlePage)
	r.HandleFunc(cfg.MonitorPath, h.HandleMonitor)
	r.HandleFunc("/sessions", h.HandleSessions).Methods(http.MethodGet)
	r.HandleFunc("/push", h.HandlePush).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/push", h.HandlePush).Methods(http.MethodPost)
	return r
}

func (h *Hub) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"sessions": h.SessionIDs()})
}

func (h *Hub) SessionIDs() []string {
	h.pageMu.RLock()
	ids := make([]string, 0, len(h.pages))
	for id := range h.pages {
		ids = append(ids, id)
	}
	h.pageMu.RUnlock()
	sort.Strings(ids)
	return ids
}
