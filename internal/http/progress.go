package httpapp

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/cesargomez89/catalogsync/internal/http/dto"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// Progress returns the live event for a subscription, if a run happened since
// startup, alongside the last persisted run.
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	subID, ok := h.subscriptionID(w, r)
	if !ok {
		return
	}

	resp := dto.ProgressResponse{SubscriptionID: subID}
	if ev, found := h.Hub.Latest(subID); found {
		resp.Live = &ev
	}
	run, err := h.Store.LatestRun(r.Context(), subID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if run != nil {
		rr := dto.NewRunResponse(run)
		resp.LastRun = &rr
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ProgressStream pushes progress events for one subscription over a websocket
// until the client goes away.
func (h *Handler) ProgressStream(w http.ResponseWriter, r *http.Request) {
	subID, ok := h.subscriptionID(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	events, cancel := h.Hub.Subscribe(subID)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("Failed to encode progress event", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
