package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/share"
)

// wsClient is one connected dashboard.
type wsClient struct {
	id   string
	conn *websocket.Conn
}

// subscribeMessage is what a client sends to change the window it watches.
type subscribeMessage struct {
	Type   string `json:"type"`
	Window string `json:"window"`
}

type registration struct {
	client *wsClient
	window model.Window
}

// Hub pushes refreshed share responses to connected websocket clients on a
// fixed cadence. Clients subscribe per window; each tick computes one
// response per window in use.
type Hub struct {
	shares   ShareService
	logger   *slog.Logger
	interval time.Duration

	register   chan registration
	unregister chan *wsClient
	subscribe  chan registration

	// clients and windows are touched only by the run loop.
	clients map[*wsClient]model.Window
}

func newHub(shares ShareService, logger *slog.Logger, interval time.Duration) *Hub {
	return &Hub{
		shares:     shares,
		logger:     logger,
		interval:   interval,
		register:   make(chan registration),
		unregister: make(chan *wsClient),
		subscribe:  make(chan registration),
		clients:    make(map[*wsClient]model.Window),
	}
}

// run owns the client set: registrations, subscription changes, and the
// periodic broadcast all funnel through here, so no locking is needed.
func (h *Hub) run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case reg := <-h.register:
			h.clients[reg.client] = reg.window
			h.logger.Debug("ws client connected", "client_id", reg.client.id)
		case reg := <-h.subscribe:
			if _, ok := h.clients[reg.client]; ok {
				h.clients[reg.client] = reg.window
			}
		case client := <-h.unregister:
			delete(h.clients, client)
			h.logger.Debug("ws client disconnected", "client_id", client.id)
		case <-ticker.C:
			h.broadcast(ctx)
		}
	}
}

// broadcast computes one response per subscribed window and fans it out.
func (h *Hub) broadcast(ctx context.Context) {
	if len(h.clients) == 0 {
		return
	}

	payloads := make(map[model.Window][]byte)
	for client, window := range h.clients {
		payload, ok := payloads[window]
		if !ok {
			resp := h.shares.Share(ctx, share.Query{
				Window: window,
				Metric: model.MetricVolumeUSD,
			})
			data, err := json.Marshal(resp)
			if err != nil {
				h.logger.Error("marshal ws payload", "error", err)
				continue
			}
			payloads[window] = data
			payload = data
		}

		if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("ws write failed, dropping client",
				"client_id", client.id, "error", err)
			client.conn.Close()
			delete(h.clients, client)
		}
	}
}

// serve is the per-connection handler passed to websocket.New. It registers
// the client and then reads subscription messages until the peer goes away.
func (h *Hub) serve(conn *websocket.Conn) {
	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
	}

	defer func() {
		h.unregister <- client
		conn.Close()
	}()

	h.register <- registration{client: client, window: model.DefaultWindow}

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("ws read error", "client_id", client.id, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg subscribeMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.logger.Debug("ws bad message", "client_id", client.id, "error", err)
			continue
		}
		if msg.Type == "subscribe" {
			h.subscribe <- registration{
				client: client,
				window: model.ParseWindow(msg.Window),
			}
		}
	}
}
