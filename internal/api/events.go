package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// EventBootstrapLog is the stream event carrying one bootstrap log line.
const EventBootstrapLog = "bootstrap-log"

// EventDocumentChange is the stream event emitted when the config or
// auth-profiles document changes on disk.
const EventDocumentChange = "document-change"

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type streamEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to every connected websocket client. Slow clients
// are disconnected rather than allowed to stall the hub.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn
	send chan streamEvent
}

// NewHub builds an event hub. The control API binds to loopback only, so
// cross-origin checks are intentionally permissive.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- streamEvent{Event: event, Payload: payload}:
		default:
			log.Warn("event stream client is not keeping up, dropping connection")
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// Serve upgrades the request and streams events until the client leaves.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("event stream upgrade failed: %v", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan streamEvent, 64)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	log.Debugf("event stream client connected (%d active)", count)

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *Hub) writeLoop(client *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, open := <-client.send:
			if !open {
				_ = client.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pong handling works, and detaches the
// client when the connection dies.
func (h *Hub) readLoop(client *hubClient) {
	defer func() {
		h.mu.Lock()
		if _, active := h.clients[client]; active {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(1024)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
