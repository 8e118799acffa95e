package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/session"
	"github.com/drapesim/backend/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		if wsConfig != nil && wsConfig.Environment == "production" {
			return r.Header.Get("Origin") == wsConfig.FrontendURL
		}
		return true // Allow all origins in development
	},
}

// Client represents a connected WebSocket client.
type Client struct {
	conn        *websocket.Conn
	id          string
	token       string
	wantNormals bool // guarded by the hub mutex
	send        chan []byte
}

// Hub maintains the set of active clients grouped into session rooms.
type Hub struct {
	clients    map[string]*Client            // client ID -> Client
	rooms      map[string]map[string]*Client // session token -> client ID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// BroadcastToSession sends a message to every client in a session room.
func (h *Hub) BroadcastToSession(token string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Sugar.Warnw("broadcast marshal failed", "token", token, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.rooms[token]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				// Client's buffer is full
				logger.Sugar.Warnw("send buffer full, dropping message", "client", client.id, "token", token)
			}
		}
	}
}

// WSMessage is the envelope for incoming client messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// frameMessage wraps one simulation frame for the wire.
type frameMessage struct {
	Type string `json:"type"`
	session.FramePayload
}

// stateMessage wraps a full session snapshot.
type stateMessage struct {
	Type string `json:"type"`
	session.StatePayload
}

// sceneInitMessage carries the static geometry sent once per client.
type sceneInitMessage struct {
	Type string `json:"type"`
	session.SceneInfo
}

// SessionFrame broadcasts one frame to a session room. Clients that asked
// for normals get them; everyone else gets a positions-only encoding. At
// most two payloads are marshaled regardless of room size.
func (h *Hub) SessionFrame(token string, frame session.FramePayload) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[token]
	if !exists {
		return
	}

	var full, bare []byte
	for _, client := range room {
		wantFull := client.wantNormals && frame.Normals != nil

		var data []byte
		if wantFull {
			if full == nil {
				if full = marshalFrame(frame); full == nil {
					return
				}
			}
			data = full
		} else {
			if bare == nil {
				stripped := frame
				stripped.Normals = nil
				if bare = marshalFrame(stripped); bare == nil {
					return
				}
			}
			data = bare
		}

		select {
		case client.send <- data:
		default:
			// Frames are disposable; the next one supersedes this one.
			logger.Sugar.Debugw("frame dropped, send buffer full", "client", client.id, "token", token)
		}
	}
}

func marshalFrame(frame session.FramePayload) []byte {
	data, err := json.Marshal(frameMessage{Type: "frame", FramePayload: frame})
	if err != nil {
		// NaN positions from a diverged simulation are not encodable.
		logger.Sugar.Warnw("frame marshal failed", "err", err)
		return nil
	}
	return data
}

// SessionWind broadcasts a wind change to a session room.
func (h *Hub) SessionWind(token string, wind sim.WindState) {
	h.BroadcastToSession(token, map[string]interface{}{
		"type":   "wind_state",
		"active": wind.Active,
		"force":  wind.Force,
	})
}

// SessionState broadcasts a session snapshot to a session room.
func (h *Hub) SessionState(token string, state session.StatePayload) {
	h.BroadcastToSession(token, stateMessage{Type: "session_state", StatePayload: state})
}

// setClientNormals flips a client's per-frame normals preference.
func (h *Hub) setClientNormals(c *Client, enable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.wantNormals = enable
}

// refreshNormals tells the session whether anyone still wants normals, so
// it can skip computing them when nobody does.
func (h *Hub) refreshNormals(sess *session.Session) {
	h.mu.RLock()
	any := false
	if room, exists := h.rooms[sess.Token]; exists {
		for _, client := range room {
			if client.wantNormals {
				any = true
				break
			}
		}
	}
	h.mu.RUnlock()

	sess.Enqueue(session.Command{Name: session.CmdSetNormals, Enable: any})
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed; connection is being cleaned up.
				// Best-effort close frame; ignore errors (conn may already be closed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Sugar.Debugw("websocket write error", "client", c.id, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Sugar.Debugw("websocket ping error", "client", c.id, "err", err)
				return
			}
		}
	}
}

// sendJSON marshals and queues a message for one client.
func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Sugar.Warnw("marshal failed", "client", c.id, "err", err)
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Sugar.Warnw("send buffer full, dropping message", "client", c.id)
	}
}

// sendError sends an error message to the client.
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
