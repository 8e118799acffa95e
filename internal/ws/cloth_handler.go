package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/session"
	"github.com/drapesim/backend/internal/sim"
)

// PokeData displaces one cloth vertex.
type PokeData struct {
	Vertex int     `json:"vertex"`
	Dx     float64 `json:"dx"`
	Dy     float64 `json:"dy"`
	Dz     float64 `json:"dz"`
}

// QualityData switches per-client extras on frame payloads.
type QualityData struct {
	Normals bool `json:"normals"`
}

// ClothHub is the single hub for all sessions.
var ClothHub *Hub

func init() {
	ClothHub = NewHub()
	go runClothHub(ClothHub)
}

func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "c_" + hex.EncodeToString(bytes)
}

// HandleWebSocket handles WebSocket connections for cloth sessions.
func HandleWebSocket(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	if _, err := session.Manager.Get(token); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Sugar.Warnw("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		conn:  conn,
		id:    generateClientID(),
		token: token,
		send:  make(chan []byte, 256),
	}

	ClothHub.register <- client

	go client.writePump()
	go client.readPump()
}

// runClothHub runs the hub loop: registrations, scene handoff, cleanup.
func runClothHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			if _, exists := h.rooms[client.token]; !exists {
				h.rooms[client.token] = make(map[string]*Client)
			}
			h.rooms[client.token][client.id] = client
			h.mu.Unlock()

			logger.Sugar.Infow("client connected", "client", client.id, "token", client.token)

			sess, err := session.Manager.Get(client.token)
			if err != nil {
				// Session expired between upgrade and registration.
				client.sendError("Session not found")
				continue
			}

			sess.Enqueue(session.Command{Name: session.CmdAttach})
			client.sendJSON(sceneInitMessage{Type: "scene_init", SceneInfo: sess.Describe()})

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.id]; ok && cur == client {
				delete(h.clients, client.id)
				if room, exists := h.rooms[client.token]; exists {
					delete(room, client.id)
					if len(room) == 0 {
						delete(h.rooms, client.token)
					}
				}

				select {
				case <-client.send:
				default:
					close(client.send)
				}
			}
			h.mu.Unlock()

			logger.Sugar.Infow("client disconnected", "client", client.id, "token", client.token)

			if sess, err := session.Manager.Get(client.token); err == nil {
				sess.Enqueue(session.Command{Name: session.CmdDetach})
				h.refreshNormals(sess)
			}
		}
	}
}

// readPump reads and dispatches messages from one client.
func (c *Client) readPump() {
	defer func() {
		ClothHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Warnw("websocket closed unexpectedly", "client", c.id, "err", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes one incoming client message.
func (c *Client) handleMessage(msg WSMessage) {
	sess, err := session.Manager.Get(c.token)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	switch msg.Type {
	case "toggle_wind":
		sess.Enqueue(session.Command{Name: session.CmdToggleWind})

	case "pause":
		sess.Enqueue(session.Command{Name: session.CmdPause})

	case "resume":
		sess.Enqueue(session.Command{Name: session.CmdResume})

	case "reset":
		sess.Enqueue(session.Command{Name: session.CmdReset})

	case "poke":
		var data PokeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid poke data")
			return
		}
		grid := sess.Grid()
		if data.Vertex < 0 || data.Vertex >= grid.VertexCount() {
			c.sendError("Poke vertex out of range")
			return
		}
		if data.Vertex < grid.VertsPerRow() {
			c.sendError("Cannot poke a pinned vertex")
			return
		}
		sess.Enqueue(session.Command{
			Name:   session.CmdPoke,
			Vertex: data.Vertex,
			Delta:  sim.Vector3{X: data.Dx, Y: data.Dy, Z: data.Dz},
		})

	case "get_state":
		c.sendJSON(stateMessage{Type: "session_state", StatePayload: sess.State()})

	case "set_quality":
		var data QualityData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid quality data")
			return
		}
		ClothHub.setClientNormals(c, data.Normals)
		ClothHub.refreshNormals(sess)

	default:
		c.sendError("Unknown message type")
	}
}
