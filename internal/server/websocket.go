package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heirclark/nutricoach/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, this should be more restrictive
	},
}

// wsClient is one subscribed connection. Writes are serialized because
// log handlers and the read loop may push concurrently.
type wsClient struct {
	conn   *websocket.Conn
	userID string
	mu     sync.Mutex
}

func (c *wsClient) send(messageType string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(map[string]any{
		"type": messageType,
		"data": data,
	})
}

// handleWebSocket subscribes an authenticated client to live TDEE
// updates. The token rides the query string because browser websocket
// clients cannot set headers.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.auth.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn, userID: claims.UserID}
	clientID := uuid.New().String()
	s.clients.Store(clientID, client)
	defer s.clients.Delete(clientID)

	// Push the current snapshot immediately so the client does not wait
	// for the next log write.
	if snapshot, err := s.db.GetLatestTDEESnapshot(r.Context(), claims.UserID); err == nil && snapshot != nil {
		if err := client.send("tdee_update", snapshot); err != nil {
			log.Println("Error sending snapshot:", err)
			return
		}
	}

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("Error reading message:", err)
			}
			break
		}

		messageType, _ := msg["type"].(string)
		switch messageType {
		case "ping":
			if err := client.send("pong", nil); err != nil {
				return
			}
		case "refresh":
			s.recomputeTDEE(r.Context(), claims.UserID)
		default:
			if err := client.send("error", map[string]string{"message": "Unknown message type"}); err != nil {
				return
			}
		}
	}
}

// pushTDEEUpdate fans a fresh snapshot out to every connection belonging
// to the user.
func (s *Server) pushTDEEUpdate(userID string, result *models.TDEEResult) {
	s.clients.Range(func(key, value any) bool {
		client, ok := value.(*wsClient)
		if !ok || client.userID != userID {
			return true
		}
		if err := client.send("tdee_update", result); err != nil {
			log.Println("Error pushing TDEE update:", err)
			s.clients.Delete(key)
		}
		return true
	})
}
