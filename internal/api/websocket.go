package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/signcast/signcast/internal/players"
)

// WSHub pushes change events to connected screens so they refresh their
// playlist without polling.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
}

type WSClient struct {
	conn     *websocket.Conn
	playerID uuid.UUID
	send     chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]bool)}
}

func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// PlaylistChanged tells every connected screen a playlist's content moved.
// Screens compare the id against their assignment and refetch on a match.
func (h *WSHub) PlaylistChanged(playlistID uuid.UUID) {
	h.Broadcast("playlist:update", map[string]string{"playlistId": playlistID.String()})
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handlePlayerWS upgrades a screen's connection. The screen identifies
// itself with ?player=<id>; unknown ids are refused before the upgrade.
func (s *Server) handlePlayerWS(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(r.URL.Query().Get("player"))
	if err != nil {
		http.Error(w, "player query parameter required", http.StatusBadRequest)
		return
	}
	p, err := s.playerRepo.GetByID(playerID)
	if err != nil || !p.Active {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[ws] accept error: %v", err)
		return
	}

	client := &WSClient{
		conn:     conn,
		playerID: playerID,
		send:     make(chan []byte, 64),
	}
	s.wsHub.addClient(client)
	if err := s.playerRepo.SetStatus(playerID, players.StatusOnline); err != nil {
		log.Printf("[ws] mark player %s online: %v", playerID, err)
	}
	log.Printf("[ws] player connected: %s", p.Name)

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and notices disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.wsHub.removeClient(client)
	if err := s.playerRepo.SetStatus(playerID, players.StatusOffline); err != nil {
		log.Printf("[ws] mark player %s offline: %v", playerID, err)
	}
	log.Printf("[ws] player disconnected: %s", p.Name)
}
