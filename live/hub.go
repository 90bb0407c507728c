package live

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// LobbyRoom получает события всех матчей: страница со списком идущих
// игр подписывается сюда вместо опроса каждого матча.
const LobbyRoom = "matches"

// Message - конверт события, уходящего клиентам.
type Message struct {
	Type    string      `json:"type"` // MATCH_CREATED, SCORE_UPDATED, MATCH_COMPLETED
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

// Hub раздаёт события матчей по комнатам. Комната на матч плюс общее
// лобби; клиенты регистрируются через websocket-обработчик.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// MatchRoom - имя комнаты конкретного матча.
func MatchRoom(matchID int) string {
	return fmt.Sprintf("match_%d", matchID)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if roomClients, ok := h.rooms[client.Room]; ok {
				if _, okClient := roomClients[client]; okClient {
					client.closeSend()
					delete(roomClients, client)
					if len(roomClients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishMatchEvent реализует services.MatchEventPublisher: событие
// уходит в комнату матча и дублируется в лобби.
func (h *Hub) PublishMatchEvent(matchID int, eventType string, payload interface{}) {
	h.broadcastToRoom(MatchRoom(matchID), eventType, payload)
	h.broadcastToRoom(LobbyRoom, eventType, payload)
}

func (h *Hub) broadcastToRoom(roomID string, eventType string, payload interface{}) {
	messageBytes, err := json.Marshal(Message{Type: eventType, Payload: payload, RoomID: roomID})
	if err != nil {
		log.Printf("Error marshalling message for room %s: %v", roomID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		client.trySend(messageBytes)
	}
}
