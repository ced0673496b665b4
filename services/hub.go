package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// hostPlayerID marks the host's connection: the host authenticates via
// JWT and has no PlayerSession row.
const hostPlayerID = 0

// Hub fans session events out to every websocket subscribed to a PIN.
// Delivery is fire-and-forget: a client whose send buffer is full gets
// dropped and is expected to reconnect and resync from the snapshot.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	mutex       sync.RWMutex
	gameService *GameService
}

type Client struct {
	hub        *Hub
	id         string
	socket     *websocket.Conn
	send       chan []byte
	gamePin    string
	playerID   uint
	playerName string
}

func NewHub(gameService *GameService) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		gameService: gameService,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %s subscribed to game %s (player %d: %s)",
				client.id, client.gamePin, client.playerID, client.playerName)

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()

			if ok {
				log.Printf("Client %s left game %s (player %d: %s)",
					client.id, client.gamePin, client.playerID, client.playerName)

				if client.playerID == hostPlayerID {
					h.gameService.HostDisconnected(client.gamePin, h)
				} else {
					h.BroadcastToGame(client.gamePin, EventPlayerLeft, map[string]interface{}{
						"player_id":   client.playerID,
						"player_name": client.playerName,
					})
				}
			}
		}
	}
}

// BroadcastToGame delivers one event to every subscriber of a PIN.
func (h *Hub) BroadcastToGame(gamePin string, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.gamePin != gamePin {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// SendToHost delivers one event only to the host connection of a PIN,
// for events that would leak answers if broadcast.
func (h *Hub) SendToHost(gamePin string, eventType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.gamePin != gamePin || client.playerID != hostPlayerID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// sendGameStateSync pushes the current snapshot to one client so it can
// reconcile after a reconnect.
func (h *Hub) sendGameStateSync(client *Client) {
	state, err := h.gameService.GetCurrentGameState(client.gamePin)
	if err != nil {
		log.Printf("Error getting game state for client %s: %v", client.id, err)
		h.sendTo(client, Message{Type: EventError, Payload: map[string]string{"message": "game state unavailable"}})
		return
	}

	h.sendTo(client, Message{Type: EventGameStateSync, Payload: state})
}

func (h *Hub) sendTo(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", msg.Type, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client)
	}
}

// ConnectedPlayers lists the player IDs currently subscribed to a PIN.
func (h *Hub) ConnectedPlayers(gamePin string) []uint {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var playerIDs []uint
	for client := range h.clients {
		if client.gamePin == gamePin {
			playerIDs = append(playerIDs, client.playerID)
		}
	}
	return playerIDs
}

func (h *Hub) IsHostConnected(gamePin string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.gamePin == gamePin && client.playerID == hostPlayerID {
			return true
		}
	}
	return false
}

// RegisterClient subscribes an upgraded websocket connection to a game
// and starts its read/write pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn, gamePin string, playerID uint, playerName string) *Client {
	client := &Client{
		hub:        h,
		id:         uuid.NewString(),
		socket:     conn,
		send:       make(chan []byte, 256),
		gamePin:    gamePin,
		playerID:   playerID,
		playerName: playerName,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}

		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}

	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case EventPing:
		c.hub.sendTo(c, Message{Type: EventPong, Payload: "pong"})

	case EventJoinGame, EventPlayerReady, EventRequestGameState:
		c.hub.sendGameStateSync(c)

	case EventLeaveGame:
		log.Printf("Player %d (%s) left game %s via WebSocket", c.playerID, c.playerName, c.gamePin)

	default:
		log.Printf("Unknown message type: %s from player %d (%s) in game %s",
			msg.Type, c.playerID, c.playerName, c.gamePin)
	}
}
