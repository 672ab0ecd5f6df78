package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/oficios-mz/backend/internal/goroutine"
	"github.com/oficios-mz/backend/internal/logger"
)

// Hub administra las conexiones WebSocket de notificaciones en vivo.
// La persistencia de la notificación es responsabilidad del servicio;
// el hub solo entrega a los dispositivos conectados en este momento.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
	}
}

// Run ejecuta el ciclo principal del hub. Debe correr en su propia goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser entrega un mensaje a todas las conexiones del usuario.
// Si el usuario no está conectado el mensaje se descarta en silencio;
// la notificación persistida lo espera igual en su bandeja.
func (h *Hub) SendToUser(userID uuid.UUID, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).Warn("ws: no se pudo serializar el mensaje")
		return
	}
	h.broadcast <- message{userID: userID, payload: raw}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// El buffer del cliente está lleno; lo cerramos fuera del lock.
			goroutine.SafeGo(client.Close)
		}
	}
}
