// Package menufeed pushes catalog changes to connected storefronts over
// WebSocket so they can refresh without waiting for the next poll.
package menufeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/arisrestaurant/food-delivery/models"
	"github.com/arisrestaurant/food-delivery/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Event types
const (
	EventFoodAdded   = "food_added"
	EventFoodUpdated = "food_updated"
	EventFoodRemoved = "food_removed"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected storefront. A nil *Hub drops all broadcasts.
type Hub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

var upgrader = websocket.Upgrader{
	// the feed is public and read-only, same as GET /api/food/list
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and keeps the client registered until it
// disconnects. Anything the client sends is discarded.
func (h *Hub) ServeWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Error upgrading menu feed connection: %v", err)
		return
	}

	h.Register(ws)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.Unregister(ws)
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	if h == nil {
		return 0
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) BroadcastFoodAdded(food models.Food) {
	h.broadcast(Message{Event: EventFoodAdded, Data: food})
}

func (h *Hub) BroadcastFoodUpdated(food models.Food) {
	h.broadcast(Message{Event: EventFoodUpdated, Data: food})
}

func (h *Hub) BroadcastFoodRemoved(id uint) {
	h.broadcast(Message{Event: EventFoodRemoved, Data: gin.H{"id": id}})
}

// broadcast writes msg to every client and drops the ones that fail.
func (h *Hub) broadcast(msg Message) {
	if h == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling menu feed message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.InfoLogger.Debugf("Dropping menu feed client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
	utils.InfoLogger.Debugf("Broadcast %s to %d clients", msg.Event, len(h.clients))
}
