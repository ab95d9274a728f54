package websocket

import (
	"sync"

	"durak/internal/utils"
)

type HubInterface interface {
	BroadcastToPlayers(playerIDs []string, msg OutgoingMessage)
	SendToPlayer(playerID string, msg OutgoingMessage)
	ClientByPlayer(playerID string) (*Client, bool)
	Close()
}

// Hub owns every live connection, keyed by playerId. All mutations go
// through its single Run loop; callers only touch the channels.
type Hub struct {
	clients      map[string]*Client // playerId -> client
	register     chan *Client
	unregister   chan *Client
	broadcast    chan broadcastReq
	sendOne      chan sendReq
	incoming     chan IncomingMessage
	OnIncoming   func(IncomingMessage)
	OnDisconnect func(playerID string)
	quit         chan struct{}
	mu           sync.RWMutex
}

type broadcastReq struct {
	PlayerIDs []string
	Message   OutgoingMessage
}

type sendReq struct {
	PlayerID string
	Message  OutgoingMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastReq),
		sendOne:    make(chan sendReq),
		incoming:   make(chan IncomingMessage),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	utils.Print.Info("hub started")

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			// A rejoining player replaces their stale connection.
			if old, ok := h.clients[c.PlayerID]; ok && old != c {
				close(old.Send)
			}
			h.clients[c.PlayerID] = c
			utils.Print.Info("hub register", "player", c.PlayerID, "connected", len(h.clients))
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.PlayerID]; ok && cur == c {
				delete(h.clients, c.PlayerID)
				close(c.Send)
				utils.Print.Info("hub unregister", "player", c.PlayerID, "connected", len(h.clients))
				if h.OnDisconnect != nil {
					h.OnDisconnect(c.PlayerID)
				}
			}
			h.mu.Unlock()

		case req := <-h.broadcast:
			for _, id := range req.PlayerIDs {
				if client, ok := h.clients[id]; ok {
					select {
					case client.Send <- req.Message:
					default:
						// slow client, drop rather than stall the room
					}
				}
			}

		case req := <-h.sendOne:
			if client, ok := h.clients[req.PlayerID]; ok {
				select {
				case client.Send <- req.Message:
				default:
				}
			}

		case req := <-h.incoming:
			// player messages are forwarded to the game layer as-is
			if h.OnIncoming != nil {
				h.OnIncoming(req)
			}

		case <-h.quit:
			for _, c := range h.clients {
				close(c.Send)
			}
			return
		}
	}
}

func (h *Hub) BroadcastToPlayers(playerIDs []string, msg OutgoingMessage) {
	h.broadcast <- broadcastReq{PlayerIDs: playerIDs, Message: msg}
}

func (h *Hub) SendToPlayer(playerID string, msg OutgoingMessage) {
	h.sendOne <- sendReq{PlayerID: playerID, Message: msg}
}

func (h *Hub) ClientByPlayer(playerID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[playerID]
	return c, ok
}

func (h *Hub) Close() {
	close(h.quit)
}
