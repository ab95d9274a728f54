package manager

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"durak/internal/game/engine"
	"durak/internal/websocket"
)

type mockHub struct {
	mu         sync.Mutex
	broadcasts []websocket.OutgoingMessage
	direct     map[string][]websocket.OutgoingMessage
}

func newMockHub() *mockHub {
	return &mockHub{direct: make(map[string][]websocket.OutgoingMessage)}
}

func (m *mockHub) BroadcastToPlayers(_ []string, msg websocket.OutgoingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasts = append(m.broadcasts, msg)
}

func (m *mockHub) SendToPlayer(playerID string, msg websocket.OutgoingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.direct[playerID] = append(m.direct[playerID], msg)
}

func (m *mockHub) ClientByPlayer(string) (*websocket.Client, bool) { return nil, false }
func (m *mockHub) Close()                                          {}

// waitForState polls for a gameState broadcast, the engines run on
// their own goroutines.
func (m *mockHub) waitForState(t *testing.T) engine.PublicState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		for i := len(m.broadcasts) - 1; i >= 0; i-- {
			if m.broadcasts[i].Event == "gameState" {
				state := m.broadcasts[i].Data.(engine.PublicState)
				m.mu.Unlock()
				return state
			}
		}
		m.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no gameState broadcast")
	return engine.PublicState{}
}

func testManager(hub *mockHub) *GameManager {
	cfg := engine.DefaultConfig()
	cfg.BotDelay = time.Hour
	return NewGameManager(hub, cfg, time.Hour, nil)
}

func incoming(t *testing.T, from, event string, payload any) websocket.IncomingMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return websocket.IncomingMessage{From: from, Event: event, Data: raw}
}

func TestJoinRoomCreatesEngine(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	m.HandlePlayerMessage(incoming(t, "p1", "joinRoom", JoinRoomPayload{
		RoomID:     "room-1",
		PlayerName: "Alice",
	}))

	m.mu.RLock()
	eng := m.engines["room-1"]
	room := m.playerToRoom["p1"]
	m.mu.RUnlock()

	if eng == nil {
		t.Fatalf("joinRoom should create the room")
	}
	if room != "room-1" {
		t.Fatalf("player not bound to the room, got %q", room)
	}

	state := hub.waitForState(t)
	if len(state.Players) != 2 {
		t.Fatalf("expected the player plus a bot, got %d", len(state.Players))
	}
}

func TestUnknownRoomTrafficIsDropped(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	m.HandlePlayerMessage(incoming(t, "p1", "pass", RoomPayload{RoomID: "ghost"}))
	m.HandlePlayerMessage(incoming(t, "p1", "throwIn", ThrowInPayload{RoomID: "ghost"}))
	m.HandlePlayerMessage(incoming(t, "p1", "playCard", PlayCardPayload{RoomID: "ghost", Action: engine.ActAttack}))

	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.engines) != 0 {
		t.Fatalf("gameplay messages must never create rooms")
	}
}

func TestBadPayloadIsDropped(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	m.HandlePlayerMessage(websocket.IncomingMessage{
		From:  "p1",
		Event: "joinRoom",
		Data:  json.RawMessage(`{"roomId": 42}`),
	})
	m.HandlePlayerMessage(websocket.IncomingMessage{
		From:  "p1",
		Event: "joinRoom",
		Data:  json.RawMessage(`{}`),
	})

	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.engines) != 0 {
		t.Fatalf("bad payloads must never create rooms")
	}
}

func TestDisconnectKeepsRoom(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	m.HandlePlayerMessage(incoming(t, "p1", "joinRoom", JoinRoomPayload{
		RoomID:     "room-1",
		PlayerName: "Alice",
	}))
	hub.waitForState(t)

	m.HandleDisconnect("p1")
	m.HandleDisconnect("nobody") // unknown players are ignored

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.engines["room-1"] == nil {
		t.Fatalf("disconnect must not tear the room down")
	}
	if m.playerToRoom["p1"] != "room-1" {
		t.Fatalf("disconnect must keep the room binding for rejoin")
	}
}

func TestEvictIdleRooms(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	m.EnsureRoom("stale")
	m.EnsureRoom("fresh")
	m.mu.Lock()
	m.playerToRoom["p1"] = "stale"
	m.touched["stale"] = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	m.evictIdle(time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.engines["stale"]; ok {
		t.Fatalf("idle room should be evicted")
	}
	if _, ok := m.engines["fresh"]; !ok {
		t.Fatalf("fresh room must survive")
	}
	if _, ok := m.playerToRoom["p1"]; ok {
		t.Fatalf("eviction should drop the player bindings")
	}
}

func TestEnsureRoomSizedSetsDeck(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	m.EnsureRoomSized("room-24", 24)
	m.HandlePlayerMessage(incoming(t, "p1", "joinRoom", JoinRoomPayload{
		RoomID:     "room-24",
		PlayerName: "Alice",
	}))

	// a 24-card deal leaves 24 - 2x6 in the stock
	state := hub.waitForState(t)
	if state.DeckCount != 12 {
		t.Fatalf("expected a 24-card deck (12 in stock after the deal), got %d", state.DeckCount)
	}
}

func TestEnsureRoomIsIdempotent(t *testing.T) {
	hub := newMockHub()
	m := testManager(hub)
	defer m.Close()

	a := m.EnsureRoom("room-1")
	b := m.EnsureRoom("room-1")
	if a != b {
		t.Fatalf("EnsureRoom should reuse the existing engine")
	}
}
