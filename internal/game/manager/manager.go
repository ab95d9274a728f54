package manager

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"durak/internal/game/engine"
	"durak/internal/profile"
	"durak/internal/utils"
	"durak/internal/websocket"
)

// GameManager is the room registry: it owns the roomId -> engine map,
// resolves inbound messages to rooms and evicts rooms nobody has
// touched for a while. Rooms are created on first join and never on
// plain gameplay messages, so unknown-room traffic is dropped.
type GameManager struct {
	mu           sync.RWMutex
	engines      map[string]*engine.Engine
	playerToRoom map[string]string
	touched      map[string]time.Time

	hub      websocket.HubInterface
	cfg      engine.Config
	roomTTL  time.Duration
	profiles profile.Repo // optional, nil disables result recording

	quit chan struct{}
}

func NewGameManager(hub websocket.HubInterface, cfg engine.Config, roomTTL time.Duration, profiles profile.Repo) *GameManager {
	m := &GameManager{
		engines:      make(map[string]*engine.Engine),
		playerToRoom: make(map[string]string),
		touched:      make(map[string]time.Time),
		hub:          hub,
		cfg:          cfg,
		roomTTL:      roomTTL,
		profiles:     profiles,
		quit:         make(chan struct{}),
	}
	if roomTTL > 0 {
		go m.janitor()
	}
	return m
}

func (m *GameManager) Close() {
	close(m.quit)
}

// EnsureRoom returns the room's engine, creating and starting it with
// the configured default deck if needed.
func (m *GameManager) EnsureRoom(roomID string) *engine.Engine {
	return m.EnsureRoomSized(roomID, 0)
}

// EnsureRoomSized creates the room with a specific deck size, as picked
// by the quick-match variant. Zero keeps the configured default. Also
// the hook for the quick-match service to pre-create a room before its
// players connect.
func (m *GameManager) EnsureRoomSized(roomID string, deckSize int) *engine.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eng, ok := m.engines[roomID]; ok {
		return eng
	}
	cfg := m.cfg
	if deckSize != 0 {
		cfg.DeckSize = deckSize
	}
	eng := engine.NewEngine(roomID, cfg, m.hub)
	eng.OnFinished = m.recordResult
	m.engines[roomID] = eng
	m.touched[roomID] = time.Now()
	go eng.Run()
	utils.Print.Info("room created", "room", roomID)
	return eng
}

func (m *GameManager) roomByID(roomID string) *engine.Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engines[roomID]
}

func (m *GameManager) touch(roomID string) {
	m.mu.Lock()
	m.touched[roomID] = time.Now()
	m.mu.Unlock()
}

// HandlePlayerMessage is the single entry from Hub.OnIncoming. Bad
// payloads and unknown rooms are dropped; the engine itself rejects
// illegal actions.
func (m *GameManager) HandlePlayerMessage(msg websocket.IncomingMessage) {
	switch msg.Event {

	case "joinRoom":
		var p JoinRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		eng := m.EnsureRoom(p.RoomID)
		m.mu.Lock()
		m.playerToRoom[msg.From] = p.RoomID
		m.touched[p.RoomID] = time.Now()
		m.mu.Unlock()
		eng.Enqueue(engine.Action{Kind: engine.ActJoin, Player: msg.From, Name: p.PlayerName})

	case "playCard":
		var p PlayCardPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		eng := m.roomByID(p.RoomID)
		if eng == nil {
			return
		}
		m.touch(p.RoomID)
		pairIndex := -1
		if p.PairIndex != nil {
			pairIndex = *p.PairIndex
		}
		switch p.Action {
		case engine.ActAttack, engine.ActDefend, engine.ActTransfer:
			eng.Enqueue(engine.Action{
				Kind:      p.Action,
				Player:    msg.From,
				Card:      p.Card,
				PairIndex: pairIndex,
			})
		}

	case "throwIn":
		var p ThrowInPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		eng := m.roomByID(p.RoomID)
		if eng == nil {
			return
		}
		m.touch(p.RoomID)
		eng.Enqueue(engine.Action{Kind: engine.ActThrowIn, Player: msg.From, Card: p.Card})

	case "pass", "beat", "surrender", "restart", "ready":
		var p RoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		eng := m.roomByID(p.RoomID)
		if eng == nil {
			return
		}
		m.touch(p.RoomID)
		kinds := map[string]string{
			"pass":      engine.ActPass,
			"beat":      engine.ActBeat,
			"surrender": engine.ActSurrender,
			"restart":   engine.ActRestart,
			"ready":     engine.ActReady,
		}
		eng.Enqueue(engine.Action{Kind: kinds[msg.Event], Player: msg.From})

	case "chatMessage":
		var p ChatPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		eng := m.roomByID(p.RoomID)
		if eng == nil {
			return
		}
		eng.Enqueue(engine.Action{Kind: engine.ActChat, Player: msg.From, Message: p.Message})
	}
}

// HandleDisconnect only clears the transport binding; the seat, hand
// and room membership survive for a later rejoin.
func (m *GameManager) HandleDisconnect(playerID string) {
	m.mu.RLock()
	roomID := m.playerToRoom[playerID]
	eng := m.engines[roomID]
	m.mu.RUnlock()
	if eng == nil {
		return
	}
	eng.Enqueue(engine.Action{Kind: engine.ActDisconnect, Player: playerID})
}

func (m *GameManager) recordResult(winnerID, loserID string) {
	if m.profiles == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.profiles.RecordResult(ctx, winnerID, loserID); err != nil {
		utils.Print.Error("record result failed", "winner", winnerID, "loser", loserID, "err", err)
	}
}

// janitor evicts rooms idle longer than roomTTL. The original design
// never freed rooms; the eviction policy is the registry's addition.
func (m *GameManager) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictIdle(time.Now())
		case <-m.quit:
			return
		}
	}
}

func (m *GameManager) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for roomID, last := range m.touched {
		if now.Sub(last) < m.roomTTL {
			continue
		}
		if eng, ok := m.engines[roomID]; ok {
			eng.Stop()
			delete(m.engines, roomID)
		}
		delete(m.touched, roomID)
		for pid, rid := range m.playerToRoom {
			if rid == roomID {
				delete(m.playerToRoom, pid)
			}
		}
		utils.Print.Info("room evicted", "room", roomID)
	}
}
