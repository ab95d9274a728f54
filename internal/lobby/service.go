package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"durak/internal/websocket"

	"github.com/google/uuid"
)

var variantSizes = map[string]int{
	"durak-24": 24,
	"durak-36": 36,
	"durak-52": 52,
}

// DeckSize maps a pool variant to its deck size, 0 if unknown.
func DeckSize(variant string) int {
	return variantSizes[variant]
}

type HubBroadcaster interface {
	BroadcastToPlayers(playerIDs []string, msg websocket.OutgoingMessage)
}

// Service queues players per variant pool and forms a room as soon as
// enough of them wait. OnRoomReady hands the matched room to the game
// registry; the players then joinRoom over the socket themselves.
type Service struct {
	repo        Repo
	playerTTL   int // seconds, guards against abandoned queue entries
	hub         HubBroadcaster
	OnRoomReady func(*Room)
}

func NewService(repo Repo, playerTTL int, hub HubBroadcaster) *Service {
	return &Service{repo: repo, playerTTL: playerTTL, hub: hub}
}

// Join enqueues and tries to form a room immediately. Returns the room
// when matched, or queued=true while waiting.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*Room, bool, error) {
	if req.Seats <= 1 {
		return nil, false, errors.New("invalid seats")
	}
	if _, ok := variantSizes[req.Variant]; !ok {
		return nil, false, fmt.Errorf("unknown variant %q", req.Variant)
	}

	// duplicate-match guard: a player already seated cannot queue again
	if checker, ok := s.repo.(interface {
		GetPlayerRoom(ctx context.Context, playerID string) (string, error)
	}); ok {
		roomID, _ := checker.GetPlayerRoom(ctx, req.PlayerID)
		if roomID != "" {
			return nil, false, fmt.Errorf("player %s already in room %s", req.PlayerID, roomID)
		}
	}

	if err := s.repo.Enqueue(ctx, req.Variant, req.Seats, req.PlayerID, s.playerTTL); err != nil {
		return nil, false, err
	}
	cnt, err := s.repo.Count(ctx, req.Variant, req.Seats)
	if err != nil {
		return nil, false, err
	}
	if int(cnt) < req.Seats {
		return nil, true, nil // queued
	}
	ids, err := s.repo.PopNRandom(ctx, req.Variant, req.Seats, req.Seats)
	if err != nil {
		return nil, false, err
	}
	if len(ids) < req.Seats {
		// lost the race against a concurrent Join; stay queued
		return nil, true, nil
	}

	room := &Room{
		ID:        uuid.NewString(),
		Variant:   req.Variant,
		Seats:     req.Seats,
		Players:   ids,
		CreatedAt: time.Now(),
	}

	if saver, ok := s.repo.(interface {
		SaveRoom(context.Context, *Room, int) error
	}); ok {
		if err := saver.SaveRoom(ctx, room, s.playerTTL); err != nil {
			return nil, false, err
		}
	}

	s.hub.BroadcastToPlayers(ids, websocket.OutgoingMessage{
		Event: "matched",
		Data: map[string]any{
			"roomId":  room.ID,
			"variant": room.Variant,
			"seats":   room.Seats,
			"players": room.Players,
		},
	})

	if s.OnRoomReady != nil {
		go s.OnRoomReady(room)
	}

	return room, false, nil
}

func (s *Service) Cancel(ctx context.Context, playerID string) error {
	return s.repo.Remove(ctx, playerID)
}
