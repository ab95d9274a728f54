package manager

import "durak/internal/game/table"

// Inbound event payloads, decoded from IncomingMessage.Data. Events
// and shapes follow the room/session protocol: joinRoom, playCard,
// throwIn, pass, beat, surrender, restart, ready, chatMessage.

type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type PlayCardPayload struct {
	RoomID    string     `json:"roomId"`
	Card      table.Card `json:"card"`
	Action    string     `json:"action"` // attack | defend | transfer
	PairIndex *int       `json:"pairIndex,omitempty"`
}

type ThrowInPayload struct {
	RoomID string     `json:"roomId"`
	Card   table.Card `json:"card"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type ChatPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}
