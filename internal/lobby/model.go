package lobby

import "time"

// JoinRequest queues a player for a quick match. Variant selects the
// deck size pool ("durak-24", "durak-36", "durak-52"); Seats is how
// many players a room needs (2 for the standard attacker/defender
// pairing).
type JoinRequest struct {
	PlayerID string `json:"playerId"`
	Variant  string `json:"variant" binding:"required"`
	Seats    int    `json:"seats" binding:"required"`
}

type JoinResponse struct {
	Queued  bool     `json:"queued"`
	RoomID  string   `json:"roomId,omitempty"`
	Players []string `json:"players,omitempty"`
	Variant string   `json:"variant"`
	Seats   int      `json:"seats"`
}

type CancelRequest struct {
	PlayerID string `json:"playerId"`
}

// Room is a matched table handed to the registry.
type Room struct {
	ID        string
	Variant   string
	Seats     int
	Players   []string
	CreatedAt time.Time
}
