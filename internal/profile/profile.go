package profile

import "context"

// Profile is the thin win/loss record the game registry feeds. It is
// an interface-level collaborator: no achievements, no friendships.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	TotalWins  int    `json:"totalWins"`
	TotalGames int    `json:"totalGames"`
}

type Repo interface {
	// Upsert creates the profile row or refreshes its username.
	Upsert(ctx context.Context, id, username string) error
	// RecordResult bumps both players' game counters and the winner's
	// win counter. Unknown or bot ids are counted too; the store is
	// append-only from the registry's point of view.
	RecordResult(ctx context.Context, winnerID, loserID string) error
	Get(ctx context.Context, id string) (*Profile, error)
}
