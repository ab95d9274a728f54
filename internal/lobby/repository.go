package lobby

import "context"

// Repo abstracts the match pools (variant+seats).
type Repo interface {
	// Enqueue adds a player to the pool.
	Enqueue(ctx context.Context, variant string, seats int, playerID string, ttlSeconds int) error
	// PopNRandom atomically pops n random players once the pool fills.
	PopNRandom(ctx context.Context, variant string, seats int, n int) ([]string, error)
	// Remove takes a player out of their current pool (cancel).
	Remove(ctx context.Context, playerID string) error
	// Count reports the pool size.
	Count(ctx context.Context, variant string, seats int) (int64, error)
}
