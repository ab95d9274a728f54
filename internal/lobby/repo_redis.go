package lobby

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

// key layout:
//
//	set: lobby:pool:{variant}:{seats}   -> Set(playerId,...)
//	kv : lobby:player:{playerId}        -> "variant:seats", TTL'd so a
//	     crashed client does not linger in a queue forever
func poolKey(variant string, seats int) string {
	return fmt.Sprintf("lobby:pool:%s:%d", variant, seats)
}

func playerKey(playerID string) string {
	return fmt.Sprintf("lobby:player:%s", playerID)
}

func (r *redisRepo) Enqueue(ctx context.Context, variant string, seats int, playerID string, ttlSeconds int) error {
	p := r.rdb.Pipeline()
	p.SAdd(ctx, poolKey(variant, seats), playerID)
	p.Set(ctx, playerKey(playerID), fmt.Sprintf("%s:%d", variant, seats), time.Duration(ttlSeconds)*time.Second)
	_, err := p.Exec(ctx)
	return err
}

func (r *redisRepo) PopNRandom(ctx context.Context, variant string, seats int, n int) ([]string, error) {
	// SPOP COUNT pops n random members atomically
	res, err := r.rdb.SPopN(ctx, poolKey(variant, seats), int64(n)).Result()
	if err != nil {
		return nil, err
	}
	if len(res) > 0 {
		p := r.rdb.Pipeline()
		for _, id := range res {
			p.Del(ctx, playerKey(id))
		}
		_, _ = p.Exec(ctx)
	}
	return res, nil
}

func (r *redisRepo) Remove(ctx context.Context, playerID string) error {
	kv, err := r.rdb.Get(ctx, playerKey(playerID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	parts := strings.SplitN(kv, ":", 2)
	if len(parts) != 2 {
		return r.rdb.Del(ctx, playerKey(playerID)).Err()
	}
	seats, err := strconv.Atoi(parts[1])
	if err != nil {
		return r.rdb.Del(ctx, playerKey(playerID)).Err()
	}

	poolK := poolKey(parts[0], seats)
	playerK := playerKey(playerID)

	// delete the player key, remove the member, drop the set when empty
	script := `
        redis.call("DEL", KEYS[1])
        redis.call("SREM", KEYS[2], ARGV[1])
        if redis.call("SCARD", KEYS[2]) == 0 then
            redis.call("DEL", KEYS[2])
        end
        return 1
    `
	if err := r.rdb.Eval(ctx, script, []string{playerK, poolK}, playerID).Err(); err != nil {
		// non-atomic fallback for limited redis implementations
		p := r.rdb.Pipeline()
		p.SRem(ctx, poolK, playerID)
		p.Del(ctx, playerK)
		if _, execErr := p.Exec(ctx); execErr != nil {
			return execErr
		}
		if n, _ := r.rdb.SCard(ctx, poolK).Result(); n == 0 {
			_ = r.rdb.Del(ctx, poolK).Err()
		}
	}
	return nil
}

func (r *redisRepo) Count(ctx context.Context, variant string, seats int) (int64, error) {
	return r.rdb.SCard(ctx, poolKey(variant, seats)).Result()
}

// SaveRoom keeps a matched room and the player->room mapping around
// for the duplicate-match guard.
func (r *redisRepo) SaveRoom(ctx context.Context, room *Room, ttlSeconds int) error {
	data, _ := json.Marshal(room)
	p := r.rdb.Pipeline()
	p.Set(ctx, "lobby:room:"+room.ID, data, time.Duration(ttlSeconds)*time.Second)
	for _, id := range room.Players {
		p.Set(ctx, "lobby:playerRoom:"+id, room.ID, time.Duration(ttlSeconds)*time.Second)
	}
	_, err := p.Exec(ctx)
	return err
}

func (r *redisRepo) GetPlayerRoom(ctx context.Context, playerID string) (string, error) {
	val, err := r.rdb.Get(ctx, "lobby:playerRoom:"+playerID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
