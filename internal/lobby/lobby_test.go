package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"durak/internal/websocket"
)

type mockHub struct {
	mu       sync.Mutex
	messages []websocket.OutgoingMessage
}

func (m *mockHub) BroadcastToPlayers(_ []string, msg websocket.OutgoingMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockHub) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg.Event)
	}
	return out
}

func TestJoinQueuesUntilFull(t *testing.T) {
	hub := &mockHub{}
	svc := NewService(NewMemoryRepo(), 300, hub)
	ctx := context.Background()

	room, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Nil(t, room)

	room, queued, err = svc.Join(ctx, JoinRequest{PlayerID: "p2", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	assert.False(t, queued)
	require.NotNil(t, room)
	assert.Len(t, room.Players, 2)
	assert.ElementsMatch(t, []string{"p1", "p2"}, room.Players)
	assert.Equal(t, "durak-36", room.Variant)
	assert.NotEmpty(t, room.ID)

	assert.Contains(t, hub.events(), "matched")
}

func TestJoinValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo(), 300, &mockHub{})
	ctx := context.Background()

	_, _, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 1})
	assert.Error(t, err)

	_, _, err = svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "poker", Seats: 2})
	assert.Error(t, err)
}

func TestPoolsAreIsolated(t *testing.T) {
	svc := NewService(NewMemoryRepo(), 300, &mockHub{})
	ctx := context.Background()

	_, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	assert.True(t, queued)

	// a different variant must not complete the durak-36 pool
	_, queued, err = svc.Join(ctx, JoinRequest{PlayerID: "p2", Variant: "durak-52", Seats: 2})
	require.NoError(t, err)
	assert.True(t, queued)

	// neither does the same variant at a different table size
	_, queued, err = svc.Join(ctx, JoinRequest{PlayerID: "p3", Variant: "durak-36", Seats: 3})
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestCancelLeavesTheQueue(t *testing.T) {
	svc := NewService(NewMemoryRepo(), 300, &mockHub{})
	ctx := context.Background()

	_, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	require.True(t, queued)

	require.NoError(t, svc.Cancel(ctx, "p1"))
	require.NoError(t, svc.Cancel(ctx, "p1")) // idempotent

	// p2 should now be first and alone in the pool
	_, queued, err = svc.Join(ctx, JoinRequest{PlayerID: "p2", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestOnRoomReadyFires(t *testing.T) {
	svc := NewService(NewMemoryRepo(), 300, &mockHub{})
	ctx := context.Background()

	ready := make(chan *Room, 1)
	svc.OnRoomReady = func(r *Room) { ready <- r }

	_, _, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-24", Seats: 2})
	require.NoError(t, err)
	room, _, err := svc.Join(ctx, JoinRequest{PlayerID: "p2", Variant: "durak-24", Seats: 2})
	require.NoError(t, err)
	require.NotNil(t, room)

	select {
	case r := <-ready:
		assert.Equal(t, room.ID, r.ID)
	case <-time.After(time.Second):
		t.Fatal("OnRoomReady never fired")
	}
}

func TestDeckSize(t *testing.T) {
	assert.Equal(t, 24, DeckSize("durak-24"))
	assert.Equal(t, 36, DeckSize("durak-36"))
	assert.Equal(t, 52, DeckSize("durak-52"))
	assert.Equal(t, 0, DeckSize("poker"))
}

// ---------------------
//    REDIS BACKEND
// ---------------------

func newRedisTestRepo(t *testing.T) (Repo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepo(client), mr
}

func TestRedisMatchFlow(t *testing.T) {
	repo, mr := newRedisTestRepo(t)
	hub := &mockHub{}
	svc := NewService(repo, 300, hub)
	ctx := context.Background()

	_, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	assert.True(t, queued)
	assert.True(t, mr.Exists("lobby:pool:durak-36:2"))
	assert.True(t, mr.Exists("lobby:player:p1"))

	room, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p2", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	assert.False(t, queued)
	require.NotNil(t, room)
	assert.ElementsMatch(t, []string{"p1", "p2"}, room.Players)

	// the pool and the player keys are consumed by the match
	assert.False(t, mr.Exists("lobby:pool:durak-36:2"))
	assert.False(t, mr.Exists("lobby:player:p1"))
	assert.False(t, mr.Exists("lobby:player:p2"))

	// the room sticks around for the duplicate-match guard
	assert.True(t, mr.Exists("lobby:room:"+room.ID))
	assert.True(t, mr.Exists("lobby:playerRoom:p1"))

	_, _, err = svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 2})
	assert.Error(t, err, "a seated player must not queue again")
}

func TestRedisCancel(t *testing.T) {
	repo, mr := newRedisTestRepo(t)
	svc := NewService(repo, 300, &mockHub{})
	ctx := context.Background()

	_, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-52", Seats: 3})
	require.NoError(t, err)
	require.True(t, queued)

	require.NoError(t, svc.Cancel(ctx, "p1"))
	assert.False(t, mr.Exists("lobby:player:p1"))
	assert.False(t, mr.Exists("lobby:pool:durak-52:3"), "a drained pool should be deleted")

	require.NoError(t, svc.Cancel(ctx, "p1")) // idempotent
}

func TestRedisQueueExpiry(t *testing.T) {
	repo, mr := newRedisTestRepo(t)
	svc := NewService(repo, 1, &mockHub{})
	ctx := context.Background()

	_, queued, err := svc.Join(ctx, JoinRequest{PlayerID: "p1", Variant: "durak-36", Seats: 2})
	require.NoError(t, err)
	require.True(t, queued)

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("lobby:player:p1"), "abandoned entries must expire")
}
