package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)

	s := copilot.NewSession("s1", "print(1)")
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists("copilot:session:s1"))
	assert.Equal(t, time.Hour, mr.TTL("copilot:session:s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "print(1)", got.WorkingCode)
	assert.Nil(t, got.Last)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreKeepsLastRound(t *testing.T) {
	ctx := context.Background()
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)

	s := copilot.NewSession("s1", "")
	s.Last = &copilot.Round{
		Original:    "print(1)",
		Instruction: "print 2",
		Result:      copilot.SuggestionResult{ImprovedCode: "print(2)", Explanation: "Changed."},
		Diff:        "-print(1)\n+print(2)\n",
	}
	s.Integrated = true
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.Last)
	assert.Equal(t, "print(2)", got.Last.Result.ImprovedCode)
	assert.Equal(t, copilot.DiffReport("-print(1)\n+print(2)\n"), got.Last.Diff)
	assert.True(t, got.Integrated)
}

func TestRedisStoreExpiry(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 10*time.Minute)

	require.NoError(t, store.Save(ctx, copilot.NewSession("s1", "")))
	mr.FastForward(5 * time.Minute)
	require.NoError(t, store.Save(ctx, copilot.NewSession("s1", "")))
	assert.Equal(t, 10*time.Minute, mr.TTL("copilot:session:s1"), "save refreshes the ttl")

	mr.FastForward(11 * time.Minute)
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreCorruptData(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Hour)

	require.NoError(t, mr.Set("copilot:session:bad", "not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStore(ctx, common.Server{SessionStore: common.SessionStoreMemory, SessionTTLMinutes: 5})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	mr := miniredis.RunT(t)
	store, err = NewStore(ctx, common.Server{SessionStore: common.SessionStoreRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	require.NoError(t, store.(*RedisStore).Close())

	_, err = NewStore(ctx, common.Server{SessionStore: "etcd"})
	assert.ErrorContains(t, err, "unsupported session store")
}
