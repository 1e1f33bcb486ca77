package store

import (
	"context"
	"testing"
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "switch_router:", ttl), mr
}

func TestRedisReserve(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t, 0)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tx, reserved, err := r.Reserve(ctx, "tx-1", testPayload(), at)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, int64(1), tx.SequenceNumber)
	assert.Equal(t, "tx-1", tx.TransactionID)
	assert.Equal(t, structs.StatusPending, tx.Status)
	assert.True(t, at.Equal(tx.CreatedAt))
	assert.Equal(t, "250", tx.Data.Amount.String())

	again, reserved, err := r.Reserve(ctx, "tx-1", structs.TransactionPayload{Narration: "other"}, at)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, int64(1), again.SequenceNumber)
	assert.Equal(t, "school fees", again.Data.Narration)

	next, reserved, err := r.Reserve(ctx, "tx-2", testPayload(), at)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, int64(2), next.SequenceNumber)

	seq, err := mr.Get("switch_router:meta:sequence")
	require.NoError(t, err)
	assert.Equal(t, "2", seq)
	assert.Zero(t, mr.TTL("switch_router:tx:tx-1"))
}

func TestRedisGetAndSave(t *testing.T) {
	t.Parallel()

	r, _ := newTestRedis(t, 0)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, ok)

	err = r.Save(ctx, structs.Transaction{TransactionID: "tx-1", Status: structs.StatusCompleted})
	require.ErrorIs(t, err, ErrNotReserved)

	tx, _, err := r.Reserve(ctx, "tx-1", testPayload(), time.Now().UTC())
	require.NoError(t, err)

	settledAt := time.Now().UTC()
	tx.Status = structs.StatusFailed
	tx.Endpoint = "https://switch.example"
	tx.FailureReason = "switch returned status 502"
	tx.SettledAt = &settledAt
	require.NoError(t, r.Save(ctx, tx))

	got, ok, err := r.Get(ctx, "tx-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.SequenceNumber)
	assert.Equal(t, structs.StatusFailed, got.Status)
	assert.Equal(t, tx.Endpoint, got.Endpoint)
	assert.Equal(t, tx.FailureReason, got.FailureReason)
	require.NotNil(t, got.SettledAt)
	assert.True(t, settledAt.Equal(*got.SettledAt))

	// reserving a settled record hands back the settled state
	again, reserved, err := r.Reserve(ctx, "tx-1", testPayload(), time.Now())
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, structs.StatusFailed, again.Status)
}

func TestRedisRecordsExpire(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t, time.Hour)
	ctx := context.Background()

	_, _, err := r.Reserve(ctx, "tx-1", testPayload(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("switch_router:tx:tx-1"))

	mr.FastForward(2 * time.Hour)

	_, ok, err := r.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTransactionIDsNeverTouchTheCounter(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t, 0)
	ctx := context.Background()

	_, _, err := r.Reserve(ctx, "tx-1", testPayload(), time.Now())
	require.NoError(t, err)

	for i, id := range []string{"sequence", "meta:sequence", "tx:tx-1"} {
		tx, reserved, err := r.Reserve(ctx, id, testPayload(), time.Now())
		require.NoError(t, err, id)
		assert.True(t, reserved, id)
		assert.Equal(t, int64(i+2), tx.SequenceNumber, id)

		got, ok, err := r.Get(ctx, id)
		require.NoError(t, err, id)
		require.True(t, ok, id)
		assert.Equal(t, id, got.TransactionID)
	}

	seq, err := mr.Get("switch_router:meta:sequence")
	require.NoError(t, err)
	assert.Equal(t, "4", seq)
}
