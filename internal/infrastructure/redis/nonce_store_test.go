package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setNXOnly implementa solo SET NX; cualquier otro comando hace panic.
type setNXOnly struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (f *setNXOnly) SetNX(ctx context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "setnx", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	if _, ok := f.keys[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	f.keys[key] = ttl
	cmd.SetVal(true)
	return cmd
}

func TestConsume(t *testing.T) {
	fake := &setNXOnly{keys: map[string]time.Duration{}}
	store := NewNonceStore(fake)
	ctx := context.Background()

	ok, err := store.Consume(ctx, "n-1", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "n-1", 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "segundo uso")

	assert.Equal(t, 10*time.Minute, fake.keys[noncePrefix+"n-1"])
}

func TestConsume_Error(t *testing.T) {
	store := NewNonceStore(&setNXOnly{keys: map[string]time.Duration{}, err: errors.New("conexión rechazada")})
	ok, err := store.Consume(context.Background(), "n-1", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}
