package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient() redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       []string{"127.0.0.1:1"},
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisKeyPrefix(t *testing.T) {
	rc := NewRedisCacheFromClient(unreachableClient(), "sentinel")
	defer rc.Close()
	assert.Equal(t, "sentinel:realtime:600519", rc.key(Key("realtime", "600519")))

	bare := NewRedisCacheFromClient(unreachableClient(), "")
	defer bare.Close()
	assert.Equal(t, "k", bare.key("k"))
}

func TestNewRedisCacheFailsWithoutServer(t *testing.T) {
	_, err := NewRedisCache(WithRedisAddr("127.0.0.1", 1))
	assert.Error(t, err)
}

func TestRememberSurvivesRedisOutage(t *testing.T) {
	ctx := context.Background()
	rc := NewRedisCacheFromClient(unreachableClient(), "sentinel")
	defer rc.Close()

	err := rc.Get(ctx, "k", new(string))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	v, hit, err := Remember(ctx, rc, "k", time.Minute, func(context.Context) (snapshot, error) {
		return snapshot{Code: "600519"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "600519", v.Code)
}
