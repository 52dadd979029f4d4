package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/eneza-api/internal/config"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.RedisConfig
		wantErr   bool
		wantAddrs []string
	}{
		{"single addr", config.RedisConfig{Addr: "localhost:6379"}, false, []string{"localhost:6379"}},
		{"addrs win", config.RedisConfig{Addr: "x:1", Addrs: []string{"a:1", "b:2"}, Mode: "cluster"}, false, []string{"a:1", "b:2"}},
		{"no address", config.RedisConfig{}, true, nil},
		{"sentinel without master", config.RedisConfig{Addr: "a:1", Mode: "sentinel"}, true, nil},
		{"unknown mode", config.RedisConfig{Addr: "a:1", Mode: "ring"}, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddrs, opts.Addrs)
		})
	}
}

func TestRedisOptions_Sentinel(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{
		Addrs: []string{"s1:26379"}, Mode: "sentinel", MasterName: "mymaster",
		MaxRetries: 3, MinRetryBackoff: 8, MaxRetryBackoff: 512,
	})

	require.NoError(t, err)
	assert.Equal(t, "mymaster", opts.MasterName)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, 8*time.Millisecond, opts.MinRetryBackoff, "Задержка задается в миллисекундах")
	assert.Equal(t, 512*time.Millisecond, opts.MaxRetryBackoff)
}
