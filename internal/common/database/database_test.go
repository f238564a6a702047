package database

import (
	"context"
	"testing"

	"margadarshak/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := OpenRedis(context.Background(), config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer r.Close()

	assert.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}

func TestOpenRedis_Errors(t *testing.T) {
	_, err := OpenRedis(context.Background(), config.RedisConfig{})
	assert.ErrorContains(t, err, "address is empty")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = OpenRedis(context.Background(), config.RedisConfig{Address: addr})
	assert.ErrorContains(t, err, "redis ping")
}

func TestOpenElasticsearch_RequiresAddresses(t *testing.T) {
	_, err := OpenElasticsearch(context.Background(), config.ElasticsearchConfig{})
	assert.ErrorContains(t, err, "no addresses")
}
