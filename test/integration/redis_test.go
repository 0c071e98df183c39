//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/repository"
)

func TestRedisProcessedEvents(t *testing.T) {
	client := newRedis(t)
	processed := repository.NewRedisProcessedEvents(client, time.Minute)
	ctx := context.Background()
	id := "evt_" + uuid.NewString()

	first, err := processed.MarkProcessed(ctx, id)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := processed.MarkProcessed(ctx, id)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, processed.Forget(ctx, id))
	retried, err := processed.MarkProcessed(ctx, id)
	require.NoError(t, err)
	assert.True(t, retried)
}
