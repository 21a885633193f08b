package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"life-planner/internal/repository"
	"life-planner/internal/testutil"
)

func TestSessionRepository_SupersedeReturnsPrevious(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sessions := repository.NewSessionRepository(db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	prev, err := sessions.Supersede(ctx, 42, "alice", "111111", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, prev)

	prev, err = sessions.Supersede(ctx, 42, "alice", "222222", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "111111", prev)

	s, err := sessions.FindActiveByCode(ctx, "111111", now)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = sessions.FindActiveByCode(ctx, "222222", now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(42), s.ChatID)

	ok, err := sessions.Consume(ctx, s.ID, "222222")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = sessions.Consume(ctx, s.ID, "222222")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRepository_ExpiredCodeIsNotActive(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sessions := repository.NewSessionRepository(db)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	_, err := sessions.Supersede(ctx, 7, "", "333333", now.Add(10*time.Minute))
	require.NoError(t, err)

	s, err := sessions.FindActiveByCode(ctx, "333333", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, s)
}
