// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

func TestStatusHistoryService(t *testing.T) {
	ctx := context.Background()
	s := NewStatusHistoryService(presence.NewStore(models.NewRootState()))
	clock := time.UnixMilli(1000)
	s.now = func() time.Time { return clock }

	require.NoError(t, s.Record(ctx, "u1", "ignored before opt-in"))
	assert.False(t, s.IsOptedIn("u1"))

	require.NoError(t, s.OptIn(ctx, "u1", "coding"))
	assert.True(t, s.IsOptedIn("u1"))

	clock = time.UnixMilli(2000)
	require.NoError(t, s.Record(ctx, "u1", "coding"))
	require.NoError(t, s.Record(ctx, "u1", "   "))
	require.NoError(t, s.Record(ctx, "u1", "lunch"))

	assert.Equal(t, []models.StatusMessageEntry{
		{Timestamp: 1000, Message: "coding"},
		{Timestamp: 2000, Message: "lunch"},
	}, s.History("u1"))

	err := s.OptIn(ctx, "u1", "")
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))

	require.NoError(t, s.OptOut(ctx, "u1"))
	assert.Empty(t, s.History("u1"))
	assert.ErrorIs(t, s.OptOut(ctx, "u1"), domain.ErrNotFound)
}
