// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// NatsStateRepository keeps the bot state envelope in one NATS KV key per monitored meeting
type NatsStateRepository struct {
	*NatsBaseRepository[models.PersistedState]
	key string
}

// Ensure NatsStateRepository implements domain.StateRepository
var _ domain.StateRepository = (*NatsStateRepository)(nil)

// NewNatsStateRepository creates a repository storing the state of meetingID
func NewNatsStateRepository(kvStore INatsKeyValue, meetingID string) *NatsStateRepository {
	return &NatsStateRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.PersistedState](kvStore, "state"),
		key:                StateKey(meetingID),
	}
}

// StateKey returns the KV key of a meeting's state.
func StateKey(meetingID string) string {
	return "state." + meetingID
}

// LoadState implements domain.StateRepository
func (r *NatsStateRepository) LoadState(ctx context.Context) (*models.PersistedState, error) {
	return r.Get(ctx, r.key)
}

// SaveState implements domain.StateRepository
func (r *NatsStateRepository) SaveState(ctx context.Context, state *models.PersistedState) error {
	return r.Put(ctx, r.key, state)
}
