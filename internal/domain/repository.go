// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// StateRepository defines the interface for persisting the bot state.
// This interface can be implemented by different storage backends (file, NATS KV, etc.)
type StateRepository interface {
	// LoadState returns the persisted envelope. A missing state is reported as a
	// not found domain error so callers can fall back to defaults.
	LoadState(ctx context.Context) (*models.PersistedState, error)
	// SaveState overwrites the persisted envelope.
	SaveState(ctx context.Context, state *models.PersistedState) error
	// IsReady reports whether the backend can be used.
	IsReady() bool
}
