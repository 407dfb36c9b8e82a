// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// MockStateRepository implements StateRepository for testing
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) LoadState(ctx context.Context) (*models.PersistedState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PersistedState), args.Error(1)
}

func (m *MockStateRepository) SaveState(ctx context.Context, state *models.PersistedState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStateRepository) IsReady() bool {
	args := m.Called()
	return args.Bool(0)
}
