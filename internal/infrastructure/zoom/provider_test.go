// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package zoom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom/api"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom/api/mocks"
)

func TestSnapshotFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockClient)
		expected  models.MeetingSnapshot
		wantErr   bool
	}{
		{
			name: "started meeting is active",
			setupMock: func(m *mocks.MockClient) {
				m.On("GetMeeting", mock.Anything, "987").Return(&api.Meeting{
					ID: 987, Status: api.MeetingStatusStarted, JoinURL: "https://zoom.us/j/987",
				}, nil)
			},
			expected: models.MeetingSnapshot{Active: true, JoinURL: "https://zoom.us/j/987"},
		},
		{
			name: "waiting meeting is inactive",
			setupMock: func(m *mocks.MockClient) {
				m.On("GetMeeting", mock.Anything, "987").Return(&api.Meeting{
					ID: 987, Status: api.MeetingStatusWaiting, JoinURL: "https://zoom.us/j/987",
				}, nil)
			},
			expected: models.MeetingSnapshot{Active: false, JoinURL: "https://zoom.us/j/987"},
		},
		{
			name: "api failure",
			setupMock: func(m *mocks.MockClient) {
				m.On("GetMeeting", mock.Anything, "987").Return(nil, errors.New("connection refused"))
			},
			wantErr: true,
		},
		{
			name: "nil meeting",
			setupMock: func(m *mocks.MockClient) {
				m.On("GetMeeting", mock.Anything, "987").Return(nil, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := mocks.NewMockClient()
			tt.setupMock(client)

			snapshot, err := NewSnapshotFetcher(client, "987").Fetch(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.ErrorTypeUpstream, domain.GetErrorType(err))
				assert.ErrorIs(t, err, domain.ErrUpstream)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, snapshot)
			}
			client.AssertExpectations(t)
		})
	}
}
