// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

func TestDebugInfoRender(t *testing.T) {
	ctx := context.Background()
	store := storeWith(t,
		presence.UserJoined{ID: "z1", Name: "Ada"},
		presence.UserJoined{ID: "s.u9", Name: "Bo", Provisional: true},
		presence.AccountLinked{MeetingID: "z1", ChatID: "chat42"},
	)
	fetcher := &mocks.MockSnapshotFetcher{}
	fetcher.On("Fetch", mock.Anything).Return(models.MeetingSnapshot{Active: true}, nil)

	config := ServiceConfig{MeetingID: "M1", Version: "1.4.0"}
	d := NewDebugInfoService(NewPresenceReconciler(fetcher, store, config), store, config)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d.startTime = start
	d.now = func() time.Time { return start.Add(26*time.Hour + 3*time.Minute + 4*time.Second) }
	d.hostname = func() (string, error) { return "bot-1", nil }

	text, err := d.Render(ctx)
	require.NoError(t, err)

	assert.Contains(t, text, "Version: 1.4.0")
	assert.Contains(t, text, "Hostname: bot-1")
	assert.Contains(t, text, "(1d, 2h, 3m, 4s)")
	assert.Contains(t, text, "Zoom Meeting ID: M1")
	assert.Contains(t, text, "Zoom Active? true")
	assert.Contains(t, text, "Zoom Seen Start? false")
	assert.Contains(t, text, "- Ada (z1) [chat42]")
	assert.Contains(t, text, "- Bo (s.u9)")
	assert.Contains(t, text, "Instance ID: "+d.instanceID)
}

func TestDebugInfoRenderUpstreamFailure(t *testing.T) {
	store := storeWith(t)
	fetcher := &mocks.MockSnapshotFetcher{}
	fetcher.On("Fetch", mock.Anything).Return(models.MeetingSnapshot{}, errors.New("timeout"))

	config := ServiceConfig{MeetingID: "M1"}
	d := NewDebugInfoService(NewPresenceReconciler(fetcher, store, config), store, config)

	_, err := d.Render(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestFormatUptime(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01T00:00:00Z (0d, 0h, 0m, 59s)", FormatUptime(start, start.Add(59*time.Second)))
	assert.Equal(t, "2024-05-01T00:00:00Z (0d, 0h, 0m, 0s)", FormatUptime(start, start.Add(-time.Hour)))
}
