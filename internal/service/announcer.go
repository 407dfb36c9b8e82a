// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/concurrent"
)

// ThresholdAnnouncer posts one announcement when the number of people on the
// call rises to the configured threshold.
type ThresholdAnnouncer struct {
	chat      domain.ChatPlatform
	store     *presence.Store
	threshold int
	channel   string
	debounce  time.Duration
	pool      *concurrent.WorkerPool
	now       func() time.Time
	// recorded is the latest announcement made by this announcer. Notifications
	// queued before it was committed still carry the older timestamp.
	recorded int64
}

// NewThresholdAnnouncer creates a new ThresholdAnnouncer
func NewThresholdAnnouncer(chat domain.ChatPlatform, store *presence.Store, config ServiceConfig) *ThresholdAnnouncer {
	return &ThresholdAnnouncer{
		chat:      chat,
		store:     store,
		threshold: config.AnnouncementThreshold,
		channel:   config.AnnouncementChannel,
		debounce:  config.AnnouncementDebounce,
		pool:      concurrent.NewWorkerPool(config.GuildConcurrency),
		now:       time.Now,
		recorded:  models.NeverAnnounced,
	}
}

// ServiceReady checks if the service is ready to process requests
func (a *ThresholdAnnouncer) ServiceReady() bool {
	return a.chat != nil && a.store != nil
}

// Enabled reports whether a threshold and a channel are configured.
func (a *ThresholdAnnouncer) Enabled() bool {
	return a.threshold > 0 && a.channel != ""
}

// ShouldAnnounce reports whether the online count crossed threshold upward
// between previous and current, and the debounce window since lastMillis has elapsed.
func ShouldAnnounce(previous, current, threshold int, lastMillis int64, now time.Time, debounce time.Duration) bool {
	if threshold <= 0 || previous >= threshold || current < threshold {
		return false
	}
	if lastMillis == models.NeverAnnounced {
		return true
	}
	return now.UnixMilli()-lastMillis >= debounce.Milliseconds()
}

// Register subscribes the announcer to the store. It only reacts to changes,
// never to the state found at registration.
func (a *ThresholdAnnouncer) Register(ctx context.Context) func() {
	if !a.Enabled() {
		slog.InfoContext(ctx, "threshold announcements disabled")
		return func() {}
	}
	return presence.Subscribe(ctx, a.store, AnnouncementViewOf, equalAnnouncementViews, a.onChange)
}

func (a *ThresholdAnnouncer) onChange(ctx context.Context, current, previous AnnouncementView) {
	now := a.now()
	last := max(current.LastAnnouncement, a.recorded)
	if !ShouldAnnounce(len(previous.OnlineIDs), len(current.OnlineIDs), a.threshold, last, now, a.debounce) {
		return
	}
	a.recorded = now.UnixMilli()

	if err := a.store.Dispatch(ctx, presence.AnnouncementRecorded{AtMillis: a.recorded}); err != nil {
		slog.ErrorContext(ctx, "failed to record announcement", logging.ErrKey, err)
		return
	}

	if err := a.announce(ctx, AnnouncementText(current.Names)); err != nil {
		slog.ErrorContext(ctx, "failed to post threshold announcement", logging.ErrKey, err)
	}
}

func (a *ThresholdAnnouncer) announce(ctx context.Context, text string) error {
	guilds, err := a.chat.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing chat servers: %w", err)
	}

	err = a.pool.ForEach(ctx, guilds, func(ctx context.Context, guildID string) error {
		sent, err := a.chat.SendChannelMessage(ctx, guildID, a.channel, text)
		if err != nil {
			return err
		}
		if !sent {
			slog.DebugContext(ctx, "chat server has no announcement channel",
				"guild_id", guildID,
				"channel", a.channel,
			)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "threshold announcement posted", "guilds", len(guilds))
	return nil
}

// AnnouncementText is the message posted when the threshold is crossed.
func AnnouncementText(names []string) string {
	verb := "are"
	if len(names) == 1 {
		verb = "is"
	}
	return fmt.Sprintf("Paging everybody, %s %s starting a call, it's Zoom Time!", JoinNames(names), verb)
}
