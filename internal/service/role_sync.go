// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/concurrent"
)

// DefaultActiveRoleName is the role given to members on the call when none is configured.
const DefaultActiveRoleName = "Zoomer"

// RoleSynchronizer keeps the active role in every chat server in line with who is on the call.
type RoleSynchronizer struct {
	chat     domain.ChatPlatform
	roleName string
	pool     *concurrent.WorkerPool
}

// NewRoleSynchronizer creates a new RoleSynchronizer
func NewRoleSynchronizer(chat domain.ChatPlatform, config ServiceConfig) *RoleSynchronizer {
	roleName := config.ActiveRoleName
	if roleName == "" {
		roleName = DefaultActiveRoleName
	}
	return &RoleSynchronizer{
		chat:     chat,
		roleName: roleName,
		pool:     concurrent.NewWorkerPool(config.GuildConcurrency),
	}
}

// ServiceReady checks if the service is ready to process requests
func (r *RoleSynchronizer) ServiceReady() bool {
	return r.chat != nil
}

// Register subscribes the synchronizer to the store. It syncs once right away so
// drift accumulated while the bot was offline is corrected at startup.
func (r *RoleSynchronizer) Register(ctx context.Context, store *presence.Store) func() {
	return presence.Subscribe(ctx, store, ActiveChatIDs,
		func(a, b []string) bool { return slices.Equal(a, b) },
		func(ctx context.Context, current, _ []string) {
			if err := r.Sync(ctx, current); err != nil {
				slog.ErrorContext(ctx, "failed to sync active role", logging.ErrKey, err)
			}
		},
		presence.FireImmediately(),
	)
}

// Sync rescans the members of every chat server: members in activeChatIDs get
// the role, everyone else loses it. A failure in one server does not stop the others.
func (r *RoleSynchronizer) Sync(ctx context.Context, activeChatIDs []string) error {
	guilds, err := r.chat.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing chat servers: %w", err)
	}

	active := make(map[string]bool, len(activeChatIDs))
	for _, id := range activeChatIDs {
		active[id] = true
	}

	return r.pool.ForEach(ctx, guilds, func(ctx context.Context, guildID string) error {
		return r.syncGuild(ctx, guildID, active)
	})
}

func (r *RoleSynchronizer) syncGuild(ctx context.Context, guildID string, active map[string]bool) error {
	roleID, err := r.chat.FindRole(ctx, guildID, r.roleName)
	if err != nil {
		return fmt.Errorf("finding role %q: %w", r.roleName, err)
	}
	if roleID == "" {
		slog.WarnContext(ctx, "chat server has no active role, skipping",
			"guild_id", guildID,
			"role", r.roleName,
		)
		return nil
	}

	members, err := r.chat.GuildMembers(ctx, guildID)
	if err != nil {
		return fmt.Errorf("listing members: %w", err)
	}

	var errs []error
	added, removed := 0, 0
	for _, member := range members {
		want, has := active[member.ID], member.HasRole(roleID)
		switch {
		case want && !has:
			if err := r.chat.AddMemberRole(ctx, guildID, member.ID, roleID); err != nil {
				errs = append(errs, fmt.Errorf("adding role to %s: %w", member.ID, err))
				continue
			}
			added++
		case !want && has:
			if err := r.chat.RemoveMemberRole(ctx, guildID, member.ID, roleID); err != nil {
				errs = append(errs, fmt.Errorf("removing role from %s: %w", member.ID, err))
				continue
			}
			removed++
		}
	}

	slog.DebugContext(ctx, "active role synced",
		"guild_id", guildID,
		"added", added,
		"removed", removed,
	)
	return errors.Join(errs...)
}
