// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package discord adapts a discordgo session to the bot's chat platform interfaces.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// memberPageSize is the largest page the member list endpoint returns.
const memberPageSize = 1000

// Session is the subset of *discordgo.Session used by the platform.
type Session interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UpdateGameStatus(idle int, name string) error
}

// Platform implements domain.ChatPlatform on top of a Discord session
type Platform struct {
	session Session
	state   *discordgo.State
}

// Ensure Platform implements domain.ChatPlatform
var _ domain.ChatPlatform = (*Platform)(nil)

// NewPlatform creates a platform. The guild list is read from state, which
// discordgo keeps current while the gateway connection is open.
func NewPlatform(session Session, state *discordgo.State) *Platform {
	return &Platform{session: session, state: state}
}

// NewPlatformFromSession wires a platform to a live discordgo session
func NewPlatformFromSession(s *discordgo.Session) *Platform {
	return NewPlatform(s, s.State)
}

// GuildIDs implements domain.ChatPlatform
func (p *Platform) GuildIDs(ctx context.Context) ([]string, error) {
	if p.state == nil {
		return nil, domain.NewUnavailableError("discord state is not available")
	}
	p.state.RLock()
	defer p.state.RUnlock()

	ids := make([]string, 0, len(p.state.Guilds))
	for _, g := range p.state.Guilds {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

// GuildMembers implements domain.ChatPlatform
func (p *Platform) GuildMembers(ctx context.Context, guildID string) ([]models.ChatMember, error) {
	var (
		out   []models.ChatMember
		after string
	)
	for {
		page, err := p.session.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %s: %w", guildID, err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, models.ChatMember{
				ID:       m.User.ID,
				Username: m.User.Username,
				RoleIDs:  m.Roles,
			})
			after = m.User.ID
		}
		if len(page) < memberPageSize {
			break
		}
	}

	slog.DebugContext(ctx, "listed guild members", "guild_id", guildID, "count", len(out))
	return out, nil
}

// FindRole implements domain.ChatPlatform
func (p *Platform) FindRole(ctx context.Context, guildID, roleName string) (string, error) {
	roles, err := p.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to list roles of guild %s: %w", guildID, err)
	}
	for _, r := range roles {
		if r.Name == roleName {
			return r.ID, nil
		}
	}
	return "", nil
}

// AddMemberRole implements domain.ChatPlatform
func (p *Platform) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

// RemoveMemberRole implements domain.ChatPlatform
func (p *Platform) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to remove role %s from %s: %w", roleID, userID, err)
	}
	return nil
}

// SendChannelMessage implements domain.ChatPlatform
func (p *Platform) SendChannelMessage(ctx context.Context, guildID, channelName, text string) (bool, error) {
	channels, err := p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to list channels of guild %s: %w", guildID, err)
	}
	for _, c := range channels {
		if c.Type != discordgo.ChannelTypeGuildText || !strings.EqualFold(c.Name, channelName) {
			continue
		}
		if _, err := p.session.ChannelMessageSend(c.ID, text, discordgo.WithContext(ctx)); err != nil {
			return false, fmt.Errorf("failed to send message to #%s: %w", channelName, err)
		}
		return true, nil
	}
	return false, nil
}

// SendMessage posts text to a channel by id
func (p *Platform) SendMessage(ctx context.Context, channelID, text string) error {
	if _, err := p.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return nil
}

// SetActivity implements domain.ChatPlatform
func (p *Platform) SetActivity(ctx context.Context, text string) error {
	if err := p.session.UpdateGameStatus(0, text); err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return nil
}

// CurrentStatus returns the custom status userID currently shows in guildID, or "".
func (p *Platform) CurrentStatus(guildID, userID string) string {
	if p.state == nil {
		return ""
	}
	presence, err := p.state.Presence(guildID, userID)
	if err != nil {
		return ""
	}
	return CustomStatus(presence.Activities)
}
