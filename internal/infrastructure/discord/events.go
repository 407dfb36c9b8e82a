// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package discord

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/constants"
)

// MessageHandler answers chat messages. An empty reply sends nothing.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.ChatMessage) (string, error)
}

// MemberJoinHandler is told about members joining a guild.
type MemberJoinHandler interface {
	MemberJoined(ctx context.Context, guildID, userID, mention string) error
}

// StatusRecorder is told about custom status changes.
type StatusRecorder interface {
	Record(ctx context.Context, chatID, status string) error
}

// EventRouter turns gateway events into calls on the bot's services
type EventRouter struct {
	ctx      context.Context
	platform *Platform
	messages MessageHandler
	members  MemberJoinHandler
	statuses StatusRecorder
}

// NewEventRouter creates a router. ctx is the parent of every event context;
// nil handlers disable their event.
func NewEventRouter(ctx context.Context, platform *Platform, messages MessageHandler, members MemberJoinHandler, statuses StatusRecorder) *EventRouter {
	return &EventRouter{
		ctx:      ctx,
		platform: platform,
		messages: messages,
		members:  members,
		statuses: statuses,
	}
}

// Register attaches the router to a session and returns a function removing it.
func (r *EventRouter) Register(s *discordgo.Session) func() {
	removers := []func(){
		s.AddHandler(func(_ *discordgo.Session, e *discordgo.Ready) { r.onReady(e) }),
		s.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageCreate) { r.onMessage(e.Message) }),
		s.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) { r.onMemberAdd(e.Member) }),
		s.AddHandler(func(_ *discordgo.Session, e *discordgo.PresenceUpdate) { r.onPresence(&e.Presence) }),
	}
	return func() {
		for _, remove := range removers {
			remove()
		}
	}
}

// eventContext derives a context carrying a fresh request id and the event kind.
func (r *EventRouter) eventContext(event string) context.Context {
	requestID := uuid.NewString()
	ctx := context.WithValue(r.ctx, constants.RequestIDContextID, requestID)
	ctx = logging.AppendCtx(ctx, slog.String("request_id", requestID))
	return logging.AppendCtx(ctx, slog.String("discord_event", event))
}

func recoverEvent(ctx context.Context) {
	if rec := recover(); rec != nil {
		slog.ErrorContext(ctx, "panic while handling discord event",
			"panic", rec,
			"stack", string(debug.Stack()),
			logging.PriorityCritical())
	}
}

func (r *EventRouter) onReady(e *discordgo.Ready) {
	ctx := r.eventContext("ready")
	username := ""
	if e.User != nil {
		username = e.User.Username
	}
	slog.InfoContext(ctx, "connected to discord", "username", username, "guilds", len(e.Guilds))
}

func (r *EventRouter) onMessage(m *discordgo.Message) {
	if r.messages == nil || m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(strings.TrimLeft(m.Content, " \t"), "!") {
		return
	}

	ctx := r.eventContext("message_create")
	ctx = logging.AppendCtx(ctx, slog.String("guild_id", m.GuildID))
	ctx = logging.AppendCtx(ctx, slog.String("author_id", m.Author.ID))
	defer recoverEvent(ctx)

	msg := models.ChatMessage{
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		AuthorID:      m.Author.ID,
		AuthorName:    m.Author.Username,
		AuthorMention: m.Author.Mention(),
		Content:       m.Content,
	}
	for _, u := range m.Mentions {
		if u != nil {
			msg.MentionedIDs = append(msg.MentionedIDs, u.ID)
		}
	}

	reply, err := r.messages.HandleMessage(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle chat command", logging.ErrKey, err)
	}
	if reply == "" {
		return
	}
	if err := r.platform.SendMessage(ctx, m.ChannelID, reply); err != nil {
		slog.ErrorContext(ctx, "failed to send command reply", logging.ErrKey, err)
	}
}

func (r *EventRouter) onMemberAdd(m *discordgo.Member) {
	if r.members == nil || m == nil || m.User == nil || m.User.Bot {
		return
	}

	ctx := r.eventContext("guild_member_add")
	ctx = logging.AppendCtx(ctx, slog.String("guild_id", m.GuildID))
	defer recoverEvent(ctx)

	if err := r.members.MemberJoined(ctx, m.GuildID, m.User.ID, m.User.Mention()); err != nil {
		slog.ErrorContext(ctx, "failed to welcome member", "user_id", m.User.ID, logging.ErrKey, err)
	}
}

func (r *EventRouter) onPresence(p *discordgo.Presence) {
	if r.statuses == nil || p == nil || p.User == nil {
		return
	}

	ctx := r.eventContext("presence_update")
	defer recoverEvent(ctx)

	if err := r.statuses.Record(ctx, p.User.ID, CustomStatus(p.Activities)); err != nil {
		slog.WarnContext(ctx, "failed to record custom status", "user_id", p.User.ID, logging.ErrKey, err)
	}
}

// CustomStatus returns the text of the custom status activity, or "".
func CustomStatus(activities []*discordgo.Activity) string {
	for _, a := range activities {
		if a != nil && a.Type == discordgo.ActivityTypeCustom {
			return a.State
		}
	}
	return ""
}
