// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/service"
)

// HistoryTimeZone is the zone status history timestamps are shown in.
const HistoryTimeZone = "America/New_York"

// ErrorReply is sent when a command fails unexpectedly.
const ErrorReply = "Sorry, something went wrong while handling that command."

var commandPattern = regexp.MustCompile(`^[ \t]*!([a-zA-Z0-9_-]+)(|([ \t\S]+))$`)

// ParseCommand splits "!name args" into a lower-cased name and its trimmed arguments.
func ParseCommand(content string) (name, args string, ok bool) {
	m := commandPattern.FindStringSubmatch(content)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}

// StatusLookup returns the custom status a chat user currently shows.
type StatusLookup interface {
	CurrentStatus(guildID, userID string) string
}

type commandFunc func(ctx context.Context, msg models.ChatMessage, args string) (string, error)

// CommandHandler answers the bot's "!" chat commands.
type CommandHandler struct {
	reconciler *service.PresenceReconciler
	linker     *service.AccountLinker
	debugInfo  *service.DebugInfoService
	history    *service.StatusHistoryService
	statuses   StatusLookup
	location   *time.Location
	commands   map[string]commandFunc
}

// NewCommandHandler creates a CommandHandler. statuses may be nil.
func NewCommandHandler(
	reconciler *service.PresenceReconciler,
	linker *service.AccountLinker,
	debugInfo *service.DebugInfoService,
	history *service.StatusHistoryService,
	statuses StatusLookup,
) *CommandHandler {
	location, err := time.LoadLocation(HistoryTimeZone)
	if err != nil {
		location = time.UTC
	}

	h := &CommandHandler{
		reconciler: reconciler,
		linker:     linker,
		debugInfo:  debugInfo,
		history:    history,
		statuses:   statuses,
		location:   location,
	}
	h.commands = map[string]commandFunc{
		"zoom":          h.handleZoom,
		"zoomstatus":    h.handleZoomStatus,
		"link":          h.handleLink,
		"debuginfo":     h.handleDebugInfo,
		"statushistory": h.handleStatusHistory,
		"help":          h.handleHelp,
		"ping":          h.handlePing,
		"welcome":       h.handleWelcome,
	}
	return h
}

// HandlerReady reports whether every service behind the commands is ready.
func (h *CommandHandler) HandlerReady() bool {
	return h.reconciler.ServiceReady() &&
		h.linker.ServiceReady() &&
		h.debugInfo.ServiceReady() &&
		h.history.ServiceReady()
}

// HandleMessage answers one chat message. Messages that are not a known
// command get an empty reply.
func (h *CommandHandler) HandleMessage(ctx context.Context, msg models.ChatMessage) (reply string, err error) {
	name, args, ok := ParseCommand(msg.Content)
	if !ok {
		return "", nil
	}
	handler, ok := h.commands[name]
	if !ok {
		slog.DebugContext(ctx, "ignoring unknown command", "command", name)
		return "", nil
	}

	ctx = logging.AppendCtx(ctx, slog.String("command", name))
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic while handling chat command",
				"panic", rec,
				"stack", string(debug.Stack()),
				logging.PriorityCritical())
			reply, err = ErrorReply, fmt.Errorf("command %s panicked: %v", name, rec)
		}
	}()

	slog.DebugContext(ctx, "handling chat command")
	reply, err = handler(ctx, msg, args)
	if err != nil {
		return ErrorReply, err
	}
	return reply, nil
}

func (h *CommandHandler) handleZoom(ctx context.Context, _ models.ChatMessage, _ string) (string, error) {
	snapshot, err := h.reconciler.Refresh(ctx)
	if err != nil {
		return "", err
	}

	status := "There's nobody on Zoom right now. If you wanted, you could ping `@here` to see if anyone wants to talk. Then, just click the link to join the Zoom call."
	if snapshot.Active {
		status = "There are people on the Zoom call right now, so hop on!"
	}

	return fmt.Sprintf("We hang out on Zoom most evenings to talk and play games.\n\nOur standing Zoom meeting can be found here: %s\n\n%s",
		snapshot.JoinURL, status), nil
}

func (h *CommandHandler) handleZoomStatus(ctx context.Context, msg models.ChatMessage, _ string) (string, error) {
	snapshot, err := h.reconciler.Refresh(ctx)
	if err != nil {
		return "", err
	}
	if snapshot.Active {
		return msg.AuthorMention + " There are people on Zoom right now!", nil
	}
	return msg.AuthorMention + " Nobody is on Zoom right now :cry:", nil
}

func (h *CommandHandler) handleLink(ctx context.Context, msg models.ChatMessage, args string) (string, error) {
	if args == "" {
		return "Tell me the name you use on Zoom, like `!link Ada Lovelace`.", nil
	}

	_, err := h.linker.Link(ctx, args, msg.AuthorID)
	switch {
	case err == nil:
		return fmt.Sprintf("%s I'll know who you are when I see %s on Zoom.", msg.AuthorMention, args), nil
	case errors.Is(err, domain.ErrAmbiguousMatch):
		return fmt.Sprintf("More than one person called **%s** has been on Zoom, so I can't tell which one is you. Try changing your Zoom name and linking again.", args), nil
	case errors.Is(err, domain.ErrUnstableIdentity):
		return fmt.Sprintf("**%s** isn't signed in to Zoom, so I wouldn't recognize them next time. Sign in to Zoom and link again.", args), nil
	case domain.GetErrorType(err) == domain.ErrorTypeNotFound:
		return fmt.Sprintf("I've never met anyone called **%s**. Try joining the Zoom and linking again.", args), nil
	case domain.GetErrorType(err) == domain.ErrorTypeValidation:
		return err.Error(), nil
	}
	return "", err
}

func (h *CommandHandler) handleDebugInfo(ctx context.Context, _ models.ChatMessage, _ string) (string, error) {
	text, err := h.debugInfo.Render(ctx)
	if err != nil {
		return "", err
	}
	return "```\n" + text + "```", nil
}

func (h *CommandHandler) handleStatusHistory(ctx context.Context, msg models.ChatMessage, args string) (string, error) {
	self := msg.AuthorMention

	switch strings.ToLower(args) {
	case "opt in", "opt-in":
		current := ""
		if h.statuses != nil {
			current = h.statuses.CurrentStatus(msg.GuildID, msg.AuthorID)
		}
		err := h.history.OptIn(ctx, msg.AuthorID, current)
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			return fmt.Sprintf("%s You've already opted in to status history tracking! View your history by sending \"!statushistory %s\". To opt out and delete all history, send `!statushistory opt-out`.", self, self), nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s You've opted in to status history tracking! From now on, any custom text set as your Discord status will be recorded. Anyone can view this log by sending \"!statushistory %s\". To opt out and delete all history, send `!statushistory opt-out`.", self, self), nil

	case "opt out", "opt-out":
		err := h.history.OptOut(ctx, msg.AuthorID)
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return self + " You've never opted in to status history tracking!", nil
		}
		if err != nil {
			return "", err
		}
		return self + " You've opted out of status history tracking! All previous Discord statuses have been erased and no future statuses will be recorded. To opt in again, send `!statushistory opt-in`.", nil
	}

	userID, mention := msg.AuthorID, self
	if len(msg.MentionedIDs) > 0 {
		userID = msg.MentionedIDs[0]
		mention = "<@" + userID + ">"
	}

	if !h.history.IsOptedIn(userID) {
		return fmt.Sprintf("%s Sorry! It looks like %s hasn't opted in to status history tracking! They can run `!statushistory opt-in` to start tracking their status history.", self, mention), nil
	}

	return h.renderHistory(mention, h.history.History(userID)), nil
}

func (h *CommandHandler) renderHistory(mention string, entries []models.StatusMessageEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Discord Status Message History for %s:\n", mention)
	if len(entries) == 0 {
		b.WriteString("_None Yet! Try setting a custom Discord status!_")
		return b.String()
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		at := time.UnixMilli(e.Timestamp).In(h.location).Format("1/2/2006, 3:04:05 PM MST")
		fmt.Fprintf(&b, "- %s (%s)", e.Message, at)
	}
	return b.String()
}

func (h *CommandHandler) handleHelp(_ context.Context, _ models.ChatMessage, _ string) (string, error) {
	return strings.TrimSpace(`
I keep track of who is on our Zoom call. Members who are on the call get a role, my status shows how many people are online, and I announce when a crowd gathers.

Just send ` + "`!command`" + ` in any channel. You don't need to @mention me, and I don't respond to DMs.

Commands:
- ` + "`!zoom`" + `: Get the Zoom link and see if anyone is on Zoom right now.
- ` + "`!zoomstatus`" + `: See if anyone is on Zoom right now.
- ` + "`!link <zoom name>`" + `: Tell me which Zoom attendee you are.
- ` + "`!statushistory [opt-in|opt-out|@user]`" + `: Record and show custom Discord status history.
- ` + "`!welcome`" + `: Show the welcome message sent to new members.
- ` + "`!debuginfo`" + `: Show what I know about myself and the call.
- ` + "`!ping`" + `: A simple command for testing.
- ` + "`!help`" + `: Show this message.`), nil
}

func (h *CommandHandler) handlePing(_ context.Context, _ models.ChatMessage, _ string) (string, error) {
	return "pong", nil
}

func (h *CommandHandler) handleWelcome(_ context.Context, msg models.ChatMessage, _ string) (string, error) {
	return service.WelcomeText(msg.AuthorMention), nil
}
