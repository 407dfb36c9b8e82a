// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// DebugInfoService renders the operator-facing debug page.
type DebugInfoService struct {
	reconciler *PresenceReconciler
	store      *presence.Store
	version    string
	// instanceID tells apart several bot processes running against the same chat servers.
	instanceID string
	startTime  time.Time
	hostname   func() (string, error)
	now        func() time.Time
}

// NewDebugInfoService creates a new DebugInfoService
func NewDebugInfoService(reconciler *PresenceReconciler, store *presence.Store, config ServiceConfig) *DebugInfoService {
	return &DebugInfoService{
		reconciler: reconciler,
		store:      store,
		version:    config.Version,
		instanceID: uuid.NewString(),
		startTime:  time.Now(),
		hostname:   os.Hostname,
		now:        time.Now,
	}
}

// ServiceReady checks if the service is ready to process requests
func (d *DebugInfoService) ServiceReady() bool {
	return d.reconciler != nil && d.store != nil
}

// Render refreshes the call status and describes the bot and the call.
func (d *DebugInfoService) Render(ctx context.Context) (string, error) {
	if _, err := d.reconciler.Refresh(ctx); err != nil {
		return "", err
	}

	state := d.store.State()
	host, err := d.hostname()
	if err != nil {
		host = "unknown"
	}

	var b strings.Builder
	b.WriteString("Presence bot OK\n\n")
	fmt.Fprintf(&b, "Version: %s\n", d.version)
	fmt.Fprintf(&b, "Instance ID: %s\n", d.instanceID)
	fmt.Fprintf(&b, "Running Since: %s\n", FormatUptime(d.startTime, d.now()))
	fmt.Fprintf(&b, "Hostname: %s\n", host)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Zoom Meeting ID: %s\n", d.reconciler.MeetingID())
	fmt.Fprintf(&b, "Zoom Active? %t\n", state.Presence.Active)
	fmt.Fprintf(&b, "Zoom Seen Start? %t\n", state.Presence.HasSeenCallStart)
	if state.Presence.Active {
		b.WriteString("Zoom Online Users:")
		for _, rec := range OnlineAttendees(state) {
			fmt.Fprintf(&b, "\n\t- %s (%s)", rec.DisplayName, rec.MeetingID)
			if rec.LinkedChatID != "" {
				fmt.Fprintf(&b, " [%s]", rec.LinkedChatID)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "This Message Generated At: %s\n", d.now().UTC().Format(time.RFC3339))
	return b.String(), nil
}

// FormatUptime renders start as a timestamp followed by the elapsed days, hours, minutes and seconds.
func FormatUptime(start, now time.Time) string {
	uptime := now.Sub(start)
	if uptime < 0 {
		uptime = 0
	}
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60
	return fmt.Sprintf("%s (%dd, %dh, %dm, %ds)", start.UTC().Format(time.RFC3339), days, hours, minutes, seconds)
}
