// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import "time"

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// MeetingID is the Zoom meeting the bot monitors.
	MeetingID string
	// Version is reported by the debug info page and written into the persisted state.
	Version string
	// ActiveRoleName is the chat role held by members who are on the call.
	ActiveRoleName string
	// AnnouncementThreshold is the online count that triggers an announcement. Zero disables it.
	AnnouncementThreshold int
	// AnnouncementChannel is the channel name announcements are posted to.
	AnnouncementChannel string
	// AnnouncementDebounce is the minimum time between two announcements.
	AnnouncementDebounce time.Duration
	// AdmittedRoleName is granted to new members when set.
	AdmittedRoleName string
	// WelcomeChannel receives the welcome message for new members when set.
	WelcomeChannel string
	// GuildConcurrency bounds how many chat servers are synced at once.
	GuildConcurrency int
}
