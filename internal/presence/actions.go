// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package presence holds the authoritative model of the monitored call: the pure
// state transitions, the store that serializes them, and change subscriptions.
package presence

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
)

// Action is a named state transition. apply mutates a private copy of the state.
type Action interface {
	Type() string
	apply(s *models.RootState) error
}

// Reduce applies action to a copy of state and returns the copy; state itself is
// never modified. An anomalous transition still returns the degraded next state
// along with the error. Any other error returns state unchanged.
func Reduce(state models.RootState, action Action) (models.RootState, error) {
	next := state.Clone()
	if err := action.apply(&next); err != nil {
		if errors.Is(err, domain.ErrAnomalousTransition) {
			return next, err
		}
		return state, err
	}
	return next, nil
}

// CallStarted marks the call active and starts a fresh roster for the new session.
type CallStarted struct{}

func (CallStarted) Type() string { return "call_started" }

func (CallStarted) apply(s *models.RootState) error {
	p := &s.Presence
	p.Active = true
	dropProvisional(p)
	p.OnlineIDs = []string{}
	return nil
}

// CallEnded marks the call inactive, confirms we have seen a session boundary and
// forgets every provisional identity.
type CallEnded struct{}

func (CallEnded) Type() string { return "call_ended" }

func (CallEnded) apply(s *models.RootState) error {
	p := &s.Presence
	p.Active = false
	p.HasSeenCallStart = true
	p.OnlineIDs = []string{}
	dropProvisional(p)
	return nil
}

// SnapshotObserved aligns the active flag with a fresh meeting snapshot. It acts
// as CallStarted or CallEnded when the two disagree and changes nothing otherwise.
type SnapshotObserved struct {
	Active bool
}

func (SnapshotObserved) Type() string { return "snapshot_observed" }

func (a SnapshotObserved) apply(s *models.RootState) error {
	switch {
	case a.Active == s.Presence.Active:
		return nil
	case a.Active:
		return CallStarted{}.apply(s)
	default:
		return CallEnded{}.apply(s)
	}
}

// UserJoined records a participant joining the call.
type UserJoined struct {
	ID          string
	Name        string
	Provisional bool
}

func (UserJoined) Type() string { return "user_joined" }

func (a UserJoined) apply(s *models.RootState) error {
	p := &s.Presence
	if !p.Active {
		// Provisional identities only exist while online, so there is nothing to keep.
		// Only CallEnded and UserLeft remove provisional records, and neither would
		// reach one stored here, so it would never be cleaned up.
		if !a.Provisional {
			upsertAttendee(s, a.ID, a.Name, false)
		}
		return domain.NewAnomalousTransitionError(
			fmt.Sprintf("participant %s joined while the meeting was inactive", a.ID))
	}

	upsertAttendee(s, a.ID, a.Name, a.Provisional)
	if a.Provisional {
		p.ProvisionalIDs = insertSorted(p.ProvisionalIDs, a.ID)
	}
	if !slices.Contains(p.OnlineIDs, a.ID) {
		p.OnlineIDs = append(p.OnlineIDs, a.ID)
	}
	return nil
}

// UserLeft records a participant leaving the call.
type UserLeft struct {
	ID   string
	Name string
}

func (UserLeft) Type() string { return "user_left" }

func (a UserLeft) apply(s *models.RootState) error {
	p := &s.Presence
	if rec, ok := p.ByID[a.ID]; ok && a.Name != "" {
		rec.DisplayName = a.Name
		p.ByID[a.ID] = rec
	}
	if !p.Active {
		return domain.NewAnomalousTransitionError(
			fmt.Sprintf("participant %s left while the meeting was inactive", a.ID))
	}

	p.OnlineIDs = slices.DeleteFunc(p.OnlineIDs, func(id string) bool { return id == a.ID })
	if i, found := slices.BinarySearch(p.ProvisionalIDs, a.ID); found {
		p.ProvisionalIDs = slices.Delete(p.ProvisionalIDs, i, i+1)
		delete(p.ByID, a.ID)
	}
	return nil
}

// AccountLinked associates a meeting identity with a chat identity.
type AccountLinked struct {
	MeetingID string
	ChatID    string
}

func (AccountLinked) Type() string { return "account_linked" }

func (a AccountLinked) apply(s *models.RootState) error {
	rec, ok := s.Presence.ByID[a.MeetingID]
	if !ok {
		return domain.NewNotFoundError(fmt.Sprintf("attendee %s has never been seen", a.MeetingID))
	}
	rec.LinkedChatID = a.ChatID
	s.Presence.ByID[a.MeetingID] = rec
	s.LinkedAccounts.ByMeetingID[a.MeetingID] = a.ChatID
	return nil
}

// AnnouncementRecorded stores the time of the latest threshold announcement.
type AnnouncementRecorded struct {
	AtMillis int64
}

func (AnnouncementRecorded) Type() string { return "announcement_recorded" }

func (a AnnouncementRecorded) apply(s *models.RootState) error {
	s.Presence.LastAnnouncementTimestamp = a.AtMillis
	return nil
}

// StatusOptIn starts custom status tracking for a chat user.
type StatusOptIn struct {
	ChatID string
}

func (StatusOptIn) Type() string { return "status_opt_in" }

func (a StatusOptIn) apply(s *models.RootState) error {
	h := &s.StatusHistory
	if slices.Contains(h.OptedInIDs, a.ChatID) {
		return domain.NewConflictError(fmt.Sprintf("user %s is already opted in", a.ChatID))
	}
	h.OptedInIDs = append(h.OptedInIDs, a.ChatID)
	h.ByChatID[a.ChatID] = []models.StatusMessageEntry{}
	return nil
}

// StatusOptOut stops tracking a chat user and erases their history.
type StatusOptOut struct {
	ChatID string
}

func (StatusOptOut) Type() string { return "status_opt_out" }

func (a StatusOptOut) apply(s *models.RootState) error {
	h := &s.StatusHistory
	if !slices.Contains(h.OptedInIDs, a.ChatID) {
		return domain.NewNotFoundError(fmt.Sprintf("user %s never opted in", a.ChatID))
	}
	h.OptedInIDs = slices.DeleteFunc(h.OptedInIDs, func(id string) bool { return id == a.ChatID })
	delete(h.ByChatID, a.ChatID)
	return nil
}

// StatusMessageUpdated records a new custom status for an opted-in chat user.
// Updates for users who did not opt in and repeats of the latest message are ignored.
type StatusMessageUpdated struct {
	ChatID    string
	Timestamp int64
	Message   string
}

func (StatusMessageUpdated) Type() string { return "status_message_updated" }

func (a StatusMessageUpdated) apply(s *models.RootState) error {
	h := &s.StatusHistory
	if !slices.Contains(h.OptedInIDs, a.ChatID) {
		return nil
	}
	history := h.ByChatID[a.ChatID]
	if n := len(history); n > 0 && strings.TrimSpace(history[n-1].Message) == strings.TrimSpace(a.Message) {
		return nil
	}
	h.ByChatID[a.ChatID] = append(history, models.StatusMessageEntry{
		Timestamp: a.Timestamp,
		Message:   a.Message,
	})
	return nil
}

func upsertAttendee(s *models.RootState, id, name string, provisional bool) {
	rec, ok := s.Presence.ByID[id]
	if !ok {
		rec = models.AttendeeRecord{
			MeetingID:     id,
			IsProvisional: provisional,
			LinkedChatID:  s.LinkedAccounts.ByMeetingID[id],
		}
	}
	if name != "" {
		rec.DisplayName = name
	}
	s.Presence.ByID[id] = rec
}

func dropProvisional(p *models.PresenceState) {
	for _, id := range p.ProvisionalIDs {
		delete(p.ByID, id)
	}
	p.ProvisionalIDs = []string{}
}

func insertSorted(ids []string, id string) []string {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}
