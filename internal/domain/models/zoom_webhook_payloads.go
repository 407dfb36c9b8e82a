// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Zoom webhook event kinds processed by the bot.
const (
	ZoomEventMeetingStarted        = "meeting.started"
	ZoomEventMeetingEnded          = "meeting.ended"
	ZoomEventParticipantJoined     = "meeting.participant_joined"
	ZoomEventParticipantLeft       = "meeting.participant_left"
	ZoomEventEndpointURLValidation = "endpoint.url_validation"
)

const (
	zoomProvisionalIDSeparator = "."
	maxParticipantNameLength   = 256
)

// ZoomWebhookEvent is the parsed form of a Zoom webhook delivery.
// Exactly one of the concrete event types below implements it.
type ZoomWebhookEvent interface {
	// Kind returns the Zoom event name.
	Kind() string
	// MeetingID returns the numeric meeting id as a string.
	MeetingID() string
}

// ZoomMeetingObject holds the fields shared by every meeting event.
type ZoomMeetingObject struct {
	UUID      string        `json:"uuid"`
	ID        ZoomMeetingID `json:"id"`
	HostID    string        `json:"host_id"`
	Topic     string        `json:"topic"`
	Type      int           `json:"type"`
	StartTime string        `json:"start_time"`
	Timezone  string        `json:"timezone"`
	Duration  int           `json:"duration"`
}

// ZoomParticipant is the participant block of join/leave events.
type ZoomParticipant struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	ID        string `json:"id"`
	JoinTime  string `json:"join_time,omitempty"`
	LeaveTime string `json:"leave_time,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ZoomMeetingStartedEvent is a meeting.started delivery.
type ZoomMeetingStartedEvent struct {
	Object ZoomMeetingObject
}

// ZoomMeetingEndedEvent is a meeting.ended delivery.
type ZoomMeetingEndedEvent struct {
	Object ZoomMeetingObject
}

// ZoomParticipantJoinedEvent is a meeting.participant_joined delivery.
type ZoomParticipantJoinedEvent struct {
	Object      ZoomMeetingObject
	Participant ZoomParticipant
}

// ZoomParticipantLeftEvent is a meeting.participant_left delivery.
type ZoomParticipantLeftEvent struct {
	Object      ZoomMeetingObject
	Participant ZoomParticipant
}

func (e ZoomMeetingStartedEvent) Kind() string      { return ZoomEventMeetingStarted }
func (e ZoomMeetingStartedEvent) MeetingID() string { return string(e.Object.ID) }

func (e ZoomMeetingEndedEvent) Kind() string      { return ZoomEventMeetingEnded }
func (e ZoomMeetingEndedEvent) MeetingID() string { return string(e.Object.ID) }

func (e ZoomParticipantJoinedEvent) Kind() string      { return ZoomEventParticipantJoined }
func (e ZoomParticipantJoinedEvent) MeetingID() string { return string(e.Object.ID) }

func (e ZoomParticipantLeftEvent) Kind() string      { return ZoomEventParticipantLeft }
func (e ZoomParticipantLeftEvent) MeetingID() string { return string(e.Object.ID) }

// CanonicalID returns the stable participant id when Zoom sent one, otherwise a
// session-scoped id built from the meeting uuid and the transient user id.
func (e ZoomParticipantJoinedEvent) CanonicalID() string {
	return canonicalParticipantID(e.Object, e.Participant)
}

// IsProvisional reports whether the participant lacks a stable id.
func (e ZoomParticipantJoinedEvent) IsProvisional() bool {
	return strings.TrimSpace(e.Participant.ID) == ""
}

// CanonicalID returns the same id CanonicalID gives for the matching join.
func (e ZoomParticipantLeftEvent) CanonicalID() string {
	return canonicalParticipantID(e.Object, e.Participant)
}

func canonicalParticipantID(object ZoomMeetingObject, p ZoomParticipant) string {
	if id := strings.TrimSpace(p.ID); id != "" {
		return id
	}
	return object.UUID + zoomProvisionalIDSeparator + p.UserID
}

// ZoomMeetingID accepts the meeting id as either a JSON string or number.
type ZoomMeetingID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ZoomMeetingID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ZoomMeetingID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("meeting id must be a string or number: %w", err)
	}
	*id = ZoomMeetingID(n.String())
	return nil
}

// ZoomWebhookEnvelope is the outer shape of every Zoom webhook body.
type ZoomWebhookEnvelope struct {
	Event   string          `json:"event"`
	EventTS int64           `json:"event_ts,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ZoomURLValidationPayload is the payload of an endpoint.url_validation challenge.
type ZoomURLValidationPayload struct {
	PlainToken string `json:"plainToken"`
}

type zoomMeetingPayload struct {
	Object struct {
		ZoomMeetingObject
		Participant *ZoomParticipant `json:"participant"`
	} `json:"object"`
}

// ParseZoomWebhookEvent validates an envelope and returns the matching event.
// Unknown kinds return UnknownEventKindError; missing required fields return a
// validation error. Nothing is partially parsed.
func ParseZoomWebhookEvent(envelope ZoomWebhookEnvelope) (ZoomWebhookEvent, error) {
	switch envelope.Event {
	case ZoomEventMeetingStarted, ZoomEventMeetingEnded,
		ZoomEventParticipantJoined, ZoomEventParticipantLeft:
	default:
		return nil, &unknownEventError{kind: envelope.Event}
	}

	if len(envelope.Payload) == 0 {
		return nil, fmt.Errorf("%s: missing payload", envelope.Event)
	}

	var payload zoomMeetingPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%s: invalid payload: %w", envelope.Event, err)
	}
	object := payload.Object.ZoomMeetingObject
	if object.ID == "" {
		return nil, fmt.Errorf("%s: missing payload.object.id", envelope.Event)
	}

	switch envelope.Event {
	case ZoomEventMeetingStarted:
		return ZoomMeetingStartedEvent{Object: object}, nil
	case ZoomEventMeetingEnded:
		return ZoomMeetingEndedEvent{Object: object}, nil
	}

	participant, err := validateParticipant(envelope.Event, payload.Object.Participant)
	if err != nil {
		return nil, err
	}
	if envelope.Event == ZoomEventParticipantJoined {
		return ZoomParticipantJoinedEvent{Object: object, Participant: participant}, nil
	}
	return ZoomParticipantLeftEvent{Object: object, Participant: participant}, nil
}

func validateParticipant(event string, p *ZoomParticipant) (ZoomParticipant, error) {
	if p == nil {
		return ZoomParticipant{}, fmt.Errorf("%s: missing payload.object.participant", event)
	}
	if strings.TrimSpace(p.ID) == "" && p.UserID == "" {
		return ZoomParticipant{}, fmt.Errorf("%s: participant has neither id nor user_id", event)
	}
	p.UserName = truncateName(p.UserName, maxParticipantNameLength)
	return *p, nil
}

// truncateName cuts name to at most limit bytes without splitting a character.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

type unknownEventError struct {
	kind string
}

func (e *unknownEventError) Error() string {
	return "unknown webhook event: " + e.kind
}

// IsUnknownEventKind reports whether err came from an unrecognized event name.
func IsUnknownEventKind(err error) (string, bool) {
	var u *unknownEventError
	if errors.As(err, &u) {
		return u.kind, true
	}
	return "", false
}
