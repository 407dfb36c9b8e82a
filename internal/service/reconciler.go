// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
)

// PresenceReconciler applies meeting webhook events to the presence store.
// Webhook deliveries may be duplicated, reordered or lost, so every event first
// re-reads the meeting status from the meeting service.
type PresenceReconciler struct {
	fetcher   domain.SnapshotFetcher
	store     *presence.Store
	meetingID string
}

// NewPresenceReconciler creates a new PresenceReconciler
func NewPresenceReconciler(fetcher domain.SnapshotFetcher, store *presence.Store, config ServiceConfig) *PresenceReconciler {
	return &PresenceReconciler{
		fetcher:   fetcher,
		store:     store,
		meetingID: strings.TrimSpace(config.MeetingID),
	}
}

// ServiceReady checks if the service is ready to process requests
func (r *PresenceReconciler) ServiceReady() bool {
	return r.fetcher != nil && r.store != nil && r.meetingID != ""
}

// MeetingID returns the id of the monitored meeting.
func (r *PresenceReconciler) MeetingID() string {
	return r.meetingID
}

// Refresh fetches a fresh snapshot and aligns the active flag of the store with it.
// Fetch failures are returned as upstream errors and leave the state untouched.
func (r *PresenceReconciler) Refresh(ctx context.Context) (models.MeetingSnapshot, error) {
	snapshot, err := r.fetcher.Fetch(ctx)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeUpstream {
			err = domain.NewUpstreamError("failed to fetch meeting status", err)
		}
		slog.ErrorContext(ctx, "meeting status refresh failed", logging.ErrKey, err)
		return models.MeetingSnapshot{}, err
	}

	if err := r.store.Dispatch(ctx, presence.SnapshotObserved{Active: snapshot.Active}); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

// Reconcile applies one parsed webhook event. Events for other meetings are
// rejected with an unrecognized meeting error; anomalous joins and leaves are
// applied in degraded form by the store and are not reported as failures.
func (r *PresenceReconciler) Reconcile(ctx context.Context, event models.ZoomWebhookEvent) error {
	ctx = logging.AppendCtx(ctx, slog.String("zoom_event", event.Kind()))
	ctx = logging.AppendCtx(ctx, slog.String("zoom_meeting_id", event.MeetingID()))

	if strings.TrimSpace(event.MeetingID()) != r.meetingID {
		slog.InfoContext(ctx, "webhook is for a different meeting, ignoring")
		return domain.NewUnrecognizedMeetingError(event.MeetingID())
	}

	switch event.(type) {
	case models.ZoomMeetingStartedEvent, models.ZoomMeetingEndedEvent,
		models.ZoomParticipantJoinedEvent, models.ZoomParticipantLeftEvent:
	default:
		return domain.NewUnknownEventKindError(event.Kind())
	}

	if _, err := r.Refresh(ctx); err != nil {
		return err
	}

	var err error
	switch e := event.(type) {
	case models.ZoomParticipantJoinedEvent:
		err = r.store.Dispatch(ctx, presence.UserJoined{
			ID:          e.CanonicalID(),
			Name:        e.Participant.UserName,
			Provisional: e.IsProvisional(),
		})
	case models.ZoomParticipantLeftEvent:
		err = r.store.Dispatch(ctx, presence.UserLeft{
			ID:   e.CanonicalID(),
			Name: e.Participant.UserName,
		})
	}

	if errors.Is(err, domain.ErrAnomalousTransition) {
		return nil
	}
	return err
}
