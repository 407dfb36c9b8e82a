// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/constants"
)

// INatsConn is the subset of *nats.Conn the publisher needs.
type INatsConn interface {
	IsConnected() bool
	PublishMsg(msg *nats.Msg) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// Ensure MessageBuilder implements domain.PresenceEventSender
var _ domain.PresenceEventSender = (*MessageBuilder)(nil)

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// sendMessage sends the message to the NATS server. The request id and trace
// context of ctx travel as message headers.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	msg := nats.NewMsg(subject)
	msg.Data = data
	if requestID, ok := ctx.Value(constants.RequestIDContextID).(string); ok && requestID != "" {
		msg.Header.Set(constants.RequestIDHeader, requestID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	if !m.NatsConn.IsConnected() {
		slog.WarnContext(ctx, "NATS connection is down, message will be buffered", "subject", subject)
	}

	err := m.NatsConn.PublishMsg(msg)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

func (m *MessageBuilder) sendPresenceMessage(ctx context.Context, subject string, data models.PresenceChangedMessage) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err)
		return err
	}
	return m.sendMessage(ctx, subject, dataBytes)
}

// SendRosterUpdated publishes a roster change of the monitored call.
func (m *MessageBuilder) SendRosterUpdated(ctx context.Context, data models.PresenceChangedMessage) error {
	return m.sendPresenceMessage(ctx, models.PresenceRosterUpdatedSubject, data)
}

// SendCallStatus publishes a change of the call's active or confirmed state.
func (m *MessageBuilder) SendCallStatus(ctx context.Context, data models.PresenceChangedMessage) error {
	return m.sendPresenceMessage(ctx, models.PresenceCallStatusSubject, data)
}
