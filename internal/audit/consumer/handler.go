package consumer

import (
	"context"
	"errors"

	"roomly/internal/audit/repository"
	"roomly/pkg/kafka"
	"roomly/pkg/logger"
	"roomly/pkg/model"
)

var errMissingEventID = errors.New("booking event has no id")

type AuditHandler struct {
	repo repository.AuditRepository
	log  *logger.Logger
}

func NewAuditHandler(repo repository.AuditRepository, log *logger.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// Handle records one booking event. Undecodable payloads are permanent
// failures; store failures are retried.
func (h *AuditHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = msg.GetEventID()
	}
	if event.ID == "" {
		return kafka.NewPermanentError("invalid booking event", errMissingEventID)
	}
	if event.Type == "" {
		event.Type = msg.GetEventType()
	}

	entry := model.NewAuditEntry(&event)
	inserted, err := h.repo.Append(ctx, entry)
	if err != nil {
		return kafka.NewTransientError("failed to record audit entry", err)
	}

	if !inserted {
		h.log.Debug("Duplicate booking event ignored", "event_id", event.ID, "offset", msg.Offset)
		return nil
	}
	h.log.Info("Booking event recorded",
		"event_id", event.ID,
		"event_type", event.Type,
		"booking_id", entry.BookingID,
		"room_id", entry.RoomID,
		"correlation_id", msg.GetCorrelationID(),
	)
	return nil
}
