package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	otelx "github.com/nkamath/calshare/libs/otel"
)

// Outbox event types for mutations owned by the repositories. Booking
// lifecycle types live with the booking service.
const (
	TopicEventCreated = "calendar.event.created.v1"
	TopicEventUpdated = "calendar.event.updated.v1"
	TopicEventDeleted = "calendar.event.deleted.v1"
	TopicTokenRotated = "calendar.token.rotated.v1"
)

// appendOutbox records a domain event in the same transaction as the
// state change it announces, with the current trace context attached.
func appendOutbox(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, eventType string, payload []byte) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, aggregateType, aggregateID, eventType, payload, traceparent, tracestate)
	return err
}
