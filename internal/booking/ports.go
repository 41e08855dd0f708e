package booking

import (
	"context"
	"time"

	"github.com/nkamath/calshare/internal/model"
)

// Store runs a function inside one atomic transaction against a calendar's
// event collection. The function's writes commit together or not at all;
// returning an error aborts with no observable effect.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view the lifecycle operations work against.
// Implementations must give GetRequestForUpdate exclusive row access for
// the duration of the transaction and detect write conflicts on
// overlapping event inserts.
type Tx interface {
	GetRequestForUpdate(ctx context.Context, calendarID, requestID string) (model.BookingRequest, error)
	InsertRequest(ctx context.Context, req *model.BookingRequest) error
	// UpdateRequestStatus transitions a request from one status to another
	// and reports whether a row actually changed.
	UpdateRequestStatus(ctx context.Context, calendarID, requestID, from, to string) (bool, error)
	OverlappingEvents(ctx context.Context, calendarID string, start, end time.Time) ([]model.Event, error)
	InsertEvent(ctx context.Context, evt *model.Event) error
	AppendOutbox(ctx context.Context, eventType, aggregateID string, payload []byte) error
}
