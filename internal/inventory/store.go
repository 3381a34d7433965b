package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/domain"
)

// Store is the seat record store as the engine sees it. The store is the sole
// synchronization point: ClaimSeat must be one atomic conditional write, and
// WithTx must give all-or-nothing semantics across every method called inside.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	ClaimSeat(ctx context.Context, seatID, buyerID uuid.UUID, now, staleBefore time.Time) (bool, error)
	CountAvailable(ctx context.Context, sectionIDs []uuid.UUID, staleBefore time.Time) (map[uuid.UUID]int, error)
	ListSeats(ctx context.Context, eventID, sectionID uuid.UUID) ([]domain.Seat, error)
	SeatsWithPriceForUpdate(ctx context.Context, seatIDs []uuid.UUID) ([]domain.PricedSeat, error)
	MarkSeatsSold(ctx context.Context, seatIDs []uuid.UUID, orderID uuid.UUID) error
	ReleaseSeats(ctx context.Context, seatIDs []uuid.UUID) error

	CreateOrder(ctx context.Context, order domain.Order) error
	RecordEvent(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload []byte) error
}

// DefaultHoldTTL is the window a hold stays valid when nothing overrides it.
const DefaultHoldTTL = 5 * time.Minute

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
