package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/clock"
	"github.com/robertarktes/seat-inventory/internal/domain"
)

// CancellationService releases a buyer's held seats back to availability.
// Like purchase, the batch is all-or-nothing: one seat failing the ownership
// check aborts the whole call with no effect.
type CancellationService struct {
	store   Store
	clock   clock.Clock
	holdTTL time.Duration
}

func NewCancellationService(store Store, clk clock.Clock, holdTTL time.Duration) *CancellationService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	return &CancellationService{store: store, clock: clk, holdTTL: holdTTL}
}

// Cancel verifies every named seat is freshly held by the buyer and flips
// them back to available. Cancelling an already-released seat fails with
// ErrSeatNotHeld rather than silently succeeding; callers should treat that
// as a terminal state, not retry.
func (s *CancellationService) Cancel(ctx context.Context, seatIDs []uuid.UUID, buyerID, caller uuid.UUID) error {
	if caller != buyerID {
		return domain.ErrBuyerMismatch
	}
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return domain.ErrEmptyInput
	}

	now := s.clock.Now()

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		seats, err := s.store.SeatsWithPriceForUpdate(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return domain.ErrSeatNotFound
		}

		for _, seat := range seats {
			if seat.Status != domain.SeatHeld {
				return domain.ErrSeatNotHeld
			}
			if seat.HolderID == nil || *seat.HolderID != buyerID {
				return domain.ErrNotSeatOwner
			}
			if seat.StaleAt(now, s.holdTTL) {
				return domain.ErrHoldExpired
			}
		}

		if err := s.store.ReleaseSeats(ctx, seatIDs); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"buyer_id":     buyerID,
			"seat_ids":     seatIDs,
			"cancelled_at": now.Format(time.RFC3339),
		})
		return s.store.RecordEvent(ctx, "seat", buyerID, "hold.cancelled", payload)
	})
}
