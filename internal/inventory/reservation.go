package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/clock"
	"github.com/robertarktes/seat-inventory/internal/domain"
	"github.com/robertarktes/seat-inventory/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ReservationService claims seats for a buyer. Each seat is decided by one
// conditional write against the store, so two racing buyers can never both
// win the same seat, and a batch may legitimately succeed only in part.
type ReservationService struct {
	store   Store
	clock   clock.Clock
	holdTTL time.Duration
}

func NewReservationService(store Store, clk clock.Clock, holdTTL time.Duration) *ReservationService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	return &ReservationService{store: store, clock: clk, holdTTL: holdTTL}
}

// Hold attempts to claim every seat in seatIDs for buyerID. caller is the
// authenticated identity and must match buyerID. Seats already freshly held
// or sold are reported in FailedSeatIDs, not as errors; a hold whose age
// exceeds the TTL is evictable by any new claimant.
func (s *ReservationService) Hold(ctx context.Context, seatIDs []uuid.UUID, buyerID, caller uuid.UUID) (domain.HoldResult, error) {
	if caller != buyerID {
		return domain.HoldResult{}, domain.ErrBuyerMismatch
	}
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return domain.HoldResult{}, domain.ErrEmptyInput
	}

	now := s.clock.Now()
	staleBefore := now.Add(-s.holdTTL)

	claimed := make([]bool, len(seatIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, seatID := range seatIDs {
		i, seatID := i, seatID
		g.Go(func() error {
			ok, err := s.store.ClaimSeat(gctx, seatID, buyerID, now, staleBefore)
			if err != nil {
				return err
			}
			claimed[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.HoldResult{}, err
	}

	result := domain.HoldResult{RequestedCount: len(seatIDs)}
	for i, seatID := range seatIDs {
		if claimed[i] {
			result.HeldSeatIDs = append(result.HeldSeatIDs, seatID)
		} else {
			result.FailedSeatIDs = append(result.FailedSeatIDs, seatID)
		}
	}
	result.HeldCount = len(result.HeldSeatIDs)

	observability.SeatsClaimed.Add(float64(result.HeldCount))
	observability.ClaimConflicts.Add(float64(len(result.FailedSeatIDs)))

	if result.HeldCount == 0 {
		return result, domain.ErrNoSeatsHeld
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"buyer_id":   buyerID,
		"seat_ids":   result.HeldSeatIDs,
		"held_at":    now.Format(time.RFC3339),
		"expires_at": now.Add(s.holdTTL).Format(time.RFC3339),
	})
	if err := s.store.RecordEvent(ctx, "seat", buyerID, "seat.held", payload); err != nil {
		return result, err
	}

	return result, nil
}

// HoldTTL exposes the configured window so callers can surface expiry.
func (s *ReservationService) HoldTTL() time.Duration {
	return s.holdTTL
}
