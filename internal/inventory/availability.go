package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/clock"
	"github.com/robertarktes/seat-inventory/internal/domain"
)

// AvailabilityService is the read side: it reports claimable seat counts
// without mutating anything. A hold older than the TTL counts as available
// even though no sweep has touched the row yet.
type AvailabilityService struct {
	store   Store
	clock   clock.Clock
	holdTTL time.Duration
}

func NewAvailabilityService(store Store, clk clock.Clock, holdTTL time.Duration) *AvailabilityService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	return &AvailabilityService{store: store, clock: clk, holdTTL: holdTTL}
}

// Availability returns a complete section->count mapping for the requested
// ids; sections with nothing left map to 0. Duplicates are ignored.
func (s *AvailabilityService) Availability(ctx context.Context, sectionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	sectionIDs = dedupe(sectionIDs)
	if len(sectionIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}
	staleBefore := s.clock.Now().Add(-s.holdTTL)
	return s.store.CountAvailable(ctx, sectionIDs, staleBefore)
}

// ListSeats returns every seat in a section, all statuses included, so a
// presentation layer can render the seat map and compute remaining hold time
// from held_at plus the TTL on its own.
func (s *AvailabilityService) ListSeats(ctx context.Context, eventID, sectionID uuid.UUID) ([]domain.Seat, error) {
	return s.store.ListSeats(ctx, eventID, sectionID)
}

// HoldTTL exposes the configured window so callers can surface expiry.
func (s *AvailabilityService) HoldTTL() time.Duration {
	return s.holdTTL
}
