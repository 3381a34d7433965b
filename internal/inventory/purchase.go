package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/clock"
	"github.com/robertarktes/seat-inventory/internal/domain"
)

// PurchaseService converts a buyer's live holds into a permanent sale. The
// whole batch, order row included, commits or rolls back as one transaction.
type PurchaseService struct {
	store   Store
	clock   clock.Clock
	holdTTL time.Duration
}

func NewPurchaseService(store Store, clk clock.Clock, holdTTL time.Duration) *PurchaseService {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	return &PurchaseService{store: store, clock: clk, holdTTL: holdTTL}
}

// Purchase validates that every named seat is freshly held by the buyer, then
// creates the order with one line per seat and flips the seats to sold.
// Payment is assumed authorized before this is invoked. A hold that expired
// between seat selection and checkout aborts with ErrHoldExpired; the buyer
// re-reserves rather than getting a grace period.
func (s *PurchaseService) Purchase(ctx context.Context, seatIDs []uuid.UUID, buyerID, caller uuid.UUID) (uuid.UUID, error) {
	if caller != buyerID {
		return uuid.Nil, domain.ErrBuyerMismatch
	}
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return uuid.Nil, domain.ErrEmptyInput
	}

	now := s.clock.Now()
	orderID := uuid.New()

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		seats, err := s.store.SeatsWithPriceForUpdate(ctx, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return domain.ErrSeatNotFound
		}

		var total float64
		lines := make([]domain.OrderLine, 0, len(seats))
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
			total += seat.Price
			lines = append(lines, domain.OrderLine{OrderID: orderID, SeatID: seat.ID, Price: seat.Price})
		}

		order := domain.Order{
			ID:            orderID,
			BuyerID:       buyerID,
			TotalAmount:   total,
			PaymentStatus: domain.PaymentCompleted,
			CreatedAt:     now,
			Lines:         lines,
		}
		if err := s.store.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := s.store.MarkSeatsSold(ctx, seatIDs, orderID); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"order_id":   orderID,
			"buyer_id":   buyerID,
			"total":      total,
			"seat_ids":   seatIDs,
			"created_at": now.Format(time.RFC3339),
		})
		return s.store.RecordEvent(ctx, "order", orderID, "order.created", payload)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return orderID, nil
}
