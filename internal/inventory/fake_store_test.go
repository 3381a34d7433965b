package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/domain"
)

// fakeStore is an in-memory Store. ClaimSeat takes the lock per call, so
// concurrent claim races through it are real races on seat state. WithTx
// snapshots state and restores it when fn fails, mimicking rollback.
type fakeStore struct {
	mu     sync.Mutex
	seats  map[uuid.UUID]*domain.Seat
	prices map[uuid.UUID]float64 // section id -> price
	orders map[uuid.UUID]domain.Order
	events []string
}

func newFakeStore(seats []domain.Seat, prices map[uuid.UUID]float64) *fakeStore {
	f := &fakeStore{
		seats:  make(map[uuid.UUID]*domain.Seat, len(seats)),
		prices: prices,
		orders: make(map[uuid.UUID]domain.Order),
	}
	for i := range seats {
		s := seats[i]
		f.seats[s.ID] = &s
	}
	return f
}

func (f *fakeStore) snapshot() (map[uuid.UUID]*domain.Seat, map[uuid.UUID]domain.Order) {
	seats := make(map[uuid.UUID]*domain.Seat, len(f.seats))
	for id, s := range f.seats {
		cp := *s
		seats[id] = &cp
	}
	orders := make(map[uuid.UUID]domain.Order, len(f.orders))
	for id, o := range f.orders {
		orders[id] = o
	}
	return seats, orders
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	seats, orders := f.snapshot()
	f.mu.Unlock()

	err := fn(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.seats = seats
		f.orders = orders
	}
	return err
}

func (f *fakeStore) ClaimSeat(ctx context.Context, seatID, buyerID uuid.UUID, now, staleBefore time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seat, ok := f.seats[seatID]
	if !ok {
		return false, nil
	}
	claimable := seat.Status == domain.SeatAvailable ||
		(seat.Status == domain.SeatHeld && seat.HeldAt != nil && seat.HeldAt.Before(staleBefore))
	if !claimable {
		return false, nil
	}
	seat.Status = domain.SeatHeld
	seat.HolderID = &buyerID
	heldAt := now
	seat.HeldAt = &heldAt
	seat.OrderID = nil
	return true, nil
}

func (f *fakeStore) CountAvailable(ctx context.Context, sectionIDs []uuid.UUID, staleBefore time.Time) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[uuid.UUID]int, len(sectionIDs))
	for _, id := range sectionIDs {
		counts[id] = 0
	}
	for _, seat := range f.seats {
		if _, wanted := counts[seat.SectionID]; !wanted {
			continue
		}
		if seat.Status == domain.SeatAvailable ||
			(seat.Status == domain.SeatHeld && seat.HeldAt != nil && seat.HeldAt.Before(staleBefore)) {
			counts[seat.SectionID]++
		}
	}
	return counts, nil
}

func (f *fakeStore) ListSeats(ctx context.Context, eventID, sectionID uuid.UUID) ([]domain.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var seats []domain.Seat
	for _, seat := range f.seats {
		if seat.EventID == eventID && seat.SectionID == sectionID {
			seats = append(seats, *seat)
		}
	}
	return seats, nil
}

func (f *fakeStore) SeatsWithPriceForUpdate(ctx context.Context, seatIDs []uuid.UUID) ([]domain.PricedSeat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var seats []domain.PricedSeat
	for _, id := range seatIDs {
		seat, ok := f.seats[id]
		if !ok {
			continue
		}
		seats = append(seats, domain.PricedSeat{Seat: *seat, Price: f.prices[seat.SectionID]})
	}
	return seats, nil
}

func (f *fakeStore) MarkSeatsSold(ctx context.Context, seatIDs []uuid.UUID, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok {
			seat.Status = domain.SeatSold
			oid := orderID
			seat.OrderID = &oid
			seat.HeldAt = nil
		}
	}
	return nil
}

func (f *fakeStore) ReleaseSeats(ctx context.Context, seatIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok {
			seat.Status = domain.SeatAvailable
			seat.HolderID = nil
			seat.HeldAt = nil
		}
	}
	return nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) RecordEvent(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeStore) seat(id uuid.UUID) domain.Seat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.seats[id]
}

func (f *fakeStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}
