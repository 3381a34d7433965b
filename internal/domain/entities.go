package domain

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatHeld      SeatStatus = "held"
	SeatSold      SeatStatus = "sold"
)

// Seat is the atomic unit of inventory, unique per (event, section, label).
type Seat struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	SectionID uuid.UUID
	Label     string
	Status    SeatStatus
	HolderID  *uuid.UUID
	HeldAt    *time.Time
	OrderID   *uuid.UUID
}

// StaleAt reports whether the seat carries a hold whose age exceeds ttl.
// Every reader rederives this; nothing relies on a sweep having run.
func (s Seat) StaleAt(now time.Time, ttl time.Duration) bool {
	return s.Status == SeatHeld && s.HeldAt != nil && s.HeldAt.Add(ttl).Before(now)
}

// HeldFreshBy reports whether buyer currently owns a live hold on the seat.
func (s Seat) HeldFreshBy(buyer uuid.UUID, now time.Time, ttl time.Duration) bool {
	return s.Status == SeatHeld && s.HolderID != nil && *s.HolderID == buyer && !s.StaleAt(now, ttl)
}

// PricedSeat carries a seat plus its section price, for purchase totals.
type PricedSeat struct {
	Seat
	Price float64
}

type Section struct {
	ID         uuid.UUID
	EventID    uuid.UUID
	Name       string
	Price      float64
	TotalSeats int
}

type Order struct {
	ID            uuid.UUID
	BuyerID       uuid.UUID
	TotalAmount   float64
	PaymentStatus string
	CreatedAt     time.Time
	Lines         []OrderLine
}

type OrderLine struct {
	OrderID uuid.UUID
	SeatID  uuid.UUID
	Price   float64
}

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)
