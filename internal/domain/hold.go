package domain

import "github.com/google/uuid"

// HoldResult reports the outcome of one batch hold attempt. Seats are claimed
// independently, so a mix of held and failed ids is an expected outcome.
type HoldResult struct {
	RequestedCount int
	HeldCount      int
	HeldSeatIDs    []uuid.UUID
	FailedSeatIDs  []uuid.UUID
}

// Partial reports whether some, but not all, requested seats were claimed.
func (r HoldResult) Partial() bool {
	return r.HeldCount > 0 && r.HeldCount < r.RequestedCount
}
