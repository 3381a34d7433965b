package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSeatStaleAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 10 * time.Second
	holder := uuid.New()

	held := func(heldAt time.Time) Seat {
		return Seat{Status: SeatHeld, HolderID: &holder, HeldAt: &heldAt}
	}

	cases := []struct {
		name string
		seat Seat
		want bool
	}{
		{"fresh hold", held(now.Add(-ttl / 2)), false},
		{"exactly at ttl", held(now.Add(-ttl)), false},
		{"just past ttl", held(now.Add(-ttl - time.Nanosecond)), true},
		{"available seat", Seat{Status: SeatAvailable}, false},
		{"sold seat", Seat{Status: SeatSold}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.seat.StaleAt(now, ttl); got != tc.want {
				t.Fatalf("StaleAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSeatHeldFreshBy(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Minute
	buyer := uuid.New()
	other := uuid.New()
	heldAt := now.Add(-time.Second)

	seat := Seat{Status: SeatHeld, HolderID: &buyer, HeldAt: &heldAt}
	if !seat.HeldFreshBy(buyer, now, ttl) {
		t.Fatalf("expected fresh hold by buyer")
	}
	if seat.HeldFreshBy(other, now, ttl) {
		t.Fatalf("hold must not belong to another buyer")
	}

	stale := now.Add(-ttl - time.Second)
	seat.HeldAt = &stale
	if seat.HeldFreshBy(buyer, now, ttl) {
		t.Fatalf("stale hold must not count as fresh")
	}
}

func TestSeatLabels(t *testing.T) {
	labels := SeatLabels(25)
	if len(labels) != 25 {
		t.Fatalf("expected 25 labels, got %d", len(labels))
	}
	if labels[0] != "A1" || labels[9] != "A10" || labels[10] != "B1" || labels[24] != "C5" {
		t.Fatalf("unexpected label layout: %v", labels)
	}

	if got := SeatLabels(0); len(got) != 0 {
		t.Fatalf("expected no labels for empty section, got %v", got)
	}
}

func TestSeatLabels_DoublesLettersPastRowZ(t *testing.T) {
	labels := SeatLabels(265)
	if len(labels) != 265 {
		t.Fatalf("expected 265 labels, got %d", len(labels))
	}
	if labels[250] != "Z1" || labels[259] != "Z10" {
		t.Fatalf("unexpected row Z labels: %v %v", labels[250], labels[259])
	}
	if labels[260] != "AA1" || labels[264] != "AA5" {
		t.Fatalf("expected double-letter rows after Z, got %v %v", labels[260], labels[264])
	}
}
