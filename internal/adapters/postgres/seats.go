package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-inventory/internal/domain"
)

// ClaimSeat is the engine's single synchronization primitive: one conditional
// write that succeeds for exactly one concurrent claimant. A seat is claimable
// when available, or when its existing hold went stale before staleBefore.
func (r *Repository) ClaimSeat(ctx context.Context, seatID, buyerID uuid.UUID, now, staleBefore time.Time) (bool, error) {
	result, err := r.exec(ctx, `
		UPDATE seats
		SET status = 'held', holder_id = $2, held_at = $3, order_id = NULL
		WHERE id = $1
		  AND (status = 'available' OR (status = 'held' AND held_at < $4))
	`, seatID, buyerID, now, staleBefore)
	if err != nil {
		return false, errors.Wrap(err, "claim seat")
	}
	return result.RowsAffected() == 1, nil
}

// CountAvailable returns per-section counts of claimable seats in one query.
// Held rows older than staleBefore count as available even though nothing has
// swept them yet. Every requested section appears in the result.
func (r *Repository) CountAvailable(ctx context.Context, sectionIDs []uuid.UUID, staleBefore time.Time) (map[uuid.UUID]int, error) {
	rows, err := r.query(ctx, `
		SELECT section_id, COUNT(*)
		FROM seats
		WHERE section_id = ANY($1)
		  AND (status = 'available' OR (status = 'held' AND held_at < $2))
		GROUP BY section_id
	`, sectionIDs, staleBefore)
	if err != nil {
		return nil, errors.Wrap(err, "count available")
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int, len(sectionIDs))
	for rows.Next() {
		var sectionID uuid.UUID
		var count int
		if err := rows.Scan(&sectionID, &count); err != nil {
			return nil, err
		}
		counts[sectionID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range sectionIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return counts, nil
}

// ListSeats returns every seat of a section regardless of status, for seat maps.
func (r *Repository) ListSeats(ctx context.Context, eventID, sectionID uuid.UUID) ([]domain.Seat, error) {
	rows, err := r.query(ctx, `
		SELECT id, event_id, section_id, seat_label, status, holder_id, held_at, order_id
		FROM seats
		WHERE event_id = $1 AND section_id = $2
		ORDER BY seat_label ASC
	`, eventID, sectionID)
	if err != nil {
		return nil, errors.Wrap(err, "list seats")
	}
	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SectionID, &s.Label, &s.Status, &s.HolderID, &s.HeldAt, &s.OrderID); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// SeatsWithPriceForUpdate loads and row-locks the named seats joined with the
// section price, inside the caller's transaction.
func (r *Repository) SeatsWithPriceForUpdate(ctx context.Context, seatIDs []uuid.UUID) ([]domain.PricedSeat, error) {
	rows, err := r.query(ctx, `
		SELECT s.id, s.event_id, s.section_id, s.seat_label, s.status, s.holder_id, s.held_at, s.order_id, sec.price
		FROM seats s
		JOIN sections sec ON s.section_id = sec.id
		WHERE s.id = ANY($1)
		FOR UPDATE OF s
	`, seatIDs)
	if err != nil {
		return nil, errors.Wrap(err, "seats for update")
	}
	defer rows.Close()

	var seats []domain.PricedSeat
	for rows.Next() {
		var s domain.PricedSeat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SectionID, &s.Label, &s.Status, &s.HolderID, &s.HeldAt, &s.OrderID, &s.Price); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *Repository) MarkSeatsSold(ctx context.Context, seatIDs []uuid.UUID, orderID uuid.UUID) error {
	_, err := r.exec(ctx, `
		UPDATE seats
		SET status = 'sold', order_id = $2, held_at = NULL
		WHERE id = ANY($1)
	`, seatIDs, orderID)
	return errors.Wrap(err, "mark seats sold")
}

func (r *Repository) ReleaseSeats(ctx context.Context, seatIDs []uuid.UUID) error {
	_, err := r.exec(ctx, `
		UPDATE seats
		SET status = 'available', holder_id = NULL, held_at = NULL
		WHERE id = ANY($1)
	`, seatIDs)
	return errors.Wrap(err, "release seats")
}

// ReleaseStaleHolds flips a bounded batch of expired holds back to available
// and returns the affected seat ids. Pure hygiene; the WHERE predicate keeps
// it from ever racing a fresh re-claim.
func (r *Repository) ReleaseStaleHolds(ctx context.Context, staleBefore time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.query(ctx, `
		UPDATE seats
		SET status = 'available', holder_id = NULL, held_at = NULL
		WHERE id IN (
			SELECT id FROM seats
			WHERE status = 'held' AND held_at < $1
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		AND status = 'held' AND held_at < $1
		RETURNING id
	`, staleBefore, limit)
	if err != nil {
		return nil, errors.Wrap(err, "release stale holds")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProvisionSection creates the section row and its full block of seats, one
// per generated label, all available. Run once when a section is set up.
func (r *Repository) ProvisionSection(ctx context.Context, section domain.Section) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		_, err := r.exec(ctx, `
			INSERT INTO sections (id, event_id, name, price, total_seats)
			VALUES ($1, $2, $3, $4, $5)
		`, section.ID, section.EventID, section.Name, section.Price, section.TotalSeats)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return errors.Wrap(err, "insert section")
		}

		labels := domain.SeatLabels(section.TotalSeats)
		tx := txFromContext(ctx)
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"seats"},
			[]string{"id", "event_id", "section_id", "seat_label", "status"},
			pgx.CopyFromSlice(len(labels), func(i int) ([]any, error) {
				return []any{uuid.New(), section.EventID, section.ID, labels[i], string(domain.SeatAvailable)}, nil
			}),
		)
		return errors.Wrap(err, "copy seats")
	})
}

// GetSection is a read-only catalog lookup used by availability callers.
func (r *Repository) GetSection(ctx context.Context, sectionID uuid.UUID) (domain.Section, error) {
	var s domain.Section
	err := r.queryRow(ctx, `
		SELECT id, event_id, name, price, total_seats FROM sections WHERE id = $1
	`, sectionID).Scan(&s.ID, &s.EventID, &s.Name, &s.Price, &s.TotalSeats)
	if err != nil {
		if isInvalidUUID(err) || err == pgx.ErrNoRows {
			return domain.Section{}, domain.ErrNotFound
		}
		return domain.Section{}, errors.Wrap(err, "get section")
	}
	return s, nil
}
