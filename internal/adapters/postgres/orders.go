package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/seat-inventory/internal/domain"
	"golang.org/x/sync/errgroup"
)

// CreateOrder writes the order row and one line per seat. Callers run it
// inside the purchase transaction so the order never appears without its seats.
func (r *Repository) CreateOrder(ctx context.Context, order domain.Order) error {
	_, err := r.exec(ctx, `
		INSERT INTO orders (id, buyer_id, total_amount, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, order.ID, order.BuyerID, order.TotalAmount, order.PaymentStatus, order.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	if tx := txFromContext(ctx); tx == nil {
		// Lines can go in parallel when no shared tx connection is in play.
		g, gctx := errgroup.WithContext(ctx)
		for _, line := range order.Lines {
			line := line
			g.Go(func() error {
				return r.insertLine(gctx, line)
			})
		}
		return g.Wait()
	}

	for _, line := range order.Lines {
		if err := r.insertLine(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) insertLine(ctx context.Context, line domain.OrderLine) error {
	_, err := r.exec(ctx, `
		INSERT INTO order_lines (order_id, seat_id, price)
		VALUES ($1, $2, $3)
	`, line.OrderID, line.SeatID, line.Price)
	return errors.Wrap(err, "insert order line")
}

func (r *Repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var order domain.Order
	err := r.queryRow(ctx, `
		SELECT id, buyer_id, total_amount, payment_status, created_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&order.ID, &order.BuyerID, &order.TotalAmount, &order.PaymentStatus, &order.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}

	rows, err := r.query(ctx, `
		SELECT order_id, seat_id, price
		FROM order_lines WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order lines")
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.OrderID, &line.SeatID, &line.Price); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}
	return &order, rows.Err()
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	result, err := r.exec(ctx, `
		UPDATE orders SET payment_status = $2 WHERE id = $1
	`, orderID, status)
	if err != nil {
		return errors.Wrap(err, "update payment status")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
