package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/store"
)

const orderColumns = `id, listing_id, buyer_id, seller_id, status, total_amount, tracking_number, funds_released_at, placed_at, shipped_at, delivered_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &status, &o.TotalAmount,
		&o.TrackingNumber, &o.FundsReleasedAt, &o.PlacedAt, &o.ShippedAt, &o.DeliveredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, store.ErrNotFound
		}
		return o, fmt.Errorf("row.Scan: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

type orderReader struct {
	q dbtx
}

func (r *orderReader) Get(ctx context.Context, id string) (domain.Order, error) {
	return scanOrder(r.q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *orderReader) ListForUser(ctx context.Context, userID string, limit int) ([]domain.OrderSummary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT
			o.id, o.listing_id, l.title, COALESCE(l.images->>0, ''),
			o.total_amount, o.status, o.seller_id, o.buyer_id,
			o.placed_at, o.shipped_at, o.delivered_at
		FROM orders o
		INNER JOIN listings l ON l.id = o.listing_id
		WHERE o.buyer_id = $1 OR o.seller_id = $1
		ORDER BY o.placed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderSummary
	for rows.Next() {
		var (
			s      domain.OrderSummary
			status string
		)
		if err := rows.Scan(
			&s.ID, &s.ListingID, &s.ListingTitle, &s.ThumbnailURL,
			&s.Price, &status, &s.SellerID, &s.BuyerID,
			&s.PlacedAt, &s.ShippedAt, &s.DeliveredAt,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		s.Status = domain.OrderStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

type orderSession struct {
	q dbtx
}

func (s *orderSession) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return scanOrder(s.q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (s *orderSession) Insert(ctx context.Context, o domain.Order, item domain.OrderItem) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO orders (id, listing_id, buyer_id, seller_id, status, total_amount, tracking_number, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)`,
		o.ID, o.ListingID, o.BuyerID, o.SellerID, string(o.Status), o.TotalAmount, o.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = s.q.Exec(ctx, `
		INSERT INTO order_items (order_id, label, price, quantity)
		VALUES ($1, $2, $3, $4)`,
		item.OrderID, item.Label, item.Price, item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (s *orderSession) MarkShipped(ctx context.Context, id string, tracking *string, at time.Time) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    tracking_number = $2,
		    shipped_at = COALESCE(shipped_at, $3),
		    funds_released_at = NULL
		WHERE id = $4`,
		string(domain.OrderShipped), tracking, at, id,
	)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *orderSession) Complete(ctx context.Context, id string, at time.Time) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    delivered_at = COALESCE(delivered_at, $2),
		    funds_released_at = COALESCE(funds_released_at, $2)
		WHERE id = $3`,
		string(domain.OrderCompleted), at, id,
	)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *orderSession) SetStatus(ctx context.Context, id string, target domain.OrderStatus, at time.Time) error {
	ct, err := s.q.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    shipped_at = CASE WHEN $1 = $2 THEN COALESCE(shipped_at, $3) ELSE shipped_at END,
		    delivered_at = CASE WHEN $1 = $4 THEN COALESCE(delivered_at, $3) ELSE delivered_at END,
		    funds_released_at = CASE WHEN $1 = $4 THEN COALESCE(funds_released_at, $3) ELSE funds_released_at END
		WHERE id = $5`,
		string(target), string(domain.OrderShipped), at, string(domain.OrderCompleted), id,
	)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
