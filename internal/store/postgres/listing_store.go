package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/localmart/internal/domain"
	"github.com/sudo-init-do/localmart/internal/store"
)

const listingColumns = `id, seller_id, title, price, status, latitude, longitude, images, created_at`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		l      domain.Listing
		status string
	)
	err := row.Scan(
		&l.ID, &l.SellerID, &l.Title, &l.Price, &status,
		&l.Location.Latitude, &l.Location.Longitude, &l.Images, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return l, store.ErrNotFound
		}
		return l, fmt.Errorf("row.Scan: %w", err)
	}
	l.Status = domain.ListingStatus(status)
	// The CHECK constraint should make this unreachable; a row that trips it
	// means the schema and the code disagree about the status set.
	if !l.Status.Valid() {
		return l, fmt.Errorf("listing %s has unknown status %q", l.ID, status)
	}
	return l, nil
}

type listingReader struct {
	q dbtx
}

func (r *listingReader) Get(ctx context.Context, id string) (domain.Listing, error) {
	return scanListing(r.q.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
}

// Nearby is a display read: no locks, ACTIVE rows only, distance-ordered.
// Plain haversine keeps the query portable (no PostGIS requirement).
const nearbySQL = `
	SELECT ` + listingColumns + `, distance_km FROM (
		SELECT ` + listingColumns + `,
			6371 * acos(least(1.0,
				cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude) - radians($2)) +
				sin(radians($1)) * sin(radians(latitude))
			)) AS distance_km
		FROM listings
		WHERE status = 'ACTIVE'
	) nearby
	WHERE distance_km <= $3
	ORDER BY distance_km ASC
	LIMIT $4`

func (r *listingReader) Nearby(ctx context.Context, q store.NearbyQuery) ([]store.NearbyListing, error) {
	rows, err := r.q.Query(ctx, nearbySQL, q.Latitude, q.Longitude, q.RadiusKm, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}
	defer rows.Close()

	var out []store.NearbyListing
	for rows.Next() {
		var (
			n      store.NearbyListing
			status string
		)
		if err := rows.Scan(
			&n.ID, &n.SellerID, &n.Title, &n.Price, &status,
			&n.Location.Latitude, &n.Location.Longitude, &n.Images, &n.CreatedAt,
			&n.DistanceKm,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		n.Status = domain.ListingStatus(status)
		out = append(out, n)
	}
	return out, rows.Err()
}

type listingSession struct {
	q dbtx
}

func (s *listingSession) GetForUpdate(ctx context.Context, id string) (domain.Listing, error) {
	return scanListing(s.q.QueryRow(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1 FOR UPDATE`, id))
}

func (s *listingSession) SetStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	ct, err := s.q.Exec(ctx, `UPDATE listings SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *listingSession) Insert(ctx context.Context, l domain.Listing) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO listings (id, seller_id, title, price, status, latitude, longitude, images, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.SellerID, l.Title, l.Price, string(l.Status),
		l.Location.Latitude, l.Location.Longitude, imagesOrEmpty(l.Images), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	return nil
}

// Update applies only the fields the patch carries. The caller already
// holds the row lock from GetForUpdate.
func (s *listingSession) Update(ctx context.Context, id string, patch domain.ListingPatch) error {
	var (
		sets   []string
		params []any
	)
	add := func(expr string, vals ...any) {
		for _, v := range vals {
			params = append(params, v)
			expr = strings.Replace(expr, "?", fmt.Sprintf("$%d", len(params)), 1)
		}
		sets = append(sets, expr)
	}

	if patch.Title != nil {
		add("title = ?", *patch.Title)
	}
	if patch.Price != nil {
		add("price = ?", *patch.Price)
	}
	if patch.Images != nil {
		add("images = ?", imagesOrEmpty(*patch.Images))
	}
	if patch.Location != nil {
		add("latitude = ?", patch.Location.Latitude)
		add("longitude = ?", patch.Location.Longitude)
	}
	if len(sets) == 0 {
		return nil
	}

	params = append(params, id)
	sql := fmt.Sprintf(`UPDATE listings SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(params))

	ct, err := s.q.Exec(ctx, sql, params...)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *listingSession) Delete(ctx context.Context, id string) error {
	ct, err := s.q.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("q.Exec: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func imagesOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
