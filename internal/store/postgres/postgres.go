package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/localmart/internal/store"
)

// Store wraps the pgx pool. Connect it once at startup and Close it during
// shutdown; business code only ever sees the store.Store interface.
type Store struct {
	pool *pgxpool.Pool
}

// DSNFromEnv builds the connection string the way the deployment scripts
// expect (DB_USER/DB_PASSWORD/DB_HOST/DB_PORT/DB_NAME).
func DSNFromEnv() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)
}

func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close drains the pool; pending transactions finish or roll back first.
func (s *Store) Close() { s.pool.Close() }

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so the row ops below
// run identically inside and outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) InTx(ctx context.Context, fn func(sess store.Session) error) (txErr error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("pool.BeginTx: %w", err)
	}
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rbErr))
			}
		}
	}()

	if err := fn(session{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}
	return nil
}

func (s *Store) Listings() store.ListingReader { return &listingReader{q: s.pool} }
func (s *Store) Orders() store.OrderReader     { return &orderReader{q: s.pool} }

type session struct {
	tx pgx.Tx
}

func (s session) Listings() store.ListingSession { return &listingSession{q: s.tx} }
func (s session) Orders() store.OrderSession     { return &orderSession{q: s.tx} }
