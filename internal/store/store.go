// Package store implements the persistence interfaces of the domain services
// on PostgreSQL through pgx.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/money"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL backed repository for products, discounts and
// domain events.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, fn)
}

// validUUID reports whether id can be cast to uuid. Malformed ids are treated
// as missing rows rather than database errors.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func allValidUUIDs(ids []string) bool {
	for _, id := range ids {
		if !validUUID(id) {
			return false
		}
	}
	return true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFoundError(resource)
	}
	return err
}

func parseMoney(s string) (money.Money, error) {
	return money.FromString(s)
}

func parseMoneyPtr(s *string) (*money.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := money.FromString(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func moneyParam(m *money.Money) *string {
	if m == nil {
		return nil
	}
	v := m.String()
	return &v
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
