package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	countCouponsSQL = `SELECT COUNT(*) FROM coupons WHERE available`
	insertCouponSQL = `INSERT INTO coupons (id, code, available) VALUES ($1, $2, TRUE)`
	headCouponSQL   = `SELECT id::text, code, available, sequence FROM coupons WHERE available ORDER BY sequence ASC LIMIT 1`
	listCouponsSQL  = `SELECT id::text, code, available, sequence FROM coupons WHERE available ORDER BY sequence ASC`
	rotateCouponSQL = `UPDATE coupons SET sequence = nextval('coupon_rotation_seq'), last_used_at = NOW() WHERE id = $1`

	insertClaimSQL  = `INSERT INTO claims (id, identifier, coupon, claimed_at_ms) VALUES ($1, $2, $3, $4)`
	deleteClaimsSQL = `DELETE FROM claims WHERE identifier = $1`
	listClaimsSQL   = `SELECT id::text, identifier, coupon, claimed_at_ms FROM claims WHERE identifier = $1 ORDER BY claimed_at_ms DESC`
)

// PostgresStore keeps the pool in the coupons table ordered by sequence and
// the claim ledger in the claims table.
type PostgresStore struct {
	pool      *pgxpool.Pool
	retention domain.Retention
}

func NewPostgres(pool *pgxpool.Pool, retention domain.Retention) *PostgresStore {
	return &PostgresStore{
		pool:      pool,
		retention: retention,
	}
}

func (s *PostgresStore) ExecTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountCoupons(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, countCouponsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) AddCoupons(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return s.ExecTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, code := range codes {
			batch.Queue(insertCouponSQL, uuid.New(), code)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert coupons: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Head(ctx context.Context) (domain.Coupon, error) {
	var c domain.Coupon
	err := s.pool.QueryRow(ctx, headCouponSQL).Scan(&c.ID, &c.Code, &c.Available, &c.Sequence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Coupon{}, domain.ErrPoolEmpty
		}
		return domain.Coupon{}, fmt.Errorf("select head coupon: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) MoveToTail(ctx context.Context, c domain.Coupon) error {
	tag, err := s.pool.Exec(ctx, rotateCouponSQL, c.ID)
	if err != nil {
		return fmt.Errorf("rotate coupon %s: %w", c.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rotate coupon %s: %w", c.Code, pgx.ErrNoRows)
	}
	return nil
}

func (s *PostgresStore) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := s.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	coupons, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Coupon, error) {
		var c domain.Coupon
		err := row.Scan(&c.ID, &c.Code, &c.Available, &c.Sequence)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan coupons: %w", err)
	}
	return coupons, nil
}

func (s *PostgresStore) RecordClaim(ctx context.Context, claim domain.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	return s.ExecTx(ctx, func(tx pgx.Tx) error {
		if s.retention == domain.RetainLatest {
			if _, err := tx.Exec(ctx, deleteClaimsSQL, claim.Identifier); err != nil {
				return fmt.Errorf("clear previous claim: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, insertClaimSQL, claim.ID, claim.Identifier, claim.Coupon, claim.Timestamp); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) ClaimsFor(ctx context.Context, identifier string) ([]domain.Claim, error) {
	rows, err := s.pool.Query(ctx, listClaimsSQL, identifier)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	claims, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Claim])
	if err != nil {
		return nil, fmt.Errorf("scan claims: %w", err)
	}
	return claims, nil
}

func (s *PostgresStore) Retention() domain.Retention {
	return s.retention
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
