package repository

import (
	"context"

	"github.com/azizikri/coupon-giveaway/internal/domain"
)

// CouponPool is the ordered set of coupon codes handed out in rotation.
type CouponPool interface {
	// CountCoupons returns the number of coupons in the pool.
	CountCoupons(ctx context.Context) (int, error)
	// AddCoupons appends codes to the tail, in order.
	AddCoupons(ctx context.Context, codes []string) error
	// Head returns the coupon at the front of the rotation, or
	// domain.ErrPoolEmpty.
	Head(ctx context.Context) (domain.Coupon, error)
	// MoveToTail places c behind every other coupon.
	MoveToTail(ctx context.Context, c domain.Coupon) error
	// ListCoupons returns the pool in rotation order.
	ListCoupons(ctx context.Context) ([]domain.Coupon, error)
}

// ClaimLedger stores claims per identifier. Retention reports whether
// RecordClaim appends to a history or overwrites the previous claim.
type ClaimLedger interface {
	RecordClaim(ctx context.Context, claim domain.Claim) error
	ClaimsFor(ctx context.Context, identifier string) ([]domain.Claim, error)
	Retention() domain.Retention
}

type Store interface {
	CouponPool
	ClaimLedger
	Close() error
}
