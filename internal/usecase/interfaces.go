package usecase

import (
	"context"

	"github.com/azizikri/coupon-giveaway/internal/domain"
)

// CouponClaimer is what the HTTP layer needs to serve a claim.
type CouponClaimer interface {
	Claim(ctx context.Context, identifier string) ClaimOutcome
}

// Restocker appends codes to the pool.
type Restocker interface {
	Restock(ctx context.Context, codes []string) error
}

// ClaimPublisher announces granted claims to other systems. Publishing is
// best-effort and never affects the claim itself.
type ClaimPublisher interface {
	PublishClaim(ctx context.Context, claim domain.Claim) error
}
