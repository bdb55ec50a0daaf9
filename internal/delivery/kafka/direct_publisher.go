package kafka

import (
	"context"
	"log"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/azizikri/coupon-giveaway/internal/usecase"
)

// DirectPublisher is used when event streaming is disabled; it only logs.
type DirectPublisher struct{}

func NewDirectPublisher() usecase.ClaimPublisher {
	return &DirectPublisher{}
}

func (p *DirectPublisher) PublishClaim(ctx context.Context, claim domain.Claim) error {
	log.Printf("Claim recorded: identifier=%s coupon=%s timestamp=%d", claim.Identifier, claim.Coupon, claim.Timestamp)
	return nil
}
