package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/azizikri/coupon-giveaway/internal/metrics"
)

type ClaimStatus string

const (
	ClaimGranted     ClaimStatus = "granted"
	ClaimCooldown    ClaimStatus = "cooldown"
	ClaimUnavailable ClaimStatus = "unavailable"
)

// ClaimOutcome is the result of one claim attempt. Degraded lists the storage
// failures that were absorbed along the way.
type ClaimOutcome struct {
	Status   ClaimStatus
	Coupon   string
	Cooldown *domain.Cooldown
	Degraded []error
}

type CouponService struct {
	ledger    *Ledger
	pool      *Pool
	publisher ClaimPublisher

	// mu serialises check, rotate and record within this process.
	mu sync.Mutex
}

func NewCouponService(ledger *Ledger, pool *Pool, publisher ClaimPublisher) *CouponService {
	return &CouponService{
		ledger:    ledger,
		pool:      pool,
		publisher: publisher,
	}
}

func (s *CouponService) Claim(ctx context.Context, identifier string) ClaimOutcome {
	out, claim := s.claim(ctx, identifier)
	metrics.ClaimsTotal.WithLabelValues(string(out.Status)).Inc()

	// Publishing happens outside the lock; a slow broker must not queue claims.
	if out.Status == ClaimGranted && s.publisher != nil {
		if err := s.publisher.PublishClaim(ctx, claim); err != nil {
			log.Printf("Failed to publish claim for %s: %v", identifier, err)
			metrics.DegradedTotal.WithLabelValues("publish_claim").Inc()
		}
	}
	return out
}

// claim runs check, rotate and record under s.mu.
func (s *CouponService) claim(ctx context.Context, identifier string) (ClaimOutcome, domain.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out ClaimOutcome

	recent := s.ledger.CheckRecentClaim(ctx, identifier)
	if recent.Degraded {
		out.Degraded = append(out.Degraded, recent.Reason)
	}
	if recent.Value != nil {
		out.Status = ClaimCooldown
		out.Cooldown = recent.Value
		out.Coupon = recent.Value.Coupon
		return out, domain.Claim{}
	}

	next := s.pool.NextCoupon(ctx)
	if next.Degraded {
		out.Degraded = append(out.Degraded, next.Reason)
	}
	if next.Value == "" {
		out.Status = ClaimUnavailable
		return out, domain.Claim{}
	}

	recorded := s.ledger.RecordClaim(ctx, identifier, next.Value)
	if recorded.Degraded {
		out.Degraded = append(out.Degraded, recorded.Reason)
	}

	out.Status = ClaimGranted
	out.Coupon = next.Value
	return out, recorded.Value
}

func (s *CouponService) Restock(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	if err := s.pool.AddCoupons(ctx, codes); err != nil {
		return fmt.Errorf("restock %d coupons: %w", len(codes), err)
	}
	log.Printf("Restocked %d coupons", len(codes))
	return nil
}

var (
	_ CouponClaimer = (*CouponService)(nil)
	_ Restocker     = (*CouponService)(nil)
)
