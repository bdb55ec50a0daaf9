package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/azizikri/coupon-giveaway/internal/metrics"
	"github.com/azizikri/coupon-giveaway/internal/repository"
)

const (
	DefaultFallbackCoupon  = "FALLBACK10"
	DefaultEmergencyCoupon = "EMERGENCY25"
)

var (
	DefaultCoupons = []string{
		"SAVE10", "DISCOUNT20", "FREESHIP", "SPECIAL25", "DEAL15",
		"OFFER30", "PROMO5", "BONUS50", "EXTRA15", "GIFT25",
	}
	EmergencyCoupons = []string{
		"SAVE10", "DISCOUNT20", "FREESHIP", "SPECIAL25", "DEAL15",
	}
)

// Pool hands out coupons in round-robin order: the head is issued and then
// moved behind every other coupon.
type Pool struct {
	store         repository.CouponPool
	fallbackCode  string
	emergencyCode string
}

type PoolOption func(*Pool)

// WithFallbackCodes overrides the codes issued when storage fails (fallback)
// or when the pool stays empty after reseeding (emergency). An empty code
// means no coupon is issued in that case.
func WithFallbackCodes(fallback, emergency string) PoolOption {
	return func(p *Pool) {
		p.fallbackCode = fallback
		p.emergencyCode = emergency
	}
}

func NewPool(store repository.CouponPool, opts ...PoolOption) *Pool {
	p := &Pool{
		store:         store,
		fallbackCode:  DefaultFallbackCoupon,
		emergencyCode: DefaultEmergencyCoupon,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnsureSeeded fills an empty pool with DefaultCoupons. It reports whether it
// seeded anything.
func (p *Pool) EnsureSeeded(ctx context.Context) (bool, error) {
	n, err := p.store.CountCoupons(ctx)
	if err != nil {
		return false, fmt.Errorf("count coupons: %w", err)
	}
	if n > 0 {
		log.Printf("Found %d existing coupons", n)
		return false, nil
	}

	log.Println("No coupons found, adding initial coupons...")
	if err := p.store.AddCoupons(ctx, DefaultCoupons); err != nil {
		return false, fmt.Errorf("seed coupons: %w", err)
	}
	return true, nil
}

func (p *Pool) NextCoupon(ctx context.Context) domain.Result[string] {
	head, err := p.store.Head(ctx)
	if errors.Is(err, domain.ErrPoolEmpty) {
		log.Println("No coupons found, creating emergency coupons")
		metrics.PoolReseedsTotal.Inc()
		if addErr := p.store.AddCoupons(ctx, EmergencyCoupons); addErr != nil {
			log.Printf("Error creating emergency coupons: %v", addErr)
		}
		head, err = p.store.Head(ctx)
		if err != nil {
			log.Printf("Emergency fallback: returning %q: %v", p.emergencyCode, err)
			return p.degrade("emergency", p.emergencyCode, fmt.Errorf("pool empty after reseed: %w", err))
		}
	} else if err != nil {
		log.Printf("Error getting next coupon: %v", err)
		return p.degrade("next_coupon", p.fallbackCode, fmt.Errorf("read head coupon: %w", err))
	}

	if err := p.store.MoveToTail(ctx, head); err != nil {
		log.Printf("Error moving coupon %s for round-robin: %v", head.Code, err)
		metrics.DegradedTotal.WithLabelValues("rotate").Inc()
		return domain.Degraded(head.Code, err)
	}
	return domain.Ok(head.Code)
}

func (p *Pool) AddCoupons(ctx context.Context, codes []string) error {
	return p.store.AddCoupons(ctx, codes)
}

func (p *Pool) List(ctx context.Context) ([]domain.Coupon, error) {
	return p.store.ListCoupons(ctx)
}

func (p *Pool) degrade(op, code string, reason error) domain.Result[string] {
	metrics.DegradedTotal.WithLabelValues(op).Inc()
	if code == "" {
		return domain.Degraded("", fmt.Errorf("%w: %v", domain.ErrNoCoupon, reason))
	}
	return domain.Degraded(code, reason)
}
