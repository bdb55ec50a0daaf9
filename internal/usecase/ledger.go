package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/azizikri/coupon-giveaway/internal/metrics"
	"github.com/azizikri/coupon-giveaway/internal/repository"
	"github.com/google/uuid"
)

const DefaultCooldownWindow = time.Hour

// Ledger answers whether an identifier is still inside its cooldown window
// and records new claims. Storage failures never reach the caller: they come
// back as degraded results.
type Ledger struct {
	store  repository.ClaimLedger
	window time.Duration
	now    func() time.Time
}

type LedgerOption func(*Ledger)

func WithCooldownWindow(d time.Duration) LedgerOption {
	return func(l *Ledger) {
		if d > 0 {
			l.window = d
		}
	}
}

func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(store repository.ClaimLedger, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:  store,
		window: DefaultCooldownWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Retention reports how the underlying store keeps claims per identifier.
func (l *Ledger) Retention() domain.Retention {
	return l.store.Retention()
}

func (l *Ledger) RecordClaim(ctx context.Context, identifier, coupon string) domain.Result[domain.Claim] {
	claim := domain.Claim{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Coupon:     coupon,
		Timestamp:  l.now().UnixMilli(),
	}
	if err := l.store.RecordClaim(ctx, claim); err != nil {
		log.Printf("Error recording claim for %s: %v", identifier, err)
		metrics.DegradedTotal.WithLabelValues("record_claim").Inc()
		return domain.Degraded(claim, fmt.Errorf("record claim: %w", err))
	}
	return domain.Ok(claim)
}

// CheckRecentClaim returns the active cooldown for identifier, or nil when the
// newest claim is older than the window or no claim exists.
func (l *Ledger) CheckRecentClaim(ctx context.Context, identifier string) domain.Result[*domain.Cooldown] {
	claims, err := l.store.ClaimsFor(ctx, identifier)
	if err != nil {
		log.Printf("Error checking recent claim for %s: %v", identifier, err)
		metrics.DegradedTotal.WithLabelValues("check_claim").Inc()
		return domain.Degraded[*domain.Cooldown](nil, fmt.Errorf("check recent claim: %w", err))
	}

	latest, ok := latestClaim(claims)
	if !ok {
		return domain.Ok[*domain.Cooldown](nil)
	}

	limit := l.window.Milliseconds()
	elapsed := l.now().UnixMilli() - latest.Timestamp
	if elapsed >= limit {
		return domain.Ok[*domain.Cooldown](nil)
	}

	return domain.Ok(&domain.Cooldown{
		Coupon:               latest.Coupon,
		TimeRemainingMinutes: ceilMinutes(limit - elapsed),
	})
}

func latestClaim(claims []domain.Claim) (domain.Claim, bool) {
	if len(claims) == 0 {
		return domain.Claim{}, false
	}
	latest := claims[0]
	for _, c := range claims[1:] {
		if c.Timestamp > latest.Timestamp {
			latest = c
		}
	}
	return latest, true
}

func ceilMinutes(ms int64) int {
	const minute = int64(time.Minute / time.Millisecond)
	return int((ms + minute - 1) / minute)
}
