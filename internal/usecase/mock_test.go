package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/azizikri/coupon-giveaway/internal/domain"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func fixedClock() time.Time { return testNow }

// mockStore is an in-memory store whose operations can be made to fail.
type mockStore struct {
	coupons []string
	claims  map[string][]domain.Claim

	countErr  error
	addErr    error
	headErr   error
	moveErr   error
	recordErr error
	claimsErr error

	addCalls    int
	recordCalls int
}

func newMockStore(coupons ...string) *mockStore {
	return &mockStore{
		coupons: append([]string(nil), coupons...),
		claims:  map[string][]domain.Claim{},
	}
}

func (m *mockStore) CountCoupons(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.coupons), nil
}

func (m *mockStore) AddCoupons(ctx context.Context, codes []string) error {
	m.addCalls++
	if m.addErr != nil {
		return m.addErr
	}
	m.coupons = append(m.coupons, codes...)
	return nil
}

func (m *mockStore) Head(ctx context.Context) (domain.Coupon, error) {
	if m.headErr != nil {
		return domain.Coupon{}, m.headErr
	}
	if len(m.coupons) == 0 {
		return domain.Coupon{}, domain.ErrPoolEmpty
	}
	return domain.Coupon{ID: m.coupons[0], Code: m.coupons[0], Available: true}, nil
}

func (m *mockStore) MoveToTail(ctx context.Context, c domain.Coupon) error {
	if m.moveErr != nil {
		return m.moveErr
	}
	for i, code := range m.coupons {
		if code == c.Code {
			m.coupons = append(m.coupons[:i], m.coupons[i+1:]...)
			m.coupons = append(m.coupons, code)
			return nil
		}
	}
	return fmt.Errorf("coupon %s not in pool", c.Code)
}

func (m *mockStore) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	out := make([]domain.Coupon, 0, len(m.coupons))
	for i, code := range m.coupons {
		out = append(out, domain.Coupon{ID: code, Code: code, Available: true, Sequence: int64(i)})
	}
	return out, nil
}

func (m *mockStore) RecordClaim(ctx context.Context, claim domain.Claim) error {
	m.recordCalls++
	if m.recordErr != nil {
		return m.recordErr
	}
	m.claims[claim.Identifier] = append(m.claims[claim.Identifier], claim)
	return nil
}

func (m *mockStore) ClaimsFor(ctx context.Context, identifier string) ([]domain.Claim, error) {
	if m.claimsErr != nil {
		return nil, m.claimsErr
	}
	return m.claims[identifier], nil
}

func (m *mockStore) Retention() domain.Retention {
	return domain.RetainHistory
}

func (m *mockStore) Close() error {
	return nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, claim domain.Claim) error

	mu        sync.Mutex
	published []domain.Claim
}

func (m *mockPublisher) PublishClaim(ctx context.Context, claim domain.Claim) error {
	m.mu.Lock()
	m.published = append(m.published, claim)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, claim)
	}
	return nil
}
