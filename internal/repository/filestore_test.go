package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/azizikri/coupon-giveaway/internal/domain"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "coupons.json"), domain.RetainLatest)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return s
}

func TestNewFileStore_RejectsHistory(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "coupons.json"), domain.RetainHistory)
	if !errors.Is(err, domain.ErrInvalidRetention) {
		t.Fatalf("expected ErrInvalidRetention, got %v", err)
	}
}

func TestFileStore_MissingFileIsEmptyPool(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	n, err := s.CountCoupons(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 coupons, got %d", n)
	}
	if _, err := s.Head(ctx); !errors.Is(err, domain.ErrPoolEmpty) {
		t.Fatalf("expected ErrPoolEmpty, got %v", err)
	}
}

func TestFileStore_Rotation(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	if err := s.AddCoupons(ctx, []string{"A", "B", "C"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var got []string
	for i := 0; i < 4; i++ {
		head, err := s.Head(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got = append(got, head.Code)
		if err := s.MoveToTail(ctx, head); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	want := []string{"A", "B", "C", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected rotation %v, got %v", want, got)
		}
	}
}

func TestFileStore_MoveToTailUnknownCoupon(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	_ = s.AddCoupons(ctx, []string{"A"})

	if err := s.MoveToTail(ctx, domain.Coupon{Code: "Z"}); err == nil {
		t.Fatal("expected error for coupon not in pool")
	}
}

func TestFileStore_ClaimsOverwrite(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	_ = s.RecordClaim(ctx, domain.Claim{Identifier: "u1", Coupon: "A", Timestamp: 100})
	_ = s.RecordClaim(ctx, domain.Claim{Identifier: "u1", Coupon: "B", Timestamp: 200})

	claims, err := s.ClaimsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim, got %d", len(claims))
	}
	if claims[0].Coupon != "B" || claims[0].Timestamp != 200 {
		t.Fatalf("expected latest claim B@200, got %+v", claims[0])
	}

	none, err := s.ClaimsFor(ctx, "u2")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no claims, got %v (%v)", none, err)
	}
}

func TestFileStore_DocumentLayout(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	_ = s.AddCoupons(ctx, []string{"SAVE10"})
	_ = s.RecordClaim(ctx, domain.Claim{Identifier: "1.2.3.4-Mozilla", Coupon: "SAVE10", Timestamp: 42})

	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var doc struct {
		Available []string `json:"available"`
		Claimed   map[string]struct {
			Coupon    string `json:"coupon"`
			Timestamp int64  `json:"timestamp"`
		} `json:"claimed"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if len(doc.Available) != 1 || doc.Available[0] != "SAVE10" {
		t.Fatalf("unexpected available list: %v", doc.Available)
	}
	if doc.Claimed["1.2.3.4-Mozilla"].Timestamp != 42 {
		t.Fatalf("unexpected claimed map: %+v", doc.Claimed)
	}
}
