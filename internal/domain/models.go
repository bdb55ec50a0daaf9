package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPoolEmpty        = errors.New("coupon pool is empty")
	ErrNoCoupon         = errors.New("no coupon available")
	ErrInvalidRetention = errors.New("invalid claim retention")
)

// Coupon is one entry of the rotating pool. Sequence orders the pool: the
// lowest sequence is the head, and rotation bumps it past the current tail.
type Coupon struct {
	ID        string
	Code      string
	Available bool
	Sequence  int64
}

// Claim records that Identifier was issued Coupon at Timestamp (unix millis).
type Claim struct {
	ID         string
	Identifier string
	Coupon     string
	Timestamp  int64
}

// Cooldown describes a still-active claim window for an identifier.
type Cooldown struct {
	Coupon               string
	TimeRemainingMinutes int
}

// Retention selects how a ledger keeps claims for one identifier.
type Retention string

const (
	// RetainHistory appends every claim; the newest one governs cooldown.
	RetainHistory Retention = "history"
	// RetainLatest overwrites, so only one claim per identifier is remembered.
	RetainLatest Retention = "latest"
)

func ParseRetention(s string) (Retention, error) {
	switch Retention(s) {
	case RetainHistory, RetainLatest:
		return Retention(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRetention, s)
	}
}
