package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// rotateScript removes the first occurrence of a code and pushes it back on
// the right only when it was still in the list.
var rotateScript = redis.NewScript(`
local removed = redis.call("LREM", KEYS[1], 1, ARGV[1])
if removed == 1 then
    redis.call("RPUSH", KEYS[1], ARGV[1])
end
return removed
`)

type redisClaim struct {
	ID        string `json:"id"`
	Coupon    string `json:"coupon"`
	Timestamp int64  `json:"timestamp"`
}

// RedisStore keeps the pool as a list and the ledger either as one list per
// identifier (history) or as a single hash (latest).
type RedisStore struct {
	rdb       *redis.Client
	prefix    string
	retention domain.Retention
}

type RedisOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithRedisRetention(r domain.Retention) RedisOption {
	return func(s *RedisStore) { s.retention = r }
}

func NewRedis(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:       rdb,
		prefix:    "coupon",
		retention: domain.RetainHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) poolKey() string {
	return s.prefix + ":pool"
}

func (s *RedisStore) latestKey() string {
	return s.prefix + ":claims"
}

func (s *RedisStore) historyKey(identifier string) string {
	return s.prefix + ":claims:" + identifier
}

func (s *RedisStore) CountCoupons(ctx context.Context) (int, error) {
	n, err := s.rdb.LLen(ctx, s.poolKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count coupons: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) AddCoupons(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	values := make([]interface{}, len(codes))
	for i, code := range codes {
		values[i] = code
	}
	if err := s.rdb.RPush(ctx, s.poolKey(), values...).Err(); err != nil {
		return fmt.Errorf("push coupons: %w", err)
	}
	return nil
}

func (s *RedisStore) Head(ctx context.Context) (domain.Coupon, error) {
	code, err := s.rdb.LIndex(ctx, s.poolKey(), 0).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Coupon{}, domain.ErrPoolEmpty
		}
		return domain.Coupon{}, fmt.Errorf("read head coupon: %w", err)
	}
	return redisCoupon(code, 0), nil
}

func (s *RedisStore) MoveToTail(ctx context.Context, c domain.Coupon) error {
	removed, err := rotateScript.Run(ctx, s.rdb, []string{s.poolKey()}, c.Code).Int64()
	if err != nil {
		return fmt.Errorf("rotate coupon %s: %w", c.Code, err)
	}
	if removed == 0 {
		return fmt.Errorf("rotate coupon %s: not in pool", c.Code)
	}
	return nil
}

func (s *RedisStore) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	codes, err := s.rdb.LRange(ctx, s.poolKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	coupons := make([]domain.Coupon, 0, len(codes))
	for i, code := range codes {
		coupons = append(coupons, redisCoupon(code, int64(i)))
	}
	return coupons, nil
}

func (s *RedisStore) RecordClaim(ctx context.Context, claim domain.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	payload, err := json.Marshal(redisClaim{
		ID:        claim.ID,
		Coupon:    claim.Coupon,
		Timestamp: claim.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}

	if s.retention == domain.RetainLatest {
		err = s.rdb.HSet(ctx, s.latestKey(), claim.Identifier, payload).Err()
	} else {
		err = s.rdb.RPush(ctx, s.historyKey(claim.Identifier), payload).Err()
	}
	if err != nil {
		return fmt.Errorf("store claim: %w", err)
	}
	return nil
}

func (s *RedisStore) ClaimsFor(ctx context.Context, identifier string) ([]domain.Claim, error) {
	var raw []string
	if s.retention == domain.RetainLatest {
		v, err := s.rdb.HGet(ctx, s.latestKey(), identifier).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, fmt.Errorf("read claim: %w", err)
		}
		raw = []string{v}
	} else {
		v, err := s.rdb.LRange(ctx, s.historyKey(identifier), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("read claims: %w", err)
		}
		raw = v
	}

	claims := make([]domain.Claim, 0, len(raw))
	for _, item := range raw {
		var rc redisClaim
		if err := json.Unmarshal([]byte(item), &rc); err != nil {
			return nil, fmt.Errorf("decode claim: %w", err)
		}
		claims = append(claims, domain.Claim{
			ID:         rc.ID,
			Identifier: identifier,
			Coupon:     rc.Coupon,
			Timestamp:  rc.Timestamp,
		})
	}
	return claims, nil
}

func (s *RedisStore) Retention() domain.Retention {
	return s.retention
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func redisCoupon(code string, position int64) domain.Coupon {
	return domain.Coupon{
		ID:        code,
		Code:      code,
		Available: true,
		Sequence:  position,
	}
}

var _ Store = (*RedisStore)(nil)
