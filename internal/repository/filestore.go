package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/azizikri/coupon-giveaway/internal/domain"
)

type fileDocument struct {
	Available []string             `json:"available"`
	Claimed   map[string]fileClaim `json:"claimed"`
}

type fileClaim struct {
	Coupon    string `json:"coupon"`
	Timestamp int64  `json:"timestamp"`
}

// FileStore keeps the whole pool and ledger in a single JSON document. It
// remembers one claim per identifier, so it only supports domain.RetainLatest.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string, retention domain.Retention) (*FileStore, error) {
	if retention != domain.RetainLatest {
		return nil, fmt.Errorf("%w: file storage keeps only the latest claim, got %q", domain.ErrInvalidRetention, retention)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) load() (*fileDocument, error) {
	doc := &fileDocument{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc.Claimed = map[string]fileClaim{}
			return doc, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc.Claimed == nil {
		doc.Claimed = map[string]fileClaim{}
	}
	return doc, nil
}

func (s *FileStore) save(doc *fileDocument) error {
	if doc.Available == nil {
		doc.Available = []string{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode coupons document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// update runs fn on the current document and writes it back when fn succeeds.
func (s *FileStore) update(fn func(doc *fileDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) read() (*fileDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) CountCoupons(ctx context.Context) (int, error) {
	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	return len(doc.Available), nil
}

func (s *FileStore) AddCoupons(ctx context.Context, codes []string) error {
	return s.update(func(doc *fileDocument) error {
		doc.Available = append(doc.Available, codes...)
		return nil
	})
}

func (s *FileStore) Head(ctx context.Context) (domain.Coupon, error) {
	doc, err := s.read()
	if err != nil {
		return domain.Coupon{}, err
	}
	if len(doc.Available) == 0 {
		return domain.Coupon{}, domain.ErrPoolEmpty
	}
	return fileCoupon(doc.Available[0], 0), nil
}

func (s *FileStore) MoveToTail(ctx context.Context, c domain.Coupon) error {
	return s.update(func(doc *fileDocument) error {
		for i, code := range doc.Available {
			if code != c.Code {
				continue
			}
			doc.Available = append(doc.Available[:i], doc.Available[i+1:]...)
			doc.Available = append(doc.Available, code)
			return nil
		}
		return fmt.Errorf("rotate coupon %s: not in pool", c.Code)
	})
}

func (s *FileStore) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	coupons := make([]domain.Coupon, 0, len(doc.Available))
	for i, code := range doc.Available {
		coupons = append(coupons, fileCoupon(code, int64(i)))
	}
	return coupons, nil
}

func (s *FileStore) RecordClaim(ctx context.Context, claim domain.Claim) error {
	return s.update(func(doc *fileDocument) error {
		doc.Claimed[claim.Identifier] = fileClaim{
			Coupon:    claim.Coupon,
			Timestamp: claim.Timestamp,
		}
		return nil
	})
}

func (s *FileStore) ClaimsFor(ctx context.Context, identifier string) ([]domain.Claim, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	c, ok := doc.Claimed[identifier]
	if !ok {
		return nil, nil
	}
	return []domain.Claim{{
		Identifier: identifier,
		Coupon:     c.Coupon,
		Timestamp:  c.Timestamp,
	}}, nil
}

func (s *FileStore) Retention() domain.Retention {
	return domain.RetainLatest
}

func (s *FileStore) Close() error {
	return nil
}

func fileCoupon(code string, position int64) domain.Coupon {
	return domain.Coupon{
		ID:        code,
		Code:      code,
		Available: true,
		Sequence:  position,
	}
}

var _ Store = (*FileStore)(nil)
