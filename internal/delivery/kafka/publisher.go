package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/azizikri/coupon-giveaway/internal/usecase"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the part of *kgo.Client used for writes.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	client producer
	topic  string
}

func NewPublisher(client *kgo.Client) *Publisher {
	return &Publisher{
		client: client,
		topic:  TopicClaimEvents,
	}
}

// PublishClaim writes the claim keyed by identifier, so one visitor's events
// stay ordered within a partition.
func (p *Publisher) PublishClaim(ctx context.Context, claim domain.Claim) error {
	event := ClaimEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		ClaimID:       claim.ID,
		Identifier:    claim.Identifier,
		Coupon:        claim.Coupon,
		Timestamp:     claim.Timestamp,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode claim event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(claim.Identifier),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce claim event: %w", err)
	}
	return nil
}

var _ usecase.ClaimPublisher = (*Publisher)(nil)

// PublishRestock queues codes for the restock consumer and returns the
// correlation id of the request.
func (p *Publisher) PublishRestock(ctx context.Context, codes []string) (string, error) {
	req := RestockRequest{
		SchemaVersion: SchemaVersion,
		CorrelationID: uuid.New().String(),
		Codes:         codes,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode restock request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: TopicRestockRequest,
		Key:   []byte(req.CorrelationID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return "", fmt.Errorf("produce restock request: %w", err)
	}
	return req.CorrelationID, nil
}
