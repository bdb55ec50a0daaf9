package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/azizikri/coupon-giveaway/internal/usecase"
	"github.com/go-playground/validator/v10"
	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrInvalidRestock = errors.New("invalid restock request")

// Consumer applies restock requests read from TopicRestockRequest.
type Consumer struct {
	client    *kgo.Client
	producer  producer
	restocker usecase.Restocker
	validate  *validator.Validate
	ready     chan struct{}
}

func NewConsumer(client *kgo.Client, restocker usecase.Restocker) *Consumer {
	return newConsumer(client, client, restocker)
}

func newConsumer(client *kgo.Client, p producer, restocker usecase.Restocker) *Consumer {
	return &Consumer{
		client:    client,
		producer:  p,
		restocker: restocker,
		validate:  validator.New(),
		ready:     make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	close(c.ready)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			log.Printf("Consumer poll errors: %v", errs)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			c.processRecord(ctx, iter.Next())
		}

		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			log.Printf("Failed to commit records: %v", err)
		}
	}
}

func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	if record.Topic != TopicRestockRequest {
		return
	}

	req, err := c.decodeRestock(record.Value)
	if err != nil {
		log.Printf("Rejecting restock record at offset %d: %v", record.Offset, err)
		c.sendToDLQ(ctx, record, err.Error())
		return
	}

	if err := c.restocker.Restock(ctx, normalizeCodes(req.Codes)); err != nil {
		log.Printf("Restock %s failed: %v", req.CorrelationID, err)
		c.sendToDLQ(ctx, record, err.Error())
		return
	}
	log.Printf("Restock %s applied: %d codes", req.CorrelationID, len(req.Codes))
}

func (c *Consumer) decodeRestock(value []byte) (*RestockRequest, error) {
	var req RestockRequest
	if err := json.Unmarshal(value, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRestock, err)
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRestock, err)
	}
	return &req, nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, record *kgo.Record, message string) {
	dlqRecord := &kgo.Record{
		Topic: record.Topic + TopicDLQSuffix,
		Key:   record.Key,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: ErrorHeaderKey, Value: []byte(message)},
		},
	}
	if err := c.producer.ProduceSync(ctx, dlqRecord).FirstErr(); err != nil {
		log.Printf("Failed to send record to %s: %v", dlqRecord.Topic, err)
	}
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}
