package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/azizikri/coupon-giveaway/internal/config"
	"github.com/azizikri/coupon-giveaway/internal/domain"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

type fakeRestocker struct {
	codes [][]string
	err   error
}

func (f *fakeRestocker) Restock(ctx context.Context, codes []string) error {
	f.codes = append(f.codes, codes)
	return f.err
}

func TestPublisher_PublishClaim(t *testing.T) {
	prod := &fakeProducer{}
	p := &Publisher{client: prod, topic: TopicClaimEvents}

	claim := domain.Claim{ID: "c-1", Identifier: "1.1.1.1-curl", Coupon: "SAVE10", Timestamp: 1700000000000}
	if err := p.PublishClaim(context.Background(), claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prod.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(prod.records))
	}

	record := prod.records[0]
	if record.Topic != TopicClaimEvents || string(record.Key) != claim.Identifier {
		t.Fatalf("unexpected record routing: topic=%s key=%s", record.Topic, record.Key)
	}

	var event ClaimEvent
	if err := json.Unmarshal(record.Value, &event); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if event.SchemaVersion != SchemaVersion || event.EventID == "" {
		t.Fatalf("missing envelope fields: %+v", event)
	}
	if event.ClaimID != "c-1" || event.Coupon != "SAVE10" || event.Timestamp != claim.Timestamp {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestPublisher_ProduceError(t *testing.T) {
	p := &Publisher{client: &fakeProducer{err: errors.New("broker down")}, topic: TopicClaimEvents}

	err := p.PublishClaim(context.Background(), domain.Claim{Identifier: "x", Coupon: "A"})
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("expected produce error, got %v", err)
	}
}

func TestConsumer_RestockApplied(t *testing.T) {
	prod := &fakeProducer{}
	restocker := &fakeRestocker{}
	c := newConsumer(nil, prod, restocker)

	c.processRecord(context.Background(), &kgo.Record{
		Topic: TopicRestockRequest,
		Value: []byte(`{"schema_version":1,"correlation_id":"r-1","codes":[" NEW1 ","NEW2"]}`),
	})

	if len(restocker.codes) != 1 {
		t.Fatalf("expected one restock call, got %d", len(restocker.codes))
	}
	got := restocker.codes[0]
	if len(got) != 2 || got[0] != "NEW1" || got[1] != "NEW2" {
		t.Fatalf("unexpected codes: %v", got)
	}
	if len(prod.records) != 0 {
		t.Fatalf("expected nothing on the DLQ, got %d records", len(prod.records))
	}
}

func TestConsumer_InvalidPayloadsGoToDLQ(t *testing.T) {
	cases := map[string]string{
		"malformed json": `{"codes":`,
		"missing codes":  `{"schema_version":1}`,
		"empty codes":    `{"schema_version":1,"codes":[]}`,
		"empty code":     `{"schema_version":1,"codes":["A",""]}`,
		"unknown schema": `{"schema_version":2,"codes":["A"]}`,
		"code too long":  `{"schema_version":1,"codes":["` + strings.Repeat("X", 65) + `"]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			prod := &fakeProducer{}
			restocker := &fakeRestocker{}
			c := newConsumer(nil, prod, restocker)

			c.processRecord(context.Background(), &kgo.Record{
				Topic: TopicRestockRequest,
				Key:   []byte("k"),
				Value: []byte(payload),
			})

			if len(restocker.codes) != 0 {
				t.Fatal("expected restock to be skipped")
			}
			if len(prod.records) != 1 {
				t.Fatalf("expected 1 DLQ record, got %d", len(prod.records))
			}
			dlq := prod.records[0]
			if dlq.Topic != TopicRestockRequest+TopicDLQSuffix {
				t.Fatalf("unexpected DLQ topic %s", dlq.Topic)
			}
			if string(dlq.Value) != payload || string(dlq.Key) != "k" {
				t.Fatal("expected original record to be forwarded unchanged")
			}
			if len(dlq.Headers) != 1 || dlq.Headers[0].Key != ErrorHeaderKey {
				t.Fatalf("expected %s header, got %+v", ErrorHeaderKey, dlq.Headers)
			}
			if !strings.Contains(string(dlq.Headers[0].Value), ErrInvalidRestock.Error()) {
				t.Fatalf("unexpected error header %q", dlq.Headers[0].Value)
			}
		})
	}
}

func TestConsumer_RestockFailureGoesToDLQ(t *testing.T) {
	prod := &fakeProducer{}
	c := newConsumer(nil, prod, &fakeRestocker{err: errors.New("pool unreachable")})

	c.processRecord(context.Background(), &kgo.Record{
		Topic: TopicRestockRequest,
		Value: []byte(`{"schema_version":1,"codes":["A"]}`),
	})

	if len(prod.records) != 1 {
		t.Fatalf("expected 1 DLQ record, got %d", len(prod.records))
	}
	if got := string(prod.records[0].Headers[0].Value); got != "pool unreachable" {
		t.Fatalf("unexpected error header %q", got)
	}
}

func TestConsumer_IgnoresOtherTopics(t *testing.T) {
	prod := &fakeProducer{}
	restocker := &fakeRestocker{}
	c := newConsumer(nil, prod, restocker)

	c.processRecord(context.Background(), &kgo.Record{Topic: TopicClaimEvents, Value: []byte(`{}`)})

	if len(restocker.codes) != 0 || len(prod.records) != 0 {
		t.Fatal("expected record from another topic to be ignored")
	}
}

func TestPublisher_PublishRestockRoundTrip(t *testing.T) {
	prod := &fakeProducer{}
	p := &Publisher{client: prod, topic: TopicClaimEvents}

	id, err := p.PublishRestock(context.Background(), []string{"NEW1", "NEW2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prod.records) != 1 || prod.records[0].Topic != TopicRestockRequest {
		t.Fatalf("expected one record on %s, got %+v", TopicRestockRequest, prod.records)
	}
	if string(prod.records[0].Key) != id {
		t.Fatalf("expected record keyed by correlation id %s", id)
	}

	restocker := &fakeRestocker{}
	c := newConsumer(nil, &fakeProducer{}, restocker)
	c.processRecord(context.Background(), prod.records[0])

	if len(restocker.codes) != 1 || len(restocker.codes[0]) != 2 {
		t.Fatalf("expected consumer to accept published request, got %v", restocker.codes)
	}
}

func TestRequiredTopics(t *testing.T) {
	cfg := &config.Config{KafkaTopicPartitions: "6"}

	topics := requiredTopics(cfg)
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(topics))
	}

	byName := map[string]topicSpec{}
	for _, spec := range topics {
		byName[spec.name] = spec
	}
	if byName[TopicClaimEvents].partitions != 6 || byName[TopicRestockRequest].partitions != 6 {
		t.Fatalf("expected configured partitions on main topics, got %+v", topics)
	}

	dlq, ok := byName[TopicRestockRequest+TopicDLQSuffix]
	if !ok {
		t.Fatal("expected restock DLQ topic")
	}
	if dlq.partitions != 1 || dlq.configs["retention.ms"] == nil {
		t.Fatalf("unexpected DLQ spec: %+v", dlq)
	}
}
