package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/azizikri/coupon-giveaway/internal/config"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// dlqRetention keeps rejected restock requests for a week.
const dlqRetention = "604800000"

type topicSpec struct {
	name       string
	partitions int32
	configs    map[string]*string
}

func requiredTopics(cfg *config.Config) []topicSpec {
	partitions := int32(cfg.TopicPartitions())
	return []topicSpec{
		{name: TopicClaimEvents, partitions: partitions},
		{name: TopicRestockRequest, partitions: partitions},
		{
			name:       TopicRestockRequest + TopicDLQSuffix,
			partitions: 1,
			configs:    map[string]*string{"retention.ms": kadm.StringPtr(dlqRetention)},
		},
	}
}

// EnsureTopics creates any missing topic. Topics that already exist are left
// as they are, even when their partition count differs.
func EnsureTopics(ctx context.Context, client *kgo.Client, cfg *config.Config) error {
	adm := kadm.NewClient(client)

	existing, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("failed to list topics: %w", err)
	}

	for _, spec := range requiredTopics(cfg) {
		if existing.Has(spec.name) {
			continue
		}

		resp, err := adm.CreateTopics(ctx, spec.partitions, cfg.ReplicationFactor(), spec.configs, spec.name)
		if err != nil {
			return fmt.Errorf("failed to create topic %s: %w", spec.name, err)
		}
		for _, detail := range resp {
			if detail.Err != nil && !errors.Is(detail.Err, kerr.TopicAlreadyExists) {
				return fmt.Errorf("failed to create topic %s: %w", detail.Topic, detail.Err)
			}
		}
		log.Printf("Created topic %s with %d partitions", spec.name, spec.partitions)
	}

	return nil
}
