package kafka

import "time"

const (
	TopicClaimEvents    = "coupon.claimed"
	TopicRestockRequest = "coupon.restock.req"
	TopicDLQSuffix      = ".dlq"

	SchemaVersion = 1

	PublishTimeout = 3 * time.Second

	ErrorHeaderKey = "x-error"
)
