package kafka

// ClaimEvent is published on TopicClaimEvents for every granted claim.
type ClaimEvent struct {
	SchemaVersion int    `json:"schema_version"`
	EventID       string `json:"event_id"`
	ClaimID       string `json:"claim_id"`
	Identifier    string `json:"identifier"`
	Coupon        string `json:"coupon"`
	Timestamp     int64  `json:"timestamp"`
}

// RestockRequest asks the service to append Codes to the coupon pool.
type RestockRequest struct {
	SchemaVersion int      `json:"schema_version" validate:"eq=1"`
	CorrelationID string   `json:"correlation_id"`
	Codes         []string `json:"codes" validate:"required,min=1,max=500,dive,required,max=64"`
}
