package enums

// OutboxEventType enumerates the domain events emitted by the proof workflow.
type OutboxEventType string

const (
	EventProofAdded         OutboxEventType = "proof.added"
	EventProofReplaced      OutboxEventType = "proof.replaced"
	EventProofRemoved       OutboxEventType = "proof.removed"
	EventProofStatusChanged OutboxEventType = "proof.status_changed"
	EventProofsSent         OutboxEventType = "proofs.sent"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateProof OutboxAggregateType = "proof"
)

// OutboxStatus tracks delivery of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)
