package enums

// OrderProofStatus is the derived order-level view of an order's proofs.
// It is computed on read, never stored.
type OrderProofStatus string

const (
	OrderProofStatusAwaitingUpload   OrderProofStatus = "awaiting_upload"
	OrderProofStatusAwaitingSend     OrderProofStatus = "awaiting_send"
	OrderProofStatusAwaitingReview   OrderProofStatus = "awaiting_review"
	OrderProofStatusChangesRequested OrderProofStatus = "changes_requested"
	OrderProofStatusApproved         OrderProofStatus = "approved"
)

// String returns the literal string for the status.
func (o OrderProofStatus) String() string {
	return string(o)
}
