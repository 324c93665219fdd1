package proofs

import (
	"github.com/printforge/proofroom-backend/pkg/db/models"
	"github.com/printforge/proofroom-backend/pkg/enums"
)

// allowedTransitions is the proof review state machine. Approved is terminal;
// changes_requested loops back to sent once the admin reacts.
var allowedTransitions = map[enums.ProofStatus][]enums.ProofStatus{
	enums.ProofStatusPending:          {enums.ProofStatusSent},
	enums.ProofStatusSent:             {enums.ProofStatusApproved, enums.ProofStatusChangesRequested},
	enums.ProofStatusChangesRequested: {enums.ProofStatusSent},
	enums.ProofStatusApproved:         {},
}

// CanTransition reports whether a proof may move from one status to another.
func CanTransition(from, to enums.ProofStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// AllApproved reports whether every proof on the order is approved. An order
// with no proofs has nothing to approve and is never ready.
func AllApproved(list []models.Proof) bool {
	if len(list) == 0 {
		return false
	}
	for _, proof := range list {
		if proof.Status != enums.ProofStatusApproved {
			return false
		}
	}
	return true
}

// DeriveOrderStatus computes the order-level proof status from the attached
// proofs. Outstanding admin work (changes_requested, then unsent pending
// proofs) outranks proofs sitting with the customer.
func DeriveOrderStatus(list []models.Proof) enums.OrderProofStatus {
	if len(list) == 0 {
		return enums.OrderProofStatusAwaitingUpload
	}
	if AllApproved(list) {
		return enums.OrderProofStatusApproved
	}

	var hasChangesRequested, hasPending, hasSent bool
	for _, proof := range list {
		switch proof.Status {
		case enums.ProofStatusChangesRequested:
			hasChangesRequested = true
		case enums.ProofStatusPending:
			hasPending = true
		case enums.ProofStatusSent:
			hasSent = true
		}
	}
	switch {
	case hasChangesRequested:
		return enums.OrderProofStatusChangesRequested
	case hasPending:
		return enums.OrderProofStatusAwaitingSend
	case hasSent:
		return enums.OrderProofStatusAwaitingReview
	default:
		return enums.OrderProofStatusAwaitingUpload
	}
}
