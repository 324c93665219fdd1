package enums

import "fmt"

// ProofStatus describes where a design proof sits in the review lifecycle.
type ProofStatus string

const (
	ProofStatusPending          ProofStatus = "pending"
	ProofStatusSent             ProofStatus = "sent"
	ProofStatusApproved         ProofStatus = "approved"
	ProofStatusChangesRequested ProofStatus = "changes_requested"
)

var validProofStatuses = []ProofStatus{
	ProofStatusPending,
	ProofStatusSent,
	ProofStatusApproved,
	ProofStatusChangesRequested,
}

// String returns the literal string for the status.
func (p ProofStatus) String() string {
	return string(p)
}

// IsValid reports whether the status is known.
func (p ProofStatus) IsValid() bool {
	for _, candidate := range validProofStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsResolved reports whether the proof has left the review queue.
// Approved proofs are terminal; changes_requested proofs still need admin action.
func (p ProofStatus) IsResolved() bool {
	return p == ProofStatusApproved
}

// ParseProofStatus converts raw input into a ProofStatus.
func ParseProofStatus(value string) (ProofStatus, error) {
	for _, candidate := range validProofStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proof status %q", value)
}
