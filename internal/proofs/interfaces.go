package proofs

import (
	"context"

	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/pkg/db/models"
	"github.com/printforge/proofroom-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository is the persistence surface for orders and their proofs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderItemByID(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)

	CreateProof(ctx context.Context, proof *models.Proof) (*models.Proof, error)
	FindProofByID(ctx context.Context, id uuid.UUID) (*models.Proof, error)
	FindProofsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Proof, error)
	CountProofsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	UpdateProof(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateProofsStatus(ctx context.Context, ids []uuid.UUID, status enums.ProofStatus, updates map[string]any) error
	DeleteProof(ctx context.Context, id uuid.UUID) error
}
