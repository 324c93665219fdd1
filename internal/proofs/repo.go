package proofs

import (
	"context"

	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/pkg/db/models"
	"github.com/printforge/proofroom-backend/pkg/enums"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a proofs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderItemByID(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateProof(ctx context.Context, proof *models.Proof) (*models.Proof, error) {
	if err := r.db.WithContext(ctx).Create(proof).Error; err != nil {
		return nil, err
	}
	return proof, nil
}

func (r *repository) FindProofByID(ctx context.Context, id uuid.UUID) (*models.Proof, error) {
	var proof models.Proof
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&proof).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) FindProofsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Proof, error) {
	var list []models.Proof
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("uploaded_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) CountProofsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Proof{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateProof(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Proof{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateProofsStatus(ctx context.Context, ids []uuid.UUID, status enums.ProofStatus, updates map[string]any) error {
	if len(ids) == 0 {
		return nil
	}
	merged := map[string]any{"status": status}
	for key, value := range updates {
		merged[key] = value
	}
	return r.db.WithContext(ctx).
		Model(&models.Proof{}).
		Where("id IN ?", ids).
		Updates(merged).Error
}

func (r *repository) DeleteProof(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Proof{}).Error
}
