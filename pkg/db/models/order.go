package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the aggregate root proofs attach to. The order-level proof status
// is derived from the attached proofs on read and never stored here.
type Order struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	Reference  string    `gorm:"column:reference;not null"`
	Items      []OrderItem `gorm:"foreignKey:OrderID"`
	Proofs     []Proof     `gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
