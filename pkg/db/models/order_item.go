package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one line of a customer order. The calculator selections
// (ordered size, material, cut style) are only used to cross-check analyzed
// print-file dimensions; they never gate a lifecycle transition.
type OrderItem struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductName string              `gorm:"column:product_name;not null"`
	Material    *string             `gorm:"column:material"`
	CutStyle    *string             `gorm:"column:cut_style"`
	Quantity    int                 `gorm:"column:quantity;not null;default:1"`
	WidthIn     decimal.NullDecimal `gorm:"column:width_in;type:numeric(8,3)"`
	HeightIn    decimal.NullDecimal `gorm:"column:height_in;type:numeric(8,3)"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
