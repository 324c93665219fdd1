package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printforge/proofroom-backend/pkg/enums"
	"github.com/printforge/proofroom-backend/pkg/types"
)

// Proof is a rendered representation of customer artwork awaiting review.
// The media store owns the bytes; this row holds only the reference plus the
// review lifecycle. Replacement overwrites the file reference in place while
// the audit fields (uploaded_at, replaced_at, original_file_name) survive.
type Proof struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID *uuid.UUID `gorm:"column:order_item_id;type:uuid;index"`

	FileURL      string `gorm:"column:file_url;not null"`
	FilePublicID string `gorm:"column:file_public_id;not null"`
	Title        string `gorm:"column:title;not null"`

	Status   enums.ProofStatus `gorm:"column:status;not null;default:'pending'"`
	CutLines types.StringList  `gorm:"column:cut_lines;type:text"`

	AdminNotes    *string `gorm:"column:admin_notes"`
	CustomerNotes *string `gorm:"column:customer_notes"`

	ExtractedWidthIn  decimal.NullDecimal `gorm:"column:extracted_width_in;type:numeric(8,3)"`
	ExtractedHeightIn decimal.NullDecimal `gorm:"column:extracted_height_in;type:numeric(8,3)"`

	Replaced         bool       `gorm:"column:replaced;not null;default:false"`
	ReplacedAt       *time.Time `gorm:"column:replaced_at"`
	OriginalFileName *string    `gorm:"column:original_file_name"`

	UploadedAt         time.Time  `gorm:"column:uploaded_at;not null"`
	SentAt             *time.Time `gorm:"column:sent_at"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	ChangesRequestedAt *time.Time `gorm:"column:changes_requested_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
