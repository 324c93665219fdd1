package proofs

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/internal/printfile"
	"github.com/printforge/proofroom-backend/pkg/db/models"
	"github.com/printforge/proofroom-backend/pkg/enums"
	"github.com/printforge/proofroom-backend/pkg/storage/cloudinary"
	"github.com/shopspring/decimal"
)

// ProofView is the read model returned to clients. File URLs carry the
// delivery optimization; legacy dimension notes are decoded into the
// dimension fields while the note text itself stays visible.
type ProofView struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	OrderItemID *uuid.UUID `json:"order_item_id,omitempty"`

	FileURL string `json:"file_url"`
	Title   string `json:"title"`

	Status   enums.ProofStatus `json:"status"`
	CutLines []string          `json:"cut_lines,omitempty"`

	AdminNotes    *string `json:"admin_notes,omitempty"`
	CustomerNotes *string `json:"customer_notes,omitempty"`

	WidthIn         *decimal.Decimal `json:"width_in,omitempty"`
	HeightIn        *decimal.Decimal `json:"height_in,omitempty"`
	DimensionsMatch *bool            `json:"dimensions_match,omitempty"`

	Replaced         bool       `json:"replaced"`
	ReplacedAt       *time.Time `json:"replaced_at,omitempty"`
	OriginalFileName *string    `json:"original_file_name,omitempty"`

	UploadedAt         time.Time  `json:"uploaded_at"`
	SentAt             *time.Time `json:"sent_at,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	ChangesRequestedAt *time.Time `json:"changes_requested_at,omitempty"`
}

// OrderProofsView aggregates an order's proofs with the derived status.
type OrderProofsView struct {
	OrderID     uuid.UUID              `json:"order_id"`
	Status      enums.OrderProofStatus `json:"status"`
	AllApproved bool                   `json:"all_approved"`
	Proofs      []ProofView            `json:"proofs"`
}

// legacyDimsRe matches notes that hold nothing but "WIDTHxHEIGHT", the format
// older tooling used before dimensions became first-class columns.
var legacyDimsRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*[xX]\s*(\d+(?:\.\d+)?)\s*$`)

func decodeLegacyDims(notes *string) (decimal.NullDecimal, decimal.NullDecimal, bool) {
	if notes == nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, false
	}
	match := legacyDimsRe.FindStringSubmatch(*notes)
	if match == nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, false
	}
	width, err := decimal.NewFromString(match[1])
	if err != nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, false
	}
	height, err := decimal.NewFromString(match[2])
	if err != nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, false
	}
	return decimal.NullDecimal{Decimal: width, Valid: true},
		decimal.NullDecimal{Decimal: height, Valid: true},
		true
}

// buildProofView converts the row into the read model. itemsByID supplies the
// ordered dimensions for the cross-check; a nil map skips it.
func buildProofView(proof models.Proof, itemsByID map[uuid.UUID]models.OrderItem) ProofView {
	view := ProofView{
		ID:                 proof.ID,
		OrderID:            proof.OrderID,
		OrderItemID:        proof.OrderItemID,
		FileURL:            cloudinary.OptimizedURL(proof.FileURL),
		Title:              proof.Title,
		Status:             proof.Status,
		CutLines:           proof.CutLines,
		AdminNotes:         proof.AdminNotes,
		CustomerNotes:      proof.CustomerNotes,
		Replaced:           proof.Replaced,
		ReplacedAt:         proof.ReplacedAt,
		OriginalFileName:   proof.OriginalFileName,
		UploadedAt:         proof.UploadedAt,
		SentAt:             proof.SentAt,
		ApprovedAt:         proof.ApprovedAt,
		ChangesRequestedAt: proof.ChangesRequestedAt,
	}

	width := proof.ExtractedWidthIn
	height := proof.ExtractedHeightIn
	if !width.Valid || !height.Valid {
		if legacyW, legacyH, ok := decodeLegacyDims(proof.AdminNotes); ok {
			width, height = legacyW, legacyH
		}
	}
	if width.Valid {
		view.WidthIn = &width.Decimal
	}
	if height.Valid {
		view.HeightIn = &height.Decimal
	}

	if proof.OrderItemID != nil && width.Valid && height.Valid {
		if item, ok := itemsByID[*proof.OrderItemID]; ok && item.WidthIn.Valid && item.HeightIn.Valid {
			matched := printfile.DimensionsMatch(item.WidthIn, item.HeightIn, width, height)
			view.DimensionsMatch = &matched
		}
	}

	return view
}
