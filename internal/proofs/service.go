package proofs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/internal/printfile"
	"github.com/printforge/proofroom-backend/internal/uploads"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/db"
	"github.com/printforge/proofroom-backend/pkg/db/models"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/logger"
	"github.com/printforge/proofroom-backend/pkg/outbox"
	"github.com/printforge/proofroom-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the proof review workflow.
type Service interface {
	PersistUpload(ctx context.Context, input uploads.PersistInput) (uuid.UUID, error)
	GetProofsForOrder(ctx context.Context, orderID uuid.UUID) (*OrderProofsView, error)
	SendProofs(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (int, error)
	UpdateProofStatus(ctx context.Context, input StatusInput) (*models.Proof, error)
	AddProofNotes(ctx context.Context, input NotesInput) (*models.Proof, error)
	RemoveProof(ctx context.Context, orderID, proofID uuid.UUID, actor outbox.ActorRef) error
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
	maxProofs int
}

// StatusInput carries a customer review decision. Sending is an order-wide
// batch operation and never comes through here; revisions with a replacement
// file go through PersistUpload instead.
type StatusInput struct {
	OrderID uuid.UUID
	ProofID uuid.UUID
	Actor   outbox.ActorRef
	Target  enums.ProofStatus
	Note    *string
}

// NotesInput attaches a note to a proof outside of a status change.
type NotesInput struct {
	OrderID uuid.UUID
	ProofID uuid.UUID
	Actor   outbox.ActorRef
	Note    string
}

// ProofAddedEvent is emitted when a new proof lands on an order.
type ProofAddedEvent struct {
	ProofID         uuid.UUID        `json:"proof_id"`
	OrderID         uuid.UUID        `json:"order_id"`
	OrderItemID     *uuid.UUID       `json:"order_item_id,omitempty"`
	FileURL         string           `json:"file_url"`
	FilePublicID    string           `json:"file_public_id"`
	Title           string           `json:"title"`
	HasCutContour   bool             `json:"has_cut_contour"`
	CutLines        []string         `json:"cut_lines,omitempty"`
	WidthIn         *decimal.Decimal `json:"width_in,omitempty"`
	HeightIn        *decimal.Decimal `json:"height_in,omitempty"`
	DimensionsMatch *bool            `json:"dimensions_match,omitempty"`
	AnalysisError   string           `json:"analysis_error,omitempty"`
}

// ProofReplacedEvent is emitted when a proof's file is swapped in place. The
// previous public id rides along so the cleanup worker can destroy the object.
type ProofReplacedEvent struct {
	ProofID          uuid.UUID `json:"proof_id"`
	OrderID          uuid.UUID `json:"order_id"`
	FileURL          string    `json:"file_url"`
	FilePublicID     string    `json:"file_public_id"`
	ReplacedPublicID string    `json:"replaced_public_id"`
	AnalysisError    string    `json:"analysis_error,omitempty"`
}

// ProofRemovedEvent is emitted when a proof row is deleted.
type ProofRemovedEvent struct {
	ProofID      uuid.UUID `json:"proof_id"`
	OrderID      uuid.UUID `json:"order_id"`
	FilePublicID string    `json:"file_public_id"`
}

// ProofStatusChangedEvent is emitted on every lifecycle transition.
type ProofStatusChangedEvent struct {
	ProofID uuid.UUID         `json:"proof_id"`
	OrderID uuid.UUID         `json:"order_id"`
	From    enums.ProofStatus `json:"from"`
	To      enums.ProofStatus `json:"to"`
	Note    *string           `json:"note,omitempty"`
}

// ProofsSentEvent is emitted when pending proofs go out for review.
type ProofsSentEvent struct {
	OrderID  uuid.UUID   `json:"order_id"`
	ProofIDs []uuid.UUID `json:"proof_ids"`
	Count    int         `json:"count"`
}

// NewService builds the proof workflow service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger, cfg config.UploadsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("proofs repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxProofs := cfg.MaxProofsPerOrder
	if maxProofs <= 0 {
		maxProofs = 25
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    publisher,
		logg:      logg,
		maxProofs: maxProofs,
	}, nil
}

// PersistUpload writes a finished upload as a proof row. A TargetProofID
// swaps the file on an existing proof; otherwise a new proof is created.
func (s *service) PersistUpload(ctx context.Context, input uploads.PersistInput) (uuid.UUID, error) {
	if input.OrderID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Upload == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "upload result required")
	}

	var proofID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if input.TargetProofID != nil {
			id, err := s.replaceProofFile(ctx, tx, repo, order, input)
			if err != nil {
				return err
			}
			proofID = id
			return nil
		}

		id, err := s.addProof(ctx, tx, repo, order, input)
		if err != nil {
			return err
		}
		proofID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return proofID, nil
}

func (s *service) addProof(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input uploads.PersistInput) (uuid.UUID, error) {
	count, err := repo.CountProofsByOrder(ctx, order.ID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count proofs")
	}
	if count >= int64(s.maxProofs) {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("order already has %d proofs", count))
	}

	if input.OrderItemID != nil && !orderHasItem(order, *input.OrderItemID) {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order item does not belong to order")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = input.FileName
	}

	proof := &models.Proof{
		ID:           uuid.New(),
		OrderID:      order.ID,
		OrderItemID:  input.OrderItemID,
		FileURL:      input.Upload.SecureURL,
		FilePublicID: input.Upload.PublicID,
		Title:        title,
		Status:       enums.ProofStatusPending,
		UploadedAt:   time.Now(),
	}
	applyReport(proof, input.Report)

	if _, err := repo.CreateProof(ctx, proof); err != nil {
		if db.IsUniqueViolation(err, "") {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeConflict, "an unsent proof already exists for this item")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create proof")
	}

	event := ProofAddedEvent{
		ProofID:       proof.ID,
		OrderID:       order.ID,
		OrderItemID:   proof.OrderItemID,
		FileURL:       proof.FileURL,
		FilePublicID:  proof.FilePublicID,
		Title:         proof.Title,
		HasCutContour: len(proof.CutLines) > 0,
		CutLines:      proof.CutLines,
		AnalysisError: analysisErrMessage(input.AnalysisErr),
	}
	if proof.ExtractedWidthIn.Valid {
		event.WidthIn = &proof.ExtractedWidthIn.Decimal
	}
	if proof.ExtractedHeightIn.Valid {
		event.HeightIn = &proof.ExtractedHeightIn.Decimal
	}
	if matched, ok := s.crossCheckDimensions(ctx, order, proof); ok {
		event.DimensionsMatch = &matched
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventProofAdded,
		AggregateType: enums.AggregateProof,
		AggregateID:   proof.ID,
		Version:       1,
		Actor:         &input.Actor,
		Data:          event,
	}); err != nil {
		return uuid.Nil, err
	}
	return proof.ID, nil
}

// replaceProofFile swaps the file on an existing proof. A customer actor
// makes it a revision: the change request is written in the same update as
// the replacement, so a failed upload can never strand the review state.
func (s *service) replaceProofFile(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input uploads.PersistInput) (uuid.UUID, error) {
	proof, err := repo.FindProofByID(ctx, *input.TargetProofID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof")
	}
	if proof.OrderID != order.ID {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found on order")
	}
	if proof.Status == enums.ProofStatusApproved {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "approved proofs cannot be replaced")
	}

	fromStatus := proof.Status
	revision := input.Actor.Role == enums.ActorRoleCustomer
	if revision && fromStatus == enums.ProofStatusPending {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeStateConflict, "proof has not been sent for review")
	}

	replaced := *proof
	now := time.Now()
	updates := map[string]any{
		"file_url":            input.Upload.SecureURL,
		"file_public_id":      input.Upload.PublicID,
		"status":              enums.ProofStatusPending,
		"replaced":            true,
		"replaced_at":         now,
		"cut_lines":           types.StringList(nil),
		"extracted_width_in":  decimal.NullDecimal{},
		"extracted_height_in": decimal.NullDecimal{},
	}
	if proof.OriginalFileName == nil {
		updates["original_file_name"] = proof.Title
	}
	if report := input.Report; report != nil {
		updates["cut_lines"] = types.StringList(report.CutLines)
		updates["extracted_width_in"] = report.WidthIn
		updates["extracted_height_in"] = report.HeightIn
	}
	if revision {
		updates["changes_requested_at"] = now
		if note := strings.TrimSpace(input.Note); note != "" {
			column, merged := mergeNote(proof, input.Actor.Role, note)
			updates[column] = merged
		}
	}
	if err := repo.UpdateProof(ctx, proof.ID, updates); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace proof file")
	}

	if revision && fromStatus != enums.ProofStatusChangesRequested {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProofStatusChanged,
			AggregateType: enums.AggregateProof,
			AggregateID:   proof.ID,
			Version:       1,
			Actor:         &input.Actor,
			Data: ProofStatusChangedEvent{
				ProofID: proof.ID,
				OrderID: order.ID,
				From:    fromStatus,
				To:      enums.ProofStatusChangesRequested,
				Note:    trimNote(&input.Note),
			},
		}); err != nil {
			return uuid.Nil, err
		}
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventProofReplaced,
		AggregateType: enums.AggregateProof,
		AggregateID:   proof.ID,
		Version:       1,
		Actor:         &input.Actor,
		Data: ProofReplacedEvent{
			ProofID:          proof.ID,
			OrderID:          order.ID,
			FileURL:          input.Upload.SecureURL,
			FilePublicID:     input.Upload.PublicID,
			ReplacedPublicID: replaced.FilePublicID,
			AnalysisError:    analysisErrMessage(input.AnalysisErr),
		},
	}); err != nil {
		return uuid.Nil, err
	}
	return proof.ID, nil
}

// GetProofsForOrder returns the read model with the derived order status.
func (s *service) GetProofsForOrder(ctx context.Context, orderID uuid.UUID) (*OrderProofsView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	list, err := s.repo.FindProofsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proofs")
	}

	itemsByID := make(map[uuid.UUID]models.OrderItem, len(order.Items))
	for _, item := range order.Items {
		itemsByID[item.ID] = item
	}

	views := make([]ProofView, 0, len(list))
	for _, proof := range list {
		views = append(views, buildProofView(proof, itemsByID))
	}
	return &OrderProofsView{
		OrderID:     orderID,
		Status:      DeriveOrderStatus(list),
		AllApproved: AllApproved(list),
		Proofs:      views,
	}, nil
}

// SendProofs moves every pending proof on the order to sent. Orders with no
// proofs, or with nothing awaiting send, refuse the operation.
func (s *service) SendProofs(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (int, error) {
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var sentIDs []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindOrderByID(ctx, orderID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		list, err := repo.FindProofsByOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proofs")
		}
		if len(list) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no proofs to send")
		}

		for _, proof := range list {
			if proof.Status == enums.ProofStatusPending {
				sentIDs = append(sentIDs, proof.ID)
			}
		}
		if len(sentIDs) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no proofs awaiting send")
		}

		now := time.Now()
		if err := repo.UpdateProofsStatus(ctx, sentIDs, enums.ProofStatusSent, map[string]any{"sent_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark proofs sent")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProofsSent,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         &actor,
			Data: ProofsSentEvent{
				OrderID:  orderID,
				ProofIDs: sentIDs,
				Count:    len(sentIDs),
			},
		})
	})
	if err != nil {
		return 0, err
	}
	return len(sentIDs), nil
}

// UpdateProofStatus applies one customer review decision. Moving proofs to
// sent happens only through SendProofs, and only customers hold the approve
// and request-changes triggers.
func (s *service) UpdateProofStatus(ctx context.Context, input StatusInput) (*models.Proof, error) {
	if input.OrderID == uuid.Nil || input.ProofID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and proof ids required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid proof status")
	}
	if input.Target == enums.ProofStatusSent {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proofs go out through the order-wide send")
	}
	if input.Actor.Role != enums.ActorRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "proof review decisions belong to the customer")
	}
	note := trimNote(input.Note)
	if input.Target == enums.ProofStatusChangesRequested && note == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requesting changes needs a note")
	}

	var updated *models.Proof
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		proof, err := s.loadOrderProof(ctx, repo, input.OrderID, input.ProofID)
		if err != nil {
			return err
		}
		if proof.Status == input.Target {
			updated = proof
			return nil
		}
		if !CanTransition(proof.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move proof from %s to %s", proof.Status, input.Target))
		}

		now := time.Now()
		updates := map[string]any{"status": input.Target}
		switch input.Target {
		case enums.ProofStatusSent:
			updates["sent_at"] = now
			proof.SentAt = &now
		case enums.ProofStatusApproved:
			updates["approved_at"] = now
			proof.ApprovedAt = &now
		case enums.ProofStatusChangesRequested:
			updates["changes_requested_at"] = now
			proof.ChangesRequestedAt = &now
		}
		if note != nil {
			column, merged := mergeNote(proof, input.Actor.Role, *note)
			updates[column] = merged
		}

		if err := repo.UpdateProof(ctx, proof.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update proof status")
		}

		from := proof.Status
		proof.Status = input.Target
		updated = proof

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProofStatusChanged,
			AggregateType: enums.AggregateProof,
			AggregateID:   proof.ID,
			Version:       1,
			Actor:         &input.Actor,
			Data: ProofStatusChangedEvent{
				ProofID: proof.ID,
				OrderID: proof.OrderID,
				From:    from,
				To:      input.Target,
				Note:    note,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddProofNotes attaches a note to the channel matching the actor's role.
func (s *service) AddProofNotes(ctx context.Context, input NotesInput) (*models.Proof, error) {
	if input.OrderID == uuid.Nil || input.ProofID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and proof ids required")
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note is required")
	}

	var updated *models.Proof
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		proof, err := s.loadOrderProof(ctx, repo, input.OrderID, input.ProofID)
		if err != nil {
			return err
		}

		column, merged := mergeNote(proof, input.Actor.Role, note)
		if err := repo.UpdateProof(ctx, proof.ID, map[string]any{column: merged}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update proof notes")
		}
		if input.Actor.Role == enums.ActorRoleCustomer {
			proof.CustomerNotes = &merged
		} else {
			proof.AdminNotes = &merged
		}
		updated = proof
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveProof hard-deletes a proof. Approved proofs are part of the order's
// production record and stay put.
func (s *service) RemoveProof(ctx context.Context, orderID, proofID uuid.UUID, actor outbox.ActorRef) error {
	if orderID == uuid.Nil || proofID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order and proof ids required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		proof, err := s.loadOrderProof(ctx, repo, orderID, proofID)
		if err != nil {
			return err
		}
		if proof.Status == enums.ProofStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "approved proofs cannot be removed")
		}

		if err := repo.DeleteProof(ctx, proof.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete proof")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProofRemoved,
			AggregateType: enums.AggregateProof,
			AggregateID:   proof.ID,
			Version:       1,
			Actor:         &actor,
			Data: ProofRemovedEvent{
				ProofID:      proof.ID,
				OrderID:      proof.OrderID,
				FilePublicID: proof.FilePublicID,
			},
		})
	})
}

func (s *service) loadOrderProof(ctx context.Context, repo Repository, orderID, proofID uuid.UUID) (*models.Proof, error) {
	proof, err := repo.FindProofByID(ctx, proofID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load proof")
	}
	if proof.OrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "proof not found on order")
	}
	return proof, nil
}

// crossCheckDimensions compares analyzed artwork size against the ordered
// size. A mismatch is advisory; it never blocks persistence.
func (s *service) crossCheckDimensions(ctx context.Context, order *models.Order, proof *models.Proof) (bool, bool) {
	if proof.OrderItemID == nil || !proof.ExtractedWidthIn.Valid || !proof.ExtractedHeightIn.Valid {
		return false, false
	}
	for _, item := range order.Items {
		if item.ID != *proof.OrderItemID {
			continue
		}
		if !item.WidthIn.Valid || !item.HeightIn.Valid {
			return false, false
		}
		matched := printfile.DimensionsMatch(item.WidthIn, item.HeightIn, proof.ExtractedWidthIn, proof.ExtractedHeightIn)
		if !matched {
			logCtx := s.logg.WithProofID(ctx, proof.ID.String())
			s.logg.Warn(logCtx, fmt.Sprintf(
				"artwork measures %s x %s in but the item was ordered at %s x %s in",
				proof.ExtractedWidthIn.Decimal, proof.ExtractedHeightIn.Decimal,
				item.WidthIn.Decimal, item.HeightIn.Decimal))
		}
		return matched, true
	}
	return false, false
}

func applyReport(proof *models.Proof, report *printfile.Report) {
	if report == nil {
		return
	}
	proof.CutLines = types.StringList(report.CutLines)
	proof.ExtractedWidthIn = report.WidthIn
	proof.ExtractedHeightIn = report.HeightIn
}

func analysisErrMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func orderHasItem(order *models.Order, itemID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mergeNote(proof *models.Proof, role enums.ActorRole, note string) (string, string) {
	column := "admin_notes"
	existing := proof.AdminNotes
	if role == enums.ActorRoleCustomer {
		column = "customer_notes"
		existing = proof.CustomerNotes
	}
	if existing != nil && strings.TrimSpace(*existing) != "" {
		return column, *existing + "\n" + note
	}
	return column, note
}
