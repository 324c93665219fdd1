package proofs

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/api/responses"
	"github.com/printforge/proofroom-backend/api/validators"
	internalproofs "github.com/printforge/proofroom-backend/internal/proofs"
	"github.com/printforge/proofroom-backend/internal/uploads"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/logger"
	"github.com/printforge/proofroom-backend/pkg/outbox"
	"github.com/printforge/proofroom-backend/pkg/types"
)

// uploadPipeline is the surface the handlers need from the upload pipeline.
type uploadPipeline interface {
	Submit(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error)
	Cancel(uploadID uuid.UUID) bool
	Status(uploadID uuid.UUID) (uploads.Status, bool)
}

// uploadOutcome is the per-file result returned by the upload endpoints.
type uploadOutcome struct {
	UploadID string          `json:"upload_id,omitempty"`
	FileName string          `json:"file_name"`
	State    string          `json:"state"`
	Attempts int             `json:"attempts,omitempty"`
	ProofID  string          `json:"proof_id,omitempty"`
	Error    *types.APIError `json:"error,omitempty"`
}

// Upload accepts a multipart batch of proof files and runs each through the
// pipeline. Outcomes are reported per file in completion order; one bad file
// never blocks the rest of the batch.
func Upload(pipeline uploadPipeline, cfg config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pipeline == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload pipeline unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		maxFiles := cfg.MaxProofsPerOrder
		if maxFiles <= 0 || maxFiles > maxFilesPerRequest {
			maxFiles = maxFilesPerRequest
		}
		form, err := parseUploadForm(r, maxBytesForRole(cfg, actor.Role), maxFiles)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcomes := runJobs(r.Context(), pipeline, buildJobs(orderID, nil, actor, form))
		responses.WriteSuccess(w, map[string]any{
			"order_id": orderID,
			"results":  outcomes,
		})
	}
}

// Replace swaps the file on an existing proof.
func Replace(pipeline uploadPipeline, cfg config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		replaceFile(pipeline, cfg, logg, w, r)
	}
}

// Revision is the customer replacement flow. The change request rides with
// the file and is recorded when the replacement lands, so a rejected or
// failed upload leaves the proof's review state untouched.
func Revision(pipeline uploadPipeline, cfg config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		replaceFile(pipeline, cfg, logg, w, r)
	}
}

func replaceFile(
	pipeline uploadPipeline,
	cfg config.UploadsConfig,
	logg *logger.Logger,
	w http.ResponseWriter,
	r *http.Request,
) {
	if pipeline == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload pipeline unavailable"))
		return
	}

	actor, err := actorFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	orderID, err := parseUUIDParam(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	proofID, err := parseUUIDParam(r, "proofId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	form, err := parseUploadForm(r, maxBytesForRole(cfg, actor.Role), 1)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	outcomes := runJobs(r.Context(), pipeline, buildJobs(orderID, &proofID, actor, form))
	responses.WriteSuccess(w, map[string]any{
		"order_id": orderID,
		"proof_id": proofID,
		"results":  outcomes,
	})
}

// List returns the order's proofs with the derived aggregate status.
func List(svc internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.GetProofsForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Send moves every pending proof on the order out for review.
func Send(svc internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		count, err := svc.SendProofs(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id":   orderID,
			"sent_count": count,
		})
	}
}

// UpdateStatus applies one lifecycle transition to a proof.
func UpdateStatus(svc internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proofID, err := parseUUIDParam(r, "proofId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseProofStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateProofStatus(r.Context(), internalproofs.StatusInput{
			OrderID: orderID,
			ProofID: proofID,
			Actor:   actor,
			Target:  target,
			Note:    body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"proof_id": updated.ID,
			"status":   updated.Status,
		})
	}
}

// Notes appends a note to the proof's admin or customer channel.
func Notes(svc internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proofID, err := parseUUIDParam(r, "proofId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body notesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AddProofNotes(r.Context(), internalproofs.NotesInput{
			OrderID: orderID,
			ProofID: proofID,
			Actor:   actor,
			Note:    body.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"proof_id":       updated.ID,
			"admin_notes":    updated.AdminNotes,
			"customer_notes": updated.CustomerNotes,
		})
	}
}

// Remove hard-deletes a proof from the order.
func Remove(svc internalproofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "proofs service unavailable"))
			return
		}
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proofID, err := parseUUIDParam(r, "proofId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveProof(r.Context(), orderID, proofID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"proof_id": proofID, "removed": true})
	}
}

// UploadStatus reports a point-in-time view of an in-flight upload.
func UploadStatus(pipeline uploadPipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pipeline == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload pipeline unavailable"))
			return
		}
		uploadID, err := parseUUIDParam(r, "uploadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, ok := pipeline.Status(uploadID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "upload not found"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"upload_id":   status.UploadID,
			"file_name":   status.FileName,
			"state":       status.State,
			"attempts":    status.Attempts,
			"sent_bytes":  status.SentBytes,
			"total_bytes": status.TotalBytes,
		})
	}
}

// CancelUpload aborts an in-flight upload.
func CancelUpload(pipeline uploadPipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pipeline == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload pipeline unavailable"))
			return
		}
		uploadID, err := parseUUIDParam(r, "uploadId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !pipeline.Cancel(uploadID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "upload not found or already finished"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"upload_id": uploadID, "cancelled": true})
	}
}

func maxBytesForRole(cfg config.UploadsConfig, role enums.ActorRole) int64 {
	if role == enums.ActorRoleCustomer {
		return cfg.CustomerMaxUploadBytes()
	}
	return cfg.AdminMaxUploadBytes()
}

func buildJobs(orderID uuid.UUID, targetProofID *uuid.UUID, actor outbox.ActorRef, form *uploadForm) []uploads.Job {
	jobs := make([]uploads.Job, 0, len(form.Files))
	for _, file := range form.Files {
		jobs = append(jobs, uploads.Job{
			OrderID:       orderID,
			OrderItemID:   form.OrderItemID,
			TargetProofID: targetProofID,
			Actor:         actor,
			Title:         form.Title,
			Note:          form.Note,
			FileName:      file.Name,
			Content:       file.Content,
		})
	}
	return jobs
}

// runJobs submits every job and waits for all terminal statuses. Submissions
// the pipeline rejects up front become outcomes too instead of failing the
// whole batch.
func runJobs(ctx context.Context, pipeline uploadPipeline, jobs []uploads.Job) []uploadOutcome {
	outcomes := make([]uploadOutcome, 0, len(jobs))
	merged := make(chan uploads.Status, len(jobs))

	pending := 0
	for _, job := range jobs {
		_, done, err := pipeline.Submit(ctx, job)
		if err != nil {
			outcomes = append(outcomes, uploadOutcome{
				FileName: job.FileName,
				State:    enums.UploadStateRejected.String(),
				Error:    apiErrorFrom(err),
			})
			continue
		}
		pending++
		go func(done <-chan uploads.Status) {
			for status := range done {
				merged <- status
			}
		}(done)
	}

	for i := 0; i < pending; i++ {
		outcomes = append(outcomes, outcomeFromStatus(<-merged))
	}
	return outcomes
}

func outcomeFromStatus(status uploads.Status) uploadOutcome {
	out := uploadOutcome{
		UploadID: status.UploadID.String(),
		FileName: status.FileName,
		State:    status.State.String(),
		Attempts: status.Attempts,
	}
	if status.ProofID != uuid.Nil {
		out.ProofID = status.ProofID.String()
	}
	if status.Err != nil {
		out.Error = apiErrorFrom(status.Err)
	}
	return out
}

func apiErrorFrom(err error) *types.APIError {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upload failed")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeCancelled,
		pkgerrors.CodeAnalysis:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	apiErr := &types.APIError{
		Code:    string(typed.Code()),
		Message: msg,
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			apiErr.Details = details
		}
	}
	return apiErr
}
