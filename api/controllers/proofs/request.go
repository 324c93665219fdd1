package proofs

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/api/middleware"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/outbox"
)

const maxFilesPerRequest = 25

// statusRequest is the customer review decision body. Sending is a separate
// order-wide operation, so "sent" is not accepted here.
type statusRequest struct {
	Status string  `json:"status" validate:"required,oneof=approved changes_requested"`
	Note   *string `json:"note,omitempty"`
}

// notesRequest attaches a note outside of a transition.
type notesRequest struct {
	Note string `json:"note" validate:"required,min=1"`
}

// uploadedFile is one file pulled out of a multipart request.
type uploadedFile struct {
	Name    string
	Content []byte
}

// uploadForm is the parsed multipart payload: the files plus the optional
// request-wide fields that apply to them.
type uploadForm struct {
	Files       []uploadedFile
	OrderItemID *uuid.UUID
	Title       string
	Note        string
}

func actorFromContext(r *http.Request) (outbox.ActorRef, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return outbox.ActorRef{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity")
	}
	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return outbox.ActorRef{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor role")
	}
	return outbox.ActorRef{UserID: userID, Role: role}, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", name))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// parseUploadForm streams the multipart parts, capping each file read at
// maxFileBytes so an oversized body never lands fully in memory.
func parseUploadForm(r *http.Request, maxFileBytes int64, maxFiles int) (*uploadForm, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart body required")
	}

	form := &uploadForm{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read multipart body")
		}

		if part.FileName() == "" {
			if err := readFormField(form, part); err != nil {
				return nil, err
			}
			continue
		}

		if len(form.Files) >= maxFiles {
			_ = part.Close()
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("at most %d files per request", maxFiles))
		}

		content, err := io.ReadAll(io.LimitReader(part, maxFileBytes+1))
		closeErr := part.Close()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read file part")
		}
		if closeErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, closeErr, "read file part")
		}
		form.Files = append(form.Files, uploadedFile{
			Name:    part.FileName(),
			Content: content,
		})
	}

	if len(form.Files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required")
	}
	return form, nil
}

func readFormField(form *uploadForm, part *multipart.Part) error {
	value, err := io.ReadAll(io.LimitReader(part, 4096))
	_ = part.Close()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read form field")
	}
	trimmed := strings.TrimSpace(string(value))

	switch part.FormName() {
	case "order_item_id":
		if trimmed == "" {
			return nil
		}
		itemID, err := uuid.Parse(trimmed)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_item_id")
		}
		form.OrderItemID = &itemID
	case "title":
		form.Title = trimmed
	case "note":
		form.Note = trimmed
	}
	return nil
}
