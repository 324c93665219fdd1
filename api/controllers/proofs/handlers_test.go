package proofs

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printforge/proofroom-backend/api/middleware"
	internalproofs "github.com/printforge/proofroom-backend/internal/proofs"
	"github.com/printforge/proofroom-backend/internal/uploads"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/db/models"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/outbox"
)

type stubService struct {
	persistFn func(ctx context.Context, input uploads.PersistInput) (uuid.UUID, error)
	viewFn    func(ctx context.Context, orderID uuid.UUID) (*internalproofs.OrderProofsView, error)
	sendFn    func(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (int, error)
	statusFn  func(ctx context.Context, input internalproofs.StatusInput) (*models.Proof, error)
	notesFn   func(ctx context.Context, input internalproofs.NotesInput) (*models.Proof, error)
	removeFn  func(ctx context.Context, orderID, proofID uuid.UUID, actor outbox.ActorRef) error
}

func (s stubService) PersistUpload(ctx context.Context, input uploads.PersistInput) (uuid.UUID, error) {
	if s.persistFn != nil {
		return s.persistFn(ctx, input)
	}
	return uuid.Nil, nil
}

func (s stubService) GetProofsForOrder(ctx context.Context, orderID uuid.UUID) (*internalproofs.OrderProofsView, error) {
	if s.viewFn != nil {
		return s.viewFn(ctx, orderID)
	}
	return &internalproofs.OrderProofsView{OrderID: orderID}, nil
}

func (s stubService) SendProofs(ctx context.Context, orderID uuid.UUID, actor outbox.ActorRef) (int, error) {
	if s.sendFn != nil {
		return s.sendFn(ctx, orderID, actor)
	}
	return 0, nil
}

func (s stubService) UpdateProofStatus(ctx context.Context, input internalproofs.StatusInput) (*models.Proof, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, input)
	}
	return &models.Proof{ID: input.ProofID, Status: input.Target}, nil
}

func (s stubService) AddProofNotes(ctx context.Context, input internalproofs.NotesInput) (*models.Proof, error) {
	if s.notesFn != nil {
		return s.notesFn(ctx, input)
	}
	return &models.Proof{ID: input.ProofID}, nil
}

func (s stubService) RemoveProof(ctx context.Context, orderID, proofID uuid.UUID, actor outbox.ActorRef) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, orderID, proofID, actor)
	}
	return nil
}

type stubPipeline struct {
	submitFn func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error)
	cancelFn func(uploadID uuid.UUID) bool
	statusFn func(uploadID uuid.UUID) (uploads.Status, bool)
}

func (s stubPipeline) Submit(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, job)
	}
	return succeededSubmit(job)
}

func (s stubPipeline) Cancel(uploadID uuid.UUID) bool {
	if s.cancelFn != nil {
		return s.cancelFn(uploadID)
	}
	return false
}

func (s stubPipeline) Status(uploadID uuid.UUID) (uploads.Status, bool) {
	if s.statusFn != nil {
		return s.statusFn(uploadID)
	}
	return uploads.Status{}, false
}

func succeededSubmit(job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
	uploadID := uuid.New()
	done := make(chan uploads.Status, 1)
	done <- uploads.Status{
		UploadID: uploadID,
		FileName: job.FileName,
		State:    enums.UploadStateSucceeded,
		Attempts: 1,
		ProofID:  uuid.New(),
	}
	close(done)
	return uploadID, done, nil
}

func testUploadsConfig() config.UploadsConfig {
	return config.UploadsConfig{
		AdminMaxUploadMB:    10,
		CustomerMaxUploadMB: 25,
		MaxProofsPerOrder:   5,
		MaxUploadAttempts:   3,
	}
}

type formFile struct {
	name    string
	content []byte
}

func multipartBody(t *testing.T, files []formFile, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, file := range files {
		part, err := writer.CreateFormFile("files", file.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}

func asActor(req *http.Request, role string) *http.Request {
	ctx := middleware.WithUserID(req.Context(), uuid.New().String())
	ctx = middleware.WithRole(ctx, role)
	return req.WithContext(ctx)
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for name, value := range params {
		routeCtx.URLParams.Add(name, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return envelope.Error.Code
}

func TestUpload(t *testing.T) {
	orderID := uuid.New()
	submitted := make([]uploads.Job, 0, 2)

	pipeline := stubPipeline{
		submitFn: func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
			submitted = append(submitted, job)
			return succeededSubmit(job)
		},
	}

	body, contentType := multipartBody(t,
		[]formFile{
			{name: "front.pdf", content: []byte("%PDF-1.7 front")},
			{name: "back.pdf", content: []byte("%PDF-1.7 back")},
		},
		map[string]string{"title": "Banner proof"},
	)

	handler := Upload(pipeline, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{"orderId": orderID.String()}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(submitted) != 2 {
		t.Fatalf("expected 2 submissions got %d", len(submitted))
	}
	for _, job := range submitted {
		if job.OrderID != orderID {
			t.Fatalf("unexpected order id %s", job.OrderID)
		}
		if job.Title != "Banner proof" {
			t.Fatalf("unexpected title %q", job.Title)
		}
		if job.TargetProofID != nil {
			t.Fatalf("unexpected replacement target %v", job.TargetProofID)
		}
	}

	var data struct {
		Results []uploadOutcome `json:"results"`
	}
	decodeData(t, resp, &data)
	if len(data.Results) != 2 {
		t.Fatalf("expected 2 results got %d", len(data.Results))
	}
	for _, result := range data.Results {
		if result.State != enums.UploadStateSucceeded.String() {
			t.Fatalf("unexpected state %q", result.State)
		}
		if result.ProofID == "" {
			t.Fatalf("expected proof id on %q", result.FileName)
		}
	}
}

func TestUpload_RejectedFileDoesNotFailBatch(t *testing.T) {
	orderID := uuid.New()
	pipeline := stubPipeline{
		submitFn: func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
			if job.FileName == "bad.exe" {
				return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type")
			}
			return succeededSubmit(job)
		},
	}

	body, contentType := multipartBody(t, []formFile{
		{name: "bad.exe", content: []byte("MZ")},
		{name: "good.pdf", content: []byte("%PDF-1.7")},
	}, nil)

	handler := Upload(pipeline, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{"orderId": orderID.String()}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var data struct {
		Results []uploadOutcome `json:"results"`
	}
	decodeData(t, resp, &data)
	if len(data.Results) != 2 {
		t.Fatalf("expected 2 results got %d", len(data.Results))
	}

	states := map[string]uploadOutcome{}
	for _, result := range data.Results {
		states[result.FileName] = result
	}
	rejected := states["bad.exe"]
	if rejected.State != enums.UploadStateRejected.String() {
		t.Fatalf("expected rejected state got %q", rejected.State)
	}
	if rejected.Error == nil || rejected.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected rejection error %+v", rejected.Error)
	}
	if states["good.pdf"].State != enums.UploadStateSucceeded.String() {
		t.Fatalf("expected good file to succeed, got %q", states["good.pdf"].State)
	}
}

func TestUpload_NoFiles(t *testing.T) {
	body, contentType := multipartBody(t, nil, map[string]string{"title": "empty"})

	handler := Upload(stubPipeline{}, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{"orderId": uuid.NewString()}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpload_MissingIdentity(t *testing.T) {
	body, contentType := multipartBody(t, []formFile{{name: "a.pdf", content: []byte("%PDF-1.7")}}, nil)

	handler := Upload(stubPipeline{}, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = withParams(req, map[string]string{"orderId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestReplace_TargetsProof(t *testing.T) {
	orderID := uuid.New()
	proofID := uuid.New()
	var submitted uploads.Job

	pipeline := stubPipeline{
		submitFn: func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
			submitted = job
			return succeededSubmit(job)
		},
	}

	body, contentType := multipartBody(t, []formFile{{name: "v2.pdf", content: []byte("%PDF-1.7")}}, nil)

	handler := Replace(pipeline, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{
		"orderId": orderID.String(),
		"proofId": proofID.String(),
	}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if submitted.TargetProofID == nil || *submitted.TargetProofID != proofID {
		t.Fatalf("expected target proof %s got %v", proofID, submitted.TargetProofID)
	}
}

func TestRevision_NoteRidesWithReplacement(t *testing.T) {
	orderID := uuid.New()
	proofID := uuid.New()
	var submitted uploads.Job

	pipeline := stubPipeline{
		submitFn: func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
			submitted = job
			return succeededSubmit(job)
		},
	}

	body, contentType := multipartBody(t,
		[]formFile{{name: "fix.pdf", content: []byte("%PDF-1.7")}},
		map[string]string{"note": "logo is off center"},
	)

	handler := Revision(pipeline, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{
		"orderId": orderID.String(),
		"proofId": proofID.String(),
	}), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if submitted.TargetProofID == nil || *submitted.TargetProofID != proofID {
		t.Fatalf("expected target proof %s got %v", proofID, submitted.TargetProofID)
	}
	if submitted.Note != "logo is off center" {
		t.Fatalf("the note must travel with the file, got %q", submitted.Note)
	}
}

func TestRevision_RejectedFileReportedPerFile(t *testing.T) {
	pipeline := stubPipeline{
		submitFn: func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
			return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the 25 MB ceiling")
		},
	}

	body, contentType := multipartBody(t,
		[]formFile{{name: "huge.pdf", content: []byte("%PDF-1.7")}},
		map[string]string{"note": "try this one"},
	)

	handler := Revision(pipeline, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var data struct {
		Results []uploadOutcome `json:"results"`
	}
	decodeData(t, resp, &data)
	if len(data.Results) != 1 || data.Results[0].State != enums.UploadStateRejected.String() {
		t.Fatalf("expected a rejected outcome, got %+v", data.Results)
	}
	if data.Results[0].Error == nil || data.Results[0].Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected rejection error %+v", data.Results[0].Error)
	}
}

func TestRevision_ApprovedProofRefused(t *testing.T) {
	pipeline := stubPipeline{
		submitFn: func(ctx context.Context, job uploads.Job) (uuid.UUID, <-chan uploads.Status, error) {
			uploadID := uuid.New()
			done := make(chan uploads.Status, 1)
			done <- uploads.Status{
				UploadID: uploadID,
				FileName: job.FileName,
				State:    enums.UploadStateFailed,
				Attempts: 1,
				Err:      pkgerrors.New(pkgerrors.CodeStateConflict, "approved proofs cannot be replaced"),
			}
			close(done)
			return uploadID, done, nil
		},
	}

	body, contentType := multipartBody(t, []formFile{{name: "fix.pdf", content: []byte("%PDF-1.7")}}, nil)

	handler := Revision(pipeline, testUploadsConfig(), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var data struct {
		Results []uploadOutcome `json:"results"`
	}
	decodeData(t, resp, &data)
	if len(data.Results) != 1 || data.Results[0].State != enums.UploadStateFailed.String() {
		t.Fatalf("expected a failed outcome, got %+v", data.Results)
	}
	if data.Results[0].Error == nil || data.Results[0].Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error %+v", data.Results[0].Error)
	}
}

func TestList(t *testing.T) {
	orderID := uuid.New()
	svc := stubService{
		viewFn: func(ctx context.Context, id uuid.UUID) (*internalproofs.OrderProofsView, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			return &internalproofs.OrderProofsView{
				OrderID:     orderID,
				Status:      enums.OrderProofStatusApproved,
				AllApproved: true,
			}, nil
		},
	}

	handler := List(svc, nil)
	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"orderId": orderID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view internalproofs.OrderProofsView
	decodeData(t, resp, &view)
	if view.OrderID != orderID || !view.AllApproved {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestList_OrderNotFound(t *testing.T) {
	svc := stubService{
		viewFn: func(ctx context.Context, id uuid.UUID) (*internalproofs.OrderProofsView, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	handler := List(svc, nil)
	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"orderId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestSend(t *testing.T) {
	orderID := uuid.New()
	svc := stubService{
		sendFn: func(ctx context.Context, id uuid.UUID, actor outbox.ActorRef) (int, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			return 3, nil
		},
	}

	handler := Send(svc, nil)
	req := asActor(withParams(httptest.NewRequest(http.MethodPost, "/", nil),
		map[string]string{"orderId": orderID.String()}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var data struct {
		SentCount int `json:"sent_count"`
	}
	decodeData(t, resp, &data)
	if data.SentCount != 3 {
		t.Fatalf("expected sent_count 3 got %d", data.SentCount)
	}
}

func TestSend_NothingPending(t *testing.T) {
	svc := stubService{
		sendFn: func(ctx context.Context, id uuid.UUID, actor outbox.ActorRef) (int, error) {
			return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending proofs to send")
		},
	}

	handler := Send(svc, nil)
	req := asActor(withParams(httptest.NewRequest(http.MethodPost, "/", nil),
		map[string]string{"orderId": uuid.NewString()}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	orderID := uuid.New()
	proofID := uuid.New()
	var got internalproofs.StatusInput

	svc := stubService{
		statusFn: func(ctx context.Context, input internalproofs.StatusInput) (*models.Proof, error) {
			got = input
			return &models.Proof{ID: input.ProofID, Status: input.Target}, nil
		},
	}

	handler := UpdateStatus(svc, nil)
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"approved"}`))
	req = asActor(withParams(req, map[string]string{
		"orderId": orderID.String(),
		"proofId": proofID.String(),
	}), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.Target != enums.ProofStatusApproved {
		t.Fatalf("unexpected target %q", got.Target)
	}
	if got.OrderID != orderID || got.ProofID != proofID {
		t.Fatalf("unexpected ids %s %s", got.OrderID, got.ProofID)
	}
}

func TestUpdateStatus_NotePassedThrough(t *testing.T) {
	var got internalproofs.StatusInput
	svc := stubService{
		statusFn: func(ctx context.Context, input internalproofs.StatusInput) (*models.Proof, error) {
			got = input
			return &models.Proof{ID: input.ProofID, Status: input.Target}, nil
		},
	}

	handler := UpdateStatus(svc, nil)
	req := httptest.NewRequest(http.MethodPut, "/",
		strings.NewReader(`{"status":"changes_requested","note":"wrong pantone"}`))
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Note == nil || *got.Note != "wrong pantone" {
		t.Fatalf("unexpected note %v", got.Note)
	}
}

func TestUpdateStatus_InvalidTarget(t *testing.T) {
	handler := UpdateStatus(stubService{}, nil)
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"pending"}`))
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateStatus_SentNotAccepted(t *testing.T) {
	called := false
	svc := stubService{
		statusFn: func(ctx context.Context, input internalproofs.StatusInput) (*models.Proof, error) {
			called = true
			return &models.Proof{ID: input.ProofID, Status: input.Target}, nil
		},
	}

	handler := UpdateStatus(svc, nil)
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"sent"}`))
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "customer")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("sending happens order-wide, expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("the service must not see a per-proof send")
	}
}

func TestNotes(t *testing.T) {
	proofID := uuid.New()
	var got internalproofs.NotesInput

	adminNote := "reviewed, ok to print"
	svc := stubService{
		notesFn: func(ctx context.Context, input internalproofs.NotesInput) (*models.Proof, error) {
			got = input
			return &models.Proof{ID: input.ProofID, AdminNotes: &adminNote}, nil
		},
	}

	handler := Notes(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"reviewed, ok to print"}`))
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": proofID.String(),
	}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Note != "reviewed, ok to print" || got.ProofID != proofID {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestNotes_BlankNote(t *testing.T) {
	handler := Notes(stubService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":""}`))
	req = asActor(withParams(req, map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRemove(t *testing.T) {
	orderID := uuid.New()
	proofID := uuid.New()
	called := false

	svc := stubService{
		removeFn: func(ctx context.Context, oid, pid uuid.UUID, actor outbox.ActorRef) error {
			if oid != orderID || pid != proofID {
				t.Fatalf("unexpected ids %s %s", oid, pid)
			}
			called = true
			return nil
		},
	}

	handler := Remove(svc, nil)
	req := asActor(withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{
		"orderId": orderID.String(),
		"proofId": proofID.String(),
	}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("expected removal to be attempted")
	}
}

func TestRemove_ApprovedRefused(t *testing.T) {
	svc := stubService{
		removeFn: func(ctx context.Context, oid, pid uuid.UUID, actor outbox.ActorRef) error {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "approved proofs cannot be removed")
		},
	}

	handler := Remove(svc, nil)
	req := asActor(withParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{
		"orderId": uuid.NewString(),
		"proofId": uuid.NewString(),
	}), "admin")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestUploadStatus(t *testing.T) {
	uploadID := uuid.New()
	pipeline := stubPipeline{
		statusFn: func(id uuid.UUID) (uploads.Status, bool) {
			if id != uploadID {
				t.Fatalf("unexpected upload id %s", id)
			}
			return uploads.Status{
				UploadID:   uploadID,
				FileName:   "front.pdf",
				State:      enums.UploadStateUploading,
				Attempts:   1,
				SentBytes:  512,
				TotalBytes: 2048,
			}, true
		},
	}

	handler := UploadStatus(pipeline, nil)
	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil),
		map[string]string{"uploadId": uploadID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var data struct {
		State     string `json:"state"`
		SentBytes int64  `json:"sent_bytes"`
	}
	decodeData(t, resp, &data)
	if data.State != enums.UploadStateUploading.String() || data.SentBytes != 512 {
		t.Fatalf("unexpected status payload %+v", data)
	}
}

func TestUploadStatus_Unknown(t *testing.T) {
	handler := UploadStatus(stubPipeline{}, nil)
	req := withParams(httptest.NewRequest(http.MethodGet, "/", nil),
		map[string]string{"uploadId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCancelUpload(t *testing.T) {
	uploadID := uuid.New()
	pipeline := stubPipeline{
		cancelFn: func(id uuid.UUID) bool { return id == uploadID },
	}

	handler := CancelUpload(pipeline, nil)
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil),
		map[string]string{"uploadId": uploadID.String()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	req = withParams(httptest.NewRequest(http.MethodPost, "/", nil),
		map[string]string{"uploadId": uuid.NewString()})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
