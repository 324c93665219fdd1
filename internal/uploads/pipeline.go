package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printforge/proofroom-backend/internal/printfile"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
	"github.com/printforge/proofroom-backend/pkg/logger"
	"github.com/printforge/proofroom-backend/pkg/metrics"
	"github.com/printforge/proofroom-backend/pkg/outbox"
	"github.com/printforge/proofroom-backend/pkg/storage/cloudinary"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// ObjectStore is the media-store surface the pipeline needs.
type ObjectStore interface {
	Upload(ctx context.Context, input cloudinary.UploadInput) (*cloudinary.UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// Analyzer inspects print-ready PDFs.
type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader) (*printfile.Report, error)
}

// ProofSink persists a finished upload as a proof record.
type ProofSink interface {
	PersistUpload(ctx context.Context, input PersistInput) (uuid.UUID, error)
}

// PersistInput carries everything the sink needs to write the proof row.
type PersistInput struct {
	OrderID       uuid.UUID
	OrderItemID   *uuid.UUID
	TargetProofID *uuid.UUID
	Actor         outbox.ActorRef
	Title         string
	Note          string
	FileName      string
	Upload        *cloudinary.UploadResult
	Report        *printfile.Report
	AnalysisErr   error
}

// Job is one file submitted to the pipeline. Content is held in memory; the
// upload ceilings keep it small enough, and retries need a rewindable source.
type Job struct {
	OrderID       uuid.UUID
	OrderItemID   *uuid.UUID
	TargetProofID *uuid.UUID
	Actor         outbox.ActorRef
	Title         string
	Note          string
	FileName      string
	Content       []byte
}

// Status is a point-in-time view of one upload.
type Status struct {
	UploadID   uuid.UUID
	FileName   string
	State      enums.UploadState
	Attempts   int
	SentBytes  int64
	TotalBytes int64
	ProofID    uuid.UUID
	Err        error
}

// Pipeline validates, uploads, analyzes, and persists proof files. Every file
// runs in isolation; one failure never touches the other submissions.
type Pipeline struct {
	validator *Validator
	store     ObjectStore
	analyzer  Analyzer
	sink      ProofSink
	metrics   *metrics.UploadMetrics
	logg      *logger.Logger
	cfg       config.UploadsConfig

	mu       sync.Mutex
	inflight map[uuid.UUID]*tracker
}

type tracker struct {
	cancel context.CancelFunc
	status Status
}

// NewPipeline validates its dependencies and returns a ready pipeline.
func NewPipeline(
	validator *Validator,
	store ObjectStore,
	analyzer Analyzer,
	sink ProofSink,
	uploadMetrics *metrics.UploadMetrics,
	logg *logger.Logger,
	cfg config.UploadsConfig,
) (*Pipeline, error) {
	if validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer required")
	}
	if sink == nil {
		return nil, fmt.Errorf("proof sink required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.MaxUploadAttempts <= 0 {
		cfg.MaxUploadAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	return &Pipeline{
		validator: validator,
		store:     store,
		analyzer:  analyzer,
		sink:      sink,
		metrics:   uploadMetrics,
		logg:      logg,
		cfg:       cfg,
		inflight:  make(map[uuid.UUID]*tracker),
	}, nil
}

// Submit validates the file and starts its upload. The returned channel
// receives exactly one terminal Status and is then closed.
func (p *Pipeline) Submit(ctx context.Context, job Job) (uuid.UUID, <-chan Status, error) {
	if job.OrderID == uuid.Nil {
		return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !job.Actor.Role.IsValid() {
		return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "actor role is required")
	}

	peek := job.Content
	if len(peek) > 512 {
		peek = peek[:512]
	}
	if err := p.validator.Validate(job.Actor.Role, FileInfo{
		Name: job.FileName,
		Size: int64(len(job.Content)),
		Peek: peek,
	}); err != nil {
		p.metrics.IncOutcome(enums.UploadStateRejected.String())
		return uuid.Nil, nil, err
	}

	uploadID := uuid.New()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	track := &tracker{
		cancel: cancel,
		status: Status{
			UploadID:   uploadID,
			FileName:   job.FileName,
			State:      enums.UploadStateQueued,
			TotalBytes: int64(len(job.Content)),
		},
	}
	p.mu.Lock()
	p.inflight[uploadID] = track
	p.mu.Unlock()

	done := make(chan Status, 1)
	go p.run(runCtx, uploadID, job, done)

	return uploadID, done, nil
}

// Cancel aborts an in-flight upload. It reports false when the upload is
// unknown or already finished.
func (p *Pipeline) Cancel(uploadID uuid.UUID) bool {
	p.mu.Lock()
	track, ok := p.inflight[uploadID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	track.cancel()
	return true
}

// Status returns the current view of an in-flight upload.
func (p *Pipeline) Status(uploadID uuid.UUID) (Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	track, ok := p.inflight[uploadID]
	if !ok {
		return Status{}, false
	}
	return track.status, true
}

func (p *Pipeline) run(ctx context.Context, uploadID uuid.UUID, job Job, done chan<- Status) {
	defer close(done)

	ctx = p.logg.WithUploadID(ctx, uploadID.String())
	ctx = p.logg.WithOrderID(ctx, job.OrderID.String())

	started := time.Now()
	p.setState(uploadID, enums.UploadStateUploading)

	var (
		result      *cloudinary.UploadResult
		report      *printfile.Report
		analysisErr error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		uploaded, err := p.uploadWithRetry(groupCtx, uploadID, job)
		if err != nil {
			return err
		}
		result = uploaded
		return nil
	})
	if IsPDF(job.FileName) {
		// Analysis failure never sinks the upload; the proof is stored
		// without cut data and the error travels with it.
		group.Go(func() error {
			analyzed, err := p.analyzer.Analyze(groupCtx, bytes.NewReader(job.Content))
			if err != nil {
				analysisErr = err
				p.metrics.IncAnalysisFailure()
				p.logg.Warn(ctx, fmt.Sprintf("print file analysis failed: %v", err))
				return nil
			}
			report = analyzed
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		p.finish(uploadID, job, started, terminalStateFor(err), uuid.Nil, err, done)
		return
	}

	p.setState(uploadID, enums.UploadStatePersisting)
	proofID, err := p.sink.PersistUpload(ctx, PersistInput{
		OrderID:       job.OrderID,
		OrderItemID:   job.OrderItemID,
		TargetProofID: job.TargetProofID,
		Actor:         job.Actor,
		Title:         job.Title,
		Note:          job.Note,
		FileName:      job.FileName,
		Upload:        result,
		Report:        report,
		AnalysisErr:   analysisErr,
	})
	if err != nil {
		// The object is orphaned once persistence fails; drop it now so the
		// cleanup worker has less to reconcile.
		destroyCtx, destroyCancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if destroyErr := p.store.Destroy(destroyCtx, result.PublicID); destroyErr != nil {
			p.logg.Warn(ctx, fmt.Sprintf("orphaned object %s not destroyed: %v", result.PublicID, destroyErr))
		}
		destroyCancel()
		p.finish(uploadID, job, started, enums.UploadStateFailed, uuid.Nil, err, done)
		return
	}

	p.finish(uploadID, job, started, enums.UploadStateSucceeded, proofID, nil, done)
}

func (p *Pipeline) uploadWithRetry(ctx context.Context, uploadID uuid.UUID, job Job) (*cloudinary.UploadResult, error) {
	backoff := retry.WithMaxRetries(uint64(p.cfg.MaxUploadAttempts-1), retry.NewExponential(p.cfg.RetryBaseDelay))

	var result *cloudinary.UploadResult
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt := p.bumpAttempt(uploadID)
		if attempt > 1 {
			p.metrics.IncRetry(job.Actor.Role.String())
			p.logg.Info(ctx, fmt.Sprintf("upload attempt %d of %d", attempt, p.cfg.MaxUploadAttempts))
		}

		uploaded, err := p.store.Upload(ctx, cloudinary.UploadInput{
			FileName: job.FileName,
			Body:     bytes.NewReader(job.Content),
			Size:     int64(len(job.Content)),
			Folder:   fmt.Sprintf("proofs/%s", job.OrderID),
			Tags:     []string{"proof"},
			Context: map[string]string{
				"order_id":    job.OrderID.String(),
				"uploaded_by": job.Actor.UserID.String(),
				"channel":     job.Actor.Role.String(),
			},
			OnProgress: func(sent, total int64) {
				p.recordProgress(uploadID, sent)
			},
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeCancelled {
				return err
			}
			if pkgerrors.Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = uploaded
		return nil
	})
	if err != nil {
		// Cancelling during the backoff sleep surfaces as a bare context
		// error rather than a typed one.
		if pkgerrors.As(err) == nil && errors.Is(err, context.Canceled) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "upload cancelled")
		}
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) finish(uploadID uuid.UUID, job Job, started time.Time, state enums.UploadState, proofID uuid.UUID, err error, done chan<- Status) {
	p.mu.Lock()
	track, ok := p.inflight[uploadID]
	var status Status
	if ok {
		track.status.State = state
		track.status.ProofID = proofID
		track.status.Err = err
		status = track.status
		delete(p.inflight, uploadID)
		track.cancel()
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	p.metrics.ObserveDuration(job.Actor.Role.String(), time.Since(started))
	p.metrics.IncOutcome(state.String())
	done <- status
}

func (p *Pipeline) setState(uploadID uuid.UUID, state enums.UploadState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if track, ok := p.inflight[uploadID]; ok {
		track.status.State = state
	}
}

func (p *Pipeline) bumpAttempt(uploadID uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	track, ok := p.inflight[uploadID]
	if !ok {
		return 0
	}
	track.status.Attempts++
	return track.status.Attempts
}

func (p *Pipeline) recordProgress(uploadID uuid.UUID, sent int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if track, ok := p.inflight[uploadID]; ok && sent > track.status.SentBytes {
		track.status.SentBytes = sent
	}
}

func terminalStateFor(err error) enums.UploadState {
	if typed := pkgerrors.As(err); typed != nil {
		if typed.Code() == pkgerrors.CodeCancelled {
			return enums.UploadStateCancelled
		}
		return enums.UploadStateFailed
	}
	if errors.Is(err, context.Canceled) {
		return enums.UploadStateCancelled
	}
	return enums.UploadStateFailed
}
