package analysis

import (
	"context"
	"strings"

	"github.com/Abraxas-365/lectio/pkg/jobx"
	"github.com/Abraxas-365/lectio/pkg/logx"
)

// SubmitRequest is the caller's analysis submission.
type SubmitRequest struct {
	DocumentRef   string      `json:"document_ref"`
	ContentKind   ContentKind `json:"content_kind"`
	CourseID      string      `json:"course_id,omitempty"`
	CourseContext string      `json:"course_context,omitempty"`
	MaxAttempts   int         `json:"max_attempts,omitempty"`
}

// Service is the caller-facing surface: submit an analysis, poll its status,
// cancel it. Everything else in this package hangs off the jobs it creates.
type Service struct {
	engine *jobx.Engine
	status *StatusStore
}

// NewService wires the surface and binds the status store to the engine.
func NewService(engine *jobx.Engine, status *StatusStore) *Service {
	status.Bind()
	return &Service{engine: engine, status: status}
}

// SubmitAnalysis validates the request, creates the durable PENDING record
// and schedules the job. It returns the record snapshot; callers poll
// Status with its JobID until a terminal state.
func (s *Service) SubmitAnalysis(ctx context.Context, req SubmitRequest) (Record, error) {
	req.DocumentRef = strings.TrimSpace(req.DocumentRef)
	if req.DocumentRef == "" {
		return Record{}, analysisErrors.New(ErrInvalidPayload).WithDetail("reason", "empty document_ref")
	}
	if !req.ContentKind.Valid() {
		return Record{}, analysisErrors.New(ErrUnsupportedKind).WithDetail("kind", string(req.ContentKind))
	}

	var submitOpts []jobx.SubmitOption
	if req.MaxAttempts > 0 {
		submitOpts = append(submitOpts, jobx.WithSubmitMaxAttempts(req.MaxAttempts))
	}

	// The durable record is written by the engine's added listener,
	// synchronously inside Submit and before scheduling.
	job, err := s.engine.Submit(JobTypeAnalyzeDocument, AnalyzePayload{
		DocumentRef:   req.DocumentRef,
		ContentKind:   req.ContentKind,
		CourseID:      req.CourseID,
		CourseContext: req.CourseContext,
	}, submitOpts...)
	if err != nil {
		return Record{}, err
	}

	record, err := s.status.Status(ctx, job.ID)
	if err != nil {
		// The record write failed: the job would be invisible to pollers,
		// so take it back out of the engine.
		logx.WithError(err).WithField("job_id", job.ID).
			Error("analysis: durable record missing after submit, canceling job")
		if cancelErr := s.engine.Cancel(job.ID); cancelErr != nil {
			logx.WithError(cancelErr).WithField("job_id", job.ID).
				Warn("analysis: could not cancel unrecorded job")
		}
		return Record{}, analysisErrors.NewWithCause(ErrRecordWrite, err)
	}

	logx.WithFields(logx.Fields{
		"job_id": job.ID,
		"ref":    req.DocumentRef,
		"kind":   string(req.ContentKind),
	}).Info("analysis: job submitted")
	return record, nil
}

// Status reports the current state of a job: durable record first, engine
// fallback, well-defined not-found otherwise.
func (s *Service) Status(ctx context.Context, jobID string) (Record, error) {
	return s.status.Status(ctx, jobID)
}

// Cancel requests cancellation of a job by id.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	err := s.engine.Cancel(jobID)
	if err == nil {
		return nil
	}
	// The engine forgets jobs on restart; map the durable view onto a
	// saner answer than "not found" when a record exists.
	if _, recErr := s.status.Status(ctx, jobID); recErr == nil {
		return err
	}
	return analysisErrors.New(ErrRecordNotFound).WithDetail("job_id", jobID)
}
