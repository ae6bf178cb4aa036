package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/lectio/pkg/errx"
	"github.com/Abraxas-365/lectio/pkg/jobx"
	"github.com/Abraxas-365/lectio/pkg/logx"
)

// Listener dispatch happens on engine worker goroutines; durable writes get
// their own bounded context so a slow store cannot stall a worker forever.
const durableWriteTimeout = 5 * time.Second

// StatusStore reconciles the engine's transient job view with the durable
// record callers poll. The durable record is authoritative: it is what
// survives a process restart. The in-memory engine only answers when no
// record was ever written.
type StatusStore struct {
	records RecordStore
	engine  *jobx.Engine
}

// NewStatusStore builds the reconciliation layer. Call Bind before the
// engine starts so no transition is missed.
func NewStatusStore(records RecordStore, engine *jobx.Engine) *StatusStore {
	return &StatusStore{records: records, engine: engine}
}

// Bind projects engine transitions into durable records. The added listener
// runs synchronously inside Submit, before the job is scheduled, so a caller
// polling immediately after submission never sees "not found". Terminal
// listeners fire on every exit path the engine has, panics included, which
// is what guarantees no orphaned PENDING record.
func (s *StatusStore) Bind() {
	s.engine.On(jobx.EventAdded, s.onAdded)
	s.engine.On(jobx.EventProcessing, s.onTransition)
	s.engine.On(jobx.EventCompleted, s.onTransition)
	s.engine.On(jobx.EventFailed, s.onTransition)
	s.engine.On(jobx.EventCanceled, s.onTransition)
}

// Status answers a caller's poll: durable record first, engine fallback,
// then a well-defined not-found.
func (s *StatusStore) Status(ctx context.Context, jobID string) (Record, error) {
	record, err := s.records.Get(ctx, jobID)
	if err == nil {
		return record, nil
	}
	if !isNotFound(err) {
		return Record{}, err
	}

	job, engineErr := s.engine.Get(jobID)
	if engineErr != nil {
		return Record{}, analysisErrors.New(ErrRecordNotFound).WithDetail("job_id", jobID)
	}
	return recordFromJob(job), nil
}

// UpdateStage writes a stage-boundary checkpoint for a running job.
func (s *StatusStore) UpdateStage(ctx context.Context, jobID string, progress int) error {
	status := jobx.StatusProcessing
	return s.records.Update(ctx, jobID, RecordPatch{
		Status:   &status,
		Progress: &progress,
	})
}

func (s *StatusStore) onAdded(job jobx.Job) {
	if !isAnalysisJobType(job.Type) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), durableWriteTimeout)
	defer cancel()

	if err := s.records.Save(ctx, recordFromJob(job)); err != nil {
		logx.WithError(err).WithField("job_id", job.ID).
			Error("analysis: could not create durable job record")
	}
}

func (s *StatusStore) onTransition(job jobx.Job) {
	if !isAnalysisJobType(job.Type) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), durableWriteTimeout)
	defer cancel()

	patch := RecordPatch{
		Status:      &job.Status,
		Progress:    &job.Progress,
		Error:       &job.Error,
		CompletedAt: job.CompletedAt,
	}
	if job.Result != nil {
		patch.Result = job.Result
	}
	if err := s.records.Update(ctx, job.ID, patch); err != nil {
		logx.WithError(err).WithFields(logx.Fields{"job_id": job.ID, "status": job.Status}).
			Error("analysis: could not update durable job record")
	}
}

// recordFromJob projects an engine snapshot into the durable shape,
// denormalizing the submission context out of the payload.
func recordFromJob(job jobx.Job) Record {
	record := Record{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		Result:      job.Result,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
	}

	switch job.Type {
	case JobTypeAnalyzeDocument:
		var p AnalyzePayload
		if json.Unmarshal(job.Payload, &p) == nil {
			record.DocumentRef = p.DocumentRef
			record.ContentKind = p.ContentKind
			record.CourseID = p.CourseID
			record.CourseContext = p.CourseContext
		}
	case JobTypeExtractText:
		var p ExtractTextPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			record.DocumentRef = p.DocumentRef
			record.ContentKind = p.ContentKind
		}
	case JobTypeUpdateIndex:
		var p UpdateIndexPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			record.DocumentRef = p.DocumentRef
		}
	}
	return record
}

func isAnalysisJobType(jobType string) bool {
	switch jobType {
	case JobTypeAnalyzeDocument, JobTypeExtractText, JobTypeExtractQuestions,
		JobTypeIdentifyConcepts, JobTypeUpdateIndex:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	var xe *errx.Error
	return errx.As(err, &xe) && xe.Type == errx.TypeNotFound
}
