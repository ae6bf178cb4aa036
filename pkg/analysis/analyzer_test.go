package analysis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/analysis/analysisinfra"
	"github.com/Abraxas-365/lectio/pkg/errx"
	"github.com/Abraxas-365/lectio/pkg/jobx"
)

const examDocument = "NATIONAL UNIVERSITY OF EXAMPLE\n" +
	"1. Explain the difference between a stack and a queue with examples. (10 marks)\n" +
	"2. Describe how binary search achieves logarithmic time complexity.\n" +
	"3. Define recursion and show a base case in a recursive function."

type pipeline struct {
	engine   *jobx.Engine
	service  *analysis.Service
	records  *analysisinfra.MemoryRecordStore
	concepts *analysisinfra.MemoryConceptStore
	index    *analysisinfra.MemoryDocumentIndexStore
}

// newPipeline assembles the full pipeline on in-memory collaborators.
func newPipeline(t *testing.T, files fakeFiles, questions analysis.QuestionService, concepts analysis.ConceptService) *pipeline {
	t.Helper()

	engine := jobx.NewEngine(
		jobx.WithConcurrency(2),
		jobx.WithRetryDelays(5*time.Millisecond, 20*time.Millisecond),
		jobx.WithProgressCadence(5*time.Millisecond),
		jobx.WithShutdownTimeout(2*time.Second),
	)
	t.Cleanup(engine.Stop)

	records := analysisinfra.NewMemoryRecordStore()
	conceptStore := analysisinfra.NewMemoryConceptStore(
		analysis.Concept{ID: "seed-1", CourseID: "cs101", Name: "Binary Search Tree", Category: "Data Structures"},
		analysis.Concept{ID: "seed-2", CourseID: "cs101", Name: "Recursion", Category: "Techniques"},
	)
	index := analysisinfra.NewMemoryDocumentIndexStore()

	status := analysis.NewStatusStore(records, engine)
	extractor := analysis.NewExtractor(files, fakePDF{}, nil, analysis.Config{})
	analyzer := analysis.NewAnalyzer(
		extractor, questions, concepts, conceptStore,
		analysis.NewIndexer(index, 100), status, analysis.Config{},
	)
	analyzer.Register(engine)
	service := analysis.NewService(engine, status)

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return &pipeline{engine: engine, service: service, records: records, concepts: conceptStore, index: index}
}

func (p *pipeline) waitTerminal(t *testing.T, jobID string) analysis.Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, err := p.service.Status(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Status(%s): %v", jobID, err)
		}
		if record.Status.Terminal() {
			return record
		}
		time.Sleep(2 * time.Millisecond)
	}
	record, _ := p.service.Status(context.Background(), jobID)
	t.Fatalf("job %s never reached a terminal state, last: %+v", jobID, record)
	return analysis.Record{}
}

func TestPipeline_PrimaryFailureFallsBackAndCompletes(t *testing.T) {
	files := fakeFiles{"exam.txt": []byte(examDocument)}
	questions := &fakeQuestionService{err: errUnavailable}
	concepts := &fakeConceptService{fn: func(q string) []analysis.CandidateConcept {
		return []analysis.CandidateConcept{
			{Name: "binary search", Confidence: 0.9},
			{Name: "Dynamic Programming", Category: "Techniques", Confidence: 0.7},
		}
	}}
	p := newPipeline(t, files, questions, concepts)

	record, err := p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef:   "exam.txt",
		ContentKind:   analysis.ContentKindText,
		CourseID:      "cs101",
		CourseContext: "Introductory computer science",
	})
	if err != nil {
		t.Fatalf("SubmitAnalysis: %v", err)
	}
	if record.JobID == "" {
		t.Fatal("expected a job id on submit")
	}
	if record.DocumentRef != "exam.txt" || record.CourseID != "cs101" {
		t.Fatalf("submission context not denormalized onto the record: %+v", record)
	}

	final := p.waitTerminal(t, record.JobID)
	if final.Status != jobx.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", final.Status, final.Error)
	}
	if questions.calls == 0 {
		t.Fatal("primary question service was never tried")
	}

	var result analysis.AnalysisResult
	if err := json.Unmarshal(final.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.QuestionsExtracted < 1 {
		t.Fatalf("expected at least one question via fallback, got %d", result.QuestionsExtracted)
	}
	if result.QuestionSource != analysis.QuestionSourcePattern {
		t.Fatalf("expected pattern fallback source, got %s", result.QuestionSource)
	}
	if !result.Degraded {
		t.Fatal("fallback usage must be surfaced as degraded")
	}

	// Substring candidate reconciled onto the seeded course concept.
	var existing *analysis.ConceptMatch
	for i := range result.Concepts {
		if result.Concepts[i].ConceptID == "seed-1" {
			existing = &result.Concepts[i]
		}
	}
	if existing == nil {
		t.Fatalf("expected a match against the seeded concept, got %+v", result.Concepts)
	}
	if existing.Origin != analysis.ConceptOriginExisting || existing.Name != "Binary Search Tree" {
		t.Fatalf("existing match wrong: %+v", existing)
	}

	// New concepts were persisted through find-or-create and carry ids.
	for _, m := range result.Concepts {
		if m.Origin == analysis.ConceptOriginNew && m.ConceptID == "" {
			t.Fatalf("new concept not persisted: %+v", m)
		}
	}

	// Stage D stored a bounded preview.
	preview, ok := p.index.Preview("exam.txt")
	if !ok || preview == "" {
		t.Fatal("document index was not updated")
	}
	if len(preview) > 100 {
		t.Fatalf("preview exceeds bound: %d", len(preview))
	}
	if result.PreviewLength != len(preview) {
		t.Fatalf("result preview length %d != stored %d", result.PreviewLength, len(preview))
	}
}

func TestPipeline_PrimaryQuestionServiceSuccess(t *testing.T) {
	files := fakeFiles{"exam.txt": []byte(examDocument)}
	questions := &fakeQuestionService{questions: []analysis.Question{
		{Text: "Explain the difference between a stack and a queue.", Ordinal: 1, Points: 10, Difficulty: "medium"},
	}}
	p := newPipeline(t, files, questions, &fakeConceptService{})

	record, err := p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef: "exam.txt",
		ContentKind: analysis.ContentKindText,
		CourseID:    "cs101",
	})
	if err != nil {
		t.Fatalf("SubmitAnalysis: %v", err)
	}

	final := p.waitTerminal(t, record.JobID)
	if final.Status != jobx.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", final.Status, final.Error)
	}

	var result analysis.AnalysisResult
	if err := json.Unmarshal(final.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.QuestionSource != analysis.QuestionSourceLLM {
		t.Fatalf("expected llm source, got %s", result.QuestionSource)
	}
	if result.Degraded {
		t.Fatalf("clean run must not be degraded: %+v", result.DegradedReasons)
	}
}

func TestPipeline_FetchFailureFailsJob(t *testing.T) {
	p := newPipeline(t, fakeFiles{}, &fakeQuestionService{}, &fakeConceptService{})

	record, err := p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef: "missing.pdf",
		ContentKind: analysis.ContentKindPDF,
		MaxAttempts: 1,
	})
	if err != nil {
		t.Fatalf("SubmitAnalysis: %v", err)
	}

	final := p.waitTerminal(t, record.JobID)
	if final.Status != jobx.StatusFailed {
		t.Fatalf("expected FAILED, got %s", final.Status)
	}
	if final.Error == "" || final.Result != nil {
		t.Fatalf("failed record must carry an error and no result: %+v", final)
	}
}

func TestPipeline_PreStageFailureStillWritesTerminalRecord(t *testing.T) {
	p := newPipeline(t, fakeFiles{}, &fakeQuestionService{}, &fakeConceptService{})

	// Bypass the service's validation: a payload the orchestrator rejects
	// before any stage starts.
	job, err := p.engine.Submit(analysis.JobTypeAnalyzeDocument, analysis.AnalyzePayload{
		DocumentRef: "doc.bin",
		ContentKind: "spreadsheet",
	}, jobx.WithSubmitMaxAttempts(1))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := p.waitTerminal(t, job.ID)
	if final.Status != jobx.StatusFailed {
		t.Fatalf("expected FAILED, got %s", final.Status)
	}

	// The durable record itself, not just the engine view.
	stored, err := p.records.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("durable record missing after pre-stage failure: %v", err)
	}
	if stored.Status != jobx.StatusFailed || stored.Error == "" {
		t.Fatalf("durable record not terminal: %+v", stored)
	}
}

func TestPipeline_UnknownJobIDIsNotFound(t *testing.T) {
	p := newPipeline(t, fakeFiles{}, &fakeQuestionService{}, &fakeConceptService{})

	_, err := p.service.Status(context.Background(), "job_0_unknown")
	if err == nil {
		t.Fatal("expected not-found for unknown id")
	}
	var xe *errx.Error
	if !errx.As(err, &xe) || xe.Type != errx.TypeNotFound {
		t.Fatalf("expected a typed not-found error, got %v", err)
	}
}

func TestPipeline_ConceptFailuresAreAbsorbed(t *testing.T) {
	files := fakeFiles{"exam.txt": []byte(examDocument)}
	p := newPipeline(t, files, &fakeQuestionService{err: errUnavailable}, &fakeConceptService{err: errUnavailable})

	record, err := p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef: "exam.txt",
		ContentKind: analysis.ContentKindText,
		CourseID:    "cs101",
	})
	if err != nil {
		t.Fatalf("SubmitAnalysis: %v", err)
	}

	final := p.waitTerminal(t, record.JobID)
	if final.Status != jobx.StatusCompleted {
		t.Fatalf("concept failures must not fail the job, got %s (%s)", final.Status, final.Error)
	}

	var result analysis.AnalysisResult
	if err := json.Unmarshal(final.Result, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Concepts) != 0 {
		t.Fatalf("expected zero concepts when every suggestion fails, got %+v", result.Concepts)
	}
}

func TestPipeline_SubmitValidation(t *testing.T) {
	p := newPipeline(t, fakeFiles{}, &fakeQuestionService{}, &fakeConceptService{})

	_, err := p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef: "",
		ContentKind: analysis.ContentKindPDF,
	})
	if err == nil {
		t.Fatal("expected validation error for empty ref")
	}

	_, err = p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef: "doc.xls",
		ContentKind: "spreadsheet",
	})
	var xe *errx.Error
	if !errx.As(err, &xe) || xe.Type != errx.TypeValidation {
		t.Fatalf("expected validation error for bad kind, got %v", err)
	}
}

func TestPipeline_CancelRunningAnalysis(t *testing.T) {
	files := fakeFiles{"exam.txt": []byte(examDocument)}
	started := make(chan struct{})
	release := make(chan struct{})
	questions := &blockingQuestionService{started: started, release: release}
	p := newPipeline(t, files, questions, &fakeConceptService{})

	record, err := p.service.SubmitAnalysis(context.Background(), analysis.SubmitRequest{
		DocumentRef: "exam.txt",
		ContentKind: analysis.ContentKindText,
	})
	if err != nil {
		t.Fatalf("SubmitAnalysis: %v", err)
	}

	<-started
	if err := p.service.Cancel(context.Background(), record.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	close(release)

	final := p.waitTerminal(t, record.JobID)
	if final.Status != jobx.StatusCanceled {
		t.Fatalf("expected CANCELED, got %s (%s)", final.Status, final.Error)
	}
}

// blockingQuestionService parks Stage B until released, then honors ctx.
type blockingQuestionService struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingQuestionService) ExtractQuestions(ctx context.Context, text, courseContext string) ([]analysis.Question, error) {
	close(b.started)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, errUnavailable
}
