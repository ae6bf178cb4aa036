package analysis

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Abraxas-365/lectio/pkg/jobx"
	"github.com/Abraxas-365/lectio/pkg/logx"
)

// Analyzer owns the pipeline stages and registers them as job processors.
// Stages run strictly A→B→C→D inside one job; progress is partitioned so a
// caller's progress bar reflects which stage is active:
//
//	 0–40  text extraction
//	40–60  question extraction
//	60–90  concept identification
//	90–100 index update
type Analyzer struct {
	extractor    *Extractor
	questions    QuestionService
	concepts     ConceptService
	conceptStore ConceptStore
	indexer      *Indexer
	status       *StatusStore
	cfg          Config
}

// NewAnalyzer wires the pipeline. questions, concepts and conceptStore may
// be nil: a nil QuestionService makes Stage B pattern-only, a nil concept
// side makes Stage C a no-op.
func NewAnalyzer(
	extractor *Extractor,
	questions QuestionService,
	concepts ConceptService,
	conceptStore ConceptStore,
	indexer *Indexer,
	status *StatusStore,
	cfg Config,
) *Analyzer {
	return &Analyzer{
		extractor:    extractor,
		questions:    questions,
		concepts:     concepts,
		conceptStore: conceptStore,
		indexer:      indexer,
		status:       status,
		cfg:          cfg.withDefaults(),
	}
}

// Register binds every pipeline job type to the engine.
func (a *Analyzer) Register(engine *jobx.Engine) {
	engine.Register(JobTypeAnalyzeDocument, a.processAnalyze)
	engine.Register(JobTypeExtractText, a.processExtractText)
	engine.Register(JobTypeExtractQuestions, a.processExtractQuestions)
	engine.Register(JobTypeIdentifyConcepts, a.processIdentifyConcepts)
	engine.Register(JobTypeUpdateIndex, a.processUpdateIndex)
}

// processAnalyze is the orchestrator. Any error it returns feeds the
// engine's retry logic; terminal durable writes happen through the status
// store's engine listeners, so even a panic here ends in a FAILED record.
func (a *Analyzer) processAnalyze(ctx context.Context, job *jobx.Handle) (json.RawMessage, error) {
	decoded, err := DecodePayload(JobTypeAnalyzeDocument, job.Payload())
	if err != nil {
		return nil, err
	}
	payload := decoded.(*AnalyzePayload)
	if !payload.ContentKind.Valid() {
		return nil, analysisErrors.New(ErrUnsupportedKind).WithDetail("kind", string(payload.ContentKind))
	}

	log := logx.WithFields(logx.Fields{"job_id": job.ID(), "ref": payload.DocumentRef})

	// Stage A: text extraction, 0-40.
	extraction, err := a.extractor.Extract(ctx, payload.DocumentRef, payload.ContentKind, func(p int) {
		job.SetProgress(p * 40 / 100)
	})
	if err != nil {
		return nil, err
	}
	var degradedReasons []string
	if extraction.Degraded {
		degradedReasons = append(degradedReasons, extraction.DegradedReason)
	}
	job.SetProgress(40)
	a.stageCheckpoint(ctx, job.ID(), 40)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.WithField("length", len(extraction.Text)).Debug("analysis: text extracted")

	// Stage B: question extraction, 40-60.
	questions, source, err := a.extractQuestions(ctx, extraction.Text, payload.CourseContext)
	if err != nil {
		return nil, err
	}
	if source != QuestionSourceLLM {
		degradedReasons = append(degradedReasons, "question extraction used the "+source+" fallback")
	}
	job.SetProgress(60)
	a.stageCheckpoint(ctx, job.ID(), 60)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.WithFields(logx.Fields{"questions": len(questions), "source": source}).
		Debug("analysis: questions extracted")

	// Stage C: concept identification, 60-90.
	matches := a.identifyConcepts(ctx, payload, questions, func(p int) {
		job.SetProgress(p)
	})
	job.SetProgress(90)
	a.stageCheckpoint(ctx, job.ID(), 90)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage D: index update, 90-100.
	previewLen, err := a.indexer.Update(ctx, payload.DocumentRef, extraction.Text, matches)
	if err != nil {
		return nil, err
	}

	existing, newOnes := 0, 0
	for _, m := range matches {
		if m.Origin == ConceptOriginExisting {
			existing++
		} else {
			newOnes++
		}
	}

	result := AnalysisResult{
		DocumentRef:        payload.DocumentRef,
		ContentKind:        payload.ContentKind,
		Pages:              extraction.Pages,
		QuestionsExtracted: len(questions),
		Questions:          questions,
		QuestionSource:     source,
		Concepts:           matches,
		ConceptsExisting:   existing,
		ConceptsNew:        newOnes,
		PreviewLength:      previewLen,
		Degraded:           len(degradedReasons) > 0,
		DegradedReasons:    degradedReasons,
	}
	return json.Marshal(result)
}

// extractQuestions is Stage B: primary generative path, pattern fallback.
// Both paths are success; failing both is fatal to the job.
func (a *Analyzer) extractQuestions(ctx context.Context, text, courseContext string) ([]Question, string, error) {
	if a.questions != nil {
		qctx, cancel := context.WithTimeout(ctx, a.cfg.QuestionTimeout)
		questions, err := a.questions.ExtractQuestions(qctx, text, courseContext)
		cancel()
		if err == nil && len(questions) > 0 {
			return questions, QuestionSourceLLM, nil
		}
		if err != nil {
			logx.WithError(err).Warn("analysis: question service failed, falling back to pattern segmentation")
		}
	}

	questions, source := SegmentQuestions(text)
	if len(questions) == 0 {
		return nil, "", analysisErrors.NewWithMessage(ErrQuestionExtraction,
			"no questions could be extracted by the primary or fallback path")
	}
	return questions, source, nil
}

// identifyConcepts is Stage C. The course's existing concepts are fetched
// once per job, and every per-question failure is absorbed as zero concepts:
// this stage is additive and best-effort. progress receives absolute values
// in the 60-90 band.
func (a *Analyzer) identifyConcepts(ctx context.Context, payload *AnalyzePayload, questions []Question, progress func(int)) []ConceptMatch {
	if a.concepts == nil || len(questions) == 0 {
		return nil
	}

	var snapshot []Concept
	if a.conceptStore != nil && payload.CourseID != "" {
		var err error
		snapshot, err = a.conceptStore.ListByCourse(ctx, payload.CourseID)
		if err != nil {
			logx.WithError(err).WithField("course_id", payload.CourseID).
				Warn("analysis: could not load course concepts, all candidates treated as new")
		}
	}

	byName := make(map[string]ConceptMatch)
	for i, question := range questions {
		if ctx.Err() != nil {
			break
		}

		cctx, cancel := context.WithTimeout(ctx, a.cfg.ConceptTimeout)
		candidates, err := a.concepts.SuggestConcepts(cctx, question.Text, payload.CourseContext)
		cancel()
		if err != nil {
			logx.WithError(err).WithField("ordinal", question.Ordinal).
				Warn("analysis: concept suggestion failed for question, continuing")
			continue
		}

		for _, candidate := range candidates {
			match := ReconcileConcept(candidate, snapshot)
			key := strings.ToLower(match.Name)
			if key == "" {
				continue
			}
			if prev, ok := byName[key]; !ok || match.Confidence > prev.Confidence {
				byName[key] = match
			}
		}
		progress(60 + (i+1)*30/len(questions))
	}

	matches := make([]ConceptMatch, 0, len(byName))
	for _, m := range byName {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	a.persistNewConcepts(ctx, payload.CourseID, matches)
	return matches
}

// persistNewConcepts creates rows for "new" matches so they carry ids into
// the index stage and future reconciliations. Uses find-or-create: two
// concurrent jobs for the same course converge on one row per name.
func (a *Analyzer) persistNewConcepts(ctx context.Context, courseID string, matches []ConceptMatch) {
	if a.conceptStore == nil || courseID == "" {
		return
	}
	for i, m := range matches {
		if m.Origin != ConceptOriginNew {
			continue
		}
		concept, err := a.conceptStore.FindOrCreate(ctx, courseID, CandidateConcept{
			Name:        m.Name,
			Category:    m.Category,
			Description: m.Description,
			Confidence:  m.Confidence,
		})
		if err != nil {
			logx.WithError(err).WithField("name", m.Name).
				Warn("analysis: could not persist concept, leaving it without id")
			continue
		}
		matches[i].ConceptID = concept.ID
	}
}

// stageCheckpoint writes the durable stage-boundary update. Durable write
// volume is bounded to these checkpoints rather than every progress tick.
func (a *Analyzer) stageCheckpoint(ctx context.Context, jobID string, progress int) {
	if a.status == nil {
		return
	}
	if err := a.status.UpdateStage(ctx, jobID, progress); err != nil {
		logx.WithError(err).WithField("job_id", jobID).
			Warn("analysis: durable stage checkpoint failed")
	}
}

// ---------------------------------------------------------------------------
// standalone stage processors
// ---------------------------------------------------------------------------

func (a *Analyzer) processExtractText(ctx context.Context, job *jobx.Handle) (json.RawMessage, error) {
	decoded, err := DecodePayload(JobTypeExtractText, job.Payload())
	if err != nil {
		return nil, err
	}
	payload := decoded.(*ExtractTextPayload)
	if !payload.ContentKind.Valid() {
		return nil, analysisErrors.New(ErrUnsupportedKind).WithDetail("kind", string(payload.ContentKind))
	}

	extraction, err := a.extractor.Extract(ctx, payload.DocumentRef, payload.ContentKind, job.SetProgress)
	if err != nil {
		return nil, err
	}
	return json.Marshal(extraction)
}

func (a *Analyzer) processExtractQuestions(ctx context.Context, job *jobx.Handle) (json.RawMessage, error) {
	decoded, err := DecodePayload(JobTypeExtractQuestions, job.Payload())
	if err != nil {
		return nil, err
	}
	payload := decoded.(*ExtractQuestionsPayload)

	questions, source, err := a.extractQuestions(ctx, NormalizeText(payload.Text), payload.CourseContext)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Questions []Question `json:"questions"`
		Source    string     `json:"source"`
	}{questions, source})
}

func (a *Analyzer) processIdentifyConcepts(ctx context.Context, job *jobx.Handle) (json.RawMessage, error) {
	decoded, err := DecodePayload(JobTypeIdentifyConcepts, job.Payload())
	if err != nil {
		return nil, err
	}
	payload := decoded.(*IdentifyConceptsPayload)

	matches := a.identifyConcepts(ctx, &AnalyzePayload{
		CourseID:      payload.CourseID,
		CourseContext: payload.CourseContext,
	}, payload.Questions, func(p int) {
		// Remap the orchestrator's 60-90 band onto this job's full range.
		job.SetProgress((p - 60) * 100 / 30)
	})
	return json.Marshal(struct {
		Concepts []ConceptMatch `json:"concepts"`
	}{matches})
}

func (a *Analyzer) processUpdateIndex(ctx context.Context, job *jobx.Handle) (json.RawMessage, error) {
	decoded, err := DecodePayload(JobTypeUpdateIndex, job.Payload())
	if err != nil {
		return nil, err
	}
	payload := decoded.(*UpdateIndexPayload)

	previewLen, err := a.indexer.Update(ctx, payload.DocumentRef, payload.Text, payload.Concepts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		PreviewLength int `json:"preview_length"`
	}{previewLen})
}
