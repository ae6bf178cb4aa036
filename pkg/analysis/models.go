// Package analysis turns an uploaded document into structured study content:
// extracted text, segmented questions, reconciled concepts and a searchable
// preview. Work runs as jobs on a jobx.Engine; callers submit and poll a
// durable record that outlives the engine's in-memory state.
package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/lectio/pkg/jobx"
)

// Job types handled by this package. AnalyzeDocument is the orchestrator;
// the others run a single stage standalone.
const (
	JobTypeAnalyzeDocument  = "ANALYZE_DOCUMENT"
	JobTypeExtractText      = "EXTRACT_TEXT"
	JobTypeExtractQuestions = "EXTRACT_QUESTIONS"
	JobTypeIdentifyConcepts = "IDENTIFY_CONCEPTS"
	JobTypeUpdateIndex      = "UPDATE_INDEX"
)

// ContentKind is the caller-declared shape of the document bytes.
type ContentKind string

const (
	ContentKindPDF   ContentKind = "pdf"
	ContentKindImage ContentKind = "image"
	ContentKindText  ContentKind = "text"
)

// Valid reports whether the kind is one this pipeline can process.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentKindPDF, ContentKindImage, ContentKindText:
		return true
	}
	return false
}

// AnalyzePayload is the orchestrator's input: where the document lives, what
// it is, and which course it belongs to.
type AnalyzePayload struct {
	DocumentRef   string      `json:"document_ref"`
	ContentKind   ContentKind `json:"content_kind"`
	CourseID      string      `json:"course_id"`
	CourseContext string      `json:"course_context,omitempty"`
}

// ExtractTextPayload runs Stage A standalone.
type ExtractTextPayload struct {
	DocumentRef string      `json:"document_ref"`
	ContentKind ContentKind `json:"content_kind"`
}

// ExtractQuestionsPayload runs Stage B standalone on already-extracted text.
type ExtractQuestionsPayload struct {
	Text          string `json:"text"`
	CourseContext string `json:"course_context,omitempty"`
}

// IdentifyConceptsPayload runs Stage C standalone.
type IdentifyConceptsPayload struct {
	Questions     []Question `json:"questions"`
	CourseID      string     `json:"course_id"`
	CourseContext string     `json:"course_context,omitempty"`
}

// UpdateIndexPayload runs Stage D standalone.
type UpdateIndexPayload struct {
	DocumentRef string         `json:"document_ref"`
	Text        string         `json:"text"`
	Concepts    []ConceptMatch `json:"concepts,omitempty"`
}

// DecodePayload parses raw into the payload struct for jobType. The switch
// is exhaustive over the job types above; an unknown type is a validation
// error, not a silent pass-through.
func DecodePayload(jobType string, raw json.RawMessage) (any, error) {
	decode := func(dst any) (any, error) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, analysisErrors.NewWithCause(ErrInvalidPayload, err).WithDetail("type", jobType)
		}
		return dst, nil
	}

	switch jobType {
	case JobTypeAnalyzeDocument:
		return decode(&AnalyzePayload{})
	case JobTypeExtractText:
		return decode(&ExtractTextPayload{})
	case JobTypeExtractQuestions:
		return decode(&ExtractQuestionsPayload{})
	case JobTypeIdentifyConcepts:
		return decode(&IdentifyConceptsPayload{})
	case JobTypeUpdateIndex:
		return decode(&UpdateIndexPayload{})
	default:
		return nil, analysisErrors.New(ErrInvalidPayload).
			WithDetail("type", jobType).
			WithDetail("reason", "unknown job type")
	}
}

// Question is one extracted exam or exercise question.
type Question struct {
	Text       string `json:"text"`
	Ordinal    int    `json:"ordinal"`
	Points     int    `json:"points,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// CandidateConcept is a concept proposed by the concept service for one
// question, before reconciliation against the course's existing concepts.
type CandidateConcept struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Concept origin after reconciliation.
const (
	ConceptOriginExisting = "existing"
	ConceptOriginNew      = "new"
)

// ConceptMatch is a reconciled concept. An "existing" match carries the
// canonical name, category and id of the course concept it matched; a "new"
// match keeps the candidate's fields.
type ConceptMatch struct {
	ConceptID   string  `json:"concept_id,omitempty"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Origin      string  `json:"origin"`
}

// Concept is a course concept as stored in the domain concept store.
type Concept struct {
	ID          string `json:"id" db:"id"`
	CourseID    string `json:"course_id" db:"course_id"`
	Name        string `json:"name" db:"name"`
	Category    string `json:"category,omitempty" db:"category"`
	Description string `json:"description,omitempty" db:"description"`
}

// Question extraction sources, recorded so consumers can judge quality.
const (
	QuestionSourceLLM     = "llm"
	QuestionSourcePattern = "pattern"
	QuestionSourceLines   = "lines"
)

// Extraction is Stage A's output.
type Extraction struct {
	Text           string `json:"text"`
	Pages          int    `json:"pages,omitempty"`
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// AnalysisResult is the orchestrator's success payload. Degradation is
// surfaced here rather than hidden so consumers can decide how much to trust
// the output.
type AnalysisResult struct {
	DocumentRef        string         `json:"document_ref"`
	ContentKind        ContentKind    `json:"content_kind"`
	Pages              int            `json:"pages,omitempty"`
	QuestionsExtracted int            `json:"questions_extracted"`
	Questions          []Question     `json:"questions"`
	QuestionSource     string         `json:"question_source"`
	Concepts           []ConceptMatch `json:"concepts"`
	ConceptsExisting   int            `json:"concepts_existing"`
	ConceptsNew        int            `json:"concepts_new"`
	PreviewLength      int            `json:"preview_length"`
	Degraded           bool           `json:"degraded"`
	DegradedReasons    []string       `json:"degraded_reasons,omitempty"`
}

// Record is the durable, caller-queryable projection of a job. It carries
// the submission context so callers do not have to join against anything
// else to know what a job was analyzing.
type Record struct {
	JobID         string          `json:"job_id"`
	Status        jobx.Status     `json:"status"`
	Progress      int             `json:"progress"`
	DocumentRef   string          `json:"document_ref"`
	ContentKind   ContentKind     `json:"content_kind"`
	CourseID      string          `json:"course_id,omitempty"`
	CourseContext string          `json:"course_context,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// RecordPatch is a partial durable update; nil fields are left untouched.
type RecordPatch struct {
	Status      *jobx.Status
	Progress    *int
	Result      json.RawMessage
	Error       *string
	CompletedAt *time.Time
}

// Apply copies the patch onto r and bumps UpdatedAt.
func (p RecordPatch) Apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Progress != nil {
		r.Progress = *p.Progress
	}
	if p.Result != nil {
		r.Result = p.Result
	}
	if p.Error != nil {
		r.Error = *p.Error
	}
	if p.CompletedAt != nil {
		r.CompletedAt = p.CompletedAt
	}
	r.UpdatedAt = time.Now().UTC()
}

func (r Record) String() string {
	return fmt.Sprintf("analysis job %s [%s %d%%]", r.JobID, r.Status, r.Progress)
}
