package analysis

import (
	"context"
)

// PDFExtractor parses PDF bytes into per-page plain text. Pages come back in
// document order; a PDF with no extractable text layer is a parse error, not
// an empty success.
type PDFExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// QuestionService is the generative extraction backend: normalized text plus
// a short course context in, structured questions out. It may be unavailable;
// callers keep the pattern segmenter ready as a fallback.
type QuestionService interface {
	ExtractQuestions(ctx context.Context, text, courseContext string) ([]Question, error)
}

// ConceptService proposes candidate concepts for one question.
type ConceptService interface {
	SuggestConcepts(ctx context.Context, questionText, courseContext string) ([]CandidateConcept, error)
}

// ConceptStore is the domain concept layer. FindOrCreate must be safe under
// concurrent calls for the same (course, name): two jobs analyzing documents
// of the same course may race on concept creation, and both must converge on
// one row.
type ConceptStore interface {
	ListByCourse(ctx context.Context, courseID string) ([]Concept, error)
	FindOrCreate(ctx context.Context, courseID string, candidate CandidateConcept) (Concept, error)
}

// DocumentIndexStore persists the searchable representation of a document.
// The preview-text form is a stand-in for a real index and is the extension
// point for one.
type DocumentIndexStore interface {
	UpdateSearchText(ctx context.Context, documentRef, preview string, conceptIDs []string) error
}

// RecordStore holds durable job records. Save upserts the full record;
// Update patches an existing one and returns a not-found error when the
// record was never created.
type RecordStore interface {
	Save(ctx context.Context, record Record) error
	Update(ctx context.Context, jobID string, patch RecordPatch) error
	Get(ctx context.Context, jobID string) (Record, error)
}
