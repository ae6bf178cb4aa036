// Package analysisinfra provides the storage adapters behind the analysis
// ports: Redis for durable job records, Postgres for concepts and the
// document index, and in-memory stand-ins for tests and local development.
package analysisinfra

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/errx"
)

// MemoryRecordStore keeps durable records in a map. Same contract as the
// Redis store, minus the durability.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]analysis.Record
}

// NewMemoryRecordStore builds an empty store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]analysis.Record)}
}

func (s *MemoryRecordStore) Save(ctx context.Context, record analysis.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.JobID] = record
	return nil
}

func (s *MemoryRecordStore) Update(ctx context.Context, jobID string, patch analysis.RecordPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[jobID]
	if !ok {
		return errx.NotFound("job record not found").WithDetail("job_id", jobID)
	}
	patch.Apply(&record)
	s.records[jobID] = record
	return nil
}

func (s *MemoryRecordStore) Get(ctx context.Context, jobID string) (analysis.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[jobID]
	if !ok {
		return analysis.Record{}, errx.NotFound("job record not found").WithDetail("job_id", jobID)
	}
	return record, nil
}

// MemoryConceptStore is the in-memory concept layer for tests and dev.
type MemoryConceptStore struct {
	mu       sync.Mutex
	byCourse map[string][]analysis.Concept
}

// NewMemoryConceptStore builds an empty store, optionally seeded.
func NewMemoryConceptStore(seed ...analysis.Concept) *MemoryConceptStore {
	s := &MemoryConceptStore{byCourse: make(map[string][]analysis.Concept)}
	for _, c := range seed {
		s.byCourse[c.CourseID] = append(s.byCourse[c.CourseID], c)
	}
	return s
}

func (s *MemoryConceptStore) ListByCourse(ctx context.Context, courseID string) ([]analysis.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	concepts := s.byCourse[courseID]
	out := make([]analysis.Concept, len(concepts))
	copy(out, concepts)
	return out, nil
}

func (s *MemoryConceptStore) FindOrCreate(ctx context.Context, courseID string, candidate analysis.CandidateConcept) (analysis.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(strings.TrimSpace(candidate.Name))
	for _, c := range s.byCourse[courseID] {
		if strings.ToLower(c.Name) == name {
			return c, nil
		}
	}

	concept := analysis.Concept{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Name:        strings.TrimSpace(candidate.Name),
		Category:    candidate.Category,
		Description: candidate.Description,
	}
	s.byCourse[courseID] = append(s.byCourse[courseID], concept)
	return concept, nil
}

// MemoryDocumentIndexStore records the last indexed preview per document.
type MemoryDocumentIndexStore struct {
	mu       sync.Mutex
	previews map[string]string
	concepts map[string][]string
}

// NewMemoryDocumentIndexStore builds an empty index.
func NewMemoryDocumentIndexStore() *MemoryDocumentIndexStore {
	return &MemoryDocumentIndexStore{
		previews: make(map[string]string),
		concepts: make(map[string][]string),
	}
}

func (s *MemoryDocumentIndexStore) UpdateSearchText(ctx context.Context, documentRef, preview string, conceptIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews[documentRef] = preview
	s.concepts[documentRef] = append([]string(nil), conceptIDs...)
	return nil
}

// Preview returns the stored preview for a document, for inspection.
func (s *MemoryDocumentIndexStore) Preview(documentRef string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, ok := s.previews[documentRef]
	return preview, ok
}
