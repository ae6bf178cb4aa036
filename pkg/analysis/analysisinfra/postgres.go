package analysisinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Abraxas-365/lectio/pkg/analysis"
	"github.com/Abraxas-365/lectio/pkg/errx"
)

var pgErrors = errx.NewRegistry("ANALYSIS_PG")

var (
	ErrPGQuery  = pgErrors.Register("QUERY", errx.TypeExternal, 502, "Database query failed")
	ErrPGInsert = pgErrors.Register("INSERT", errx.TypeExternal, 502, "Database insert failed")
)

// PostgresConceptStore is the domain concept layer. Expected schema:
//
//	CREATE TABLE course_concepts (
//	    id          UUID PRIMARY KEY,
//	    course_id   TEXT NOT NULL,
//	    name        TEXT NOT NULL,
//	    category    TEXT NOT NULL DEFAULT '',
//	    description TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE UNIQUE INDEX course_concepts_name_uq
//	    ON course_concepts (course_id, lower(name));
//
// The unique index is what makes FindOrCreate race-free: two jobs creating
// the same concept concurrently converge on one row through the upsert.
type PostgresConceptStore struct {
	db *sqlx.DB
}

// NewPostgresConceptStore builds the store on an existing connection pool.
func NewPostgresConceptStore(db *sqlx.DB) *PostgresConceptStore {
	return &PostgresConceptStore{db: db}
}

func (s *PostgresConceptStore) ListByCourse(ctx context.Context, courseID string) ([]analysis.Concept, error) {
	const query = `
		SELECT id, course_id, name, category, description
		FROM course_concepts
		WHERE course_id = $1
		ORDER BY name`

	var concepts []analysis.Concept
	if err := s.db.SelectContext(ctx, &concepts, query, courseID); err != nil {
		return nil, pgErrors.NewWithCause(ErrPGQuery, err).WithDetail("course_id", courseID)
	}
	return concepts, nil
}

func (s *PostgresConceptStore) FindOrCreate(ctx context.Context, courseID string, candidate analysis.CandidateConcept) (analysis.Concept, error) {
	// The no-op DO UPDATE makes RETURNING yield the surviving row on
	// conflict, so both racers get the same concept back.
	const query = `
		INSERT INTO course_concepts (id, course_id, name, category, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (course_id, lower(name))
		DO UPDATE SET name = course_concepts.name
		RETURNING id, course_id, name, category, description`

	var concept analysis.Concept
	err := s.db.GetContext(ctx, &concept, query,
		uuid.NewString(), courseID, candidate.Name, candidate.Category, candidate.Description)
	if err != nil {
		return analysis.Concept{}, pgErrors.NewWithCause(ErrPGInsert, err).
			WithDetail("course_id", courseID).
			WithDetail("name", candidate.Name)
	}
	return concept, nil
}

// PostgresDocumentIndexStore persists the searchable preview. Expected
// schema:
//
//	CREATE TABLE document_search (
//	    document_ref TEXT PRIMARY KEY,
//	    preview      TEXT NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE document_concepts (
//	    document_ref TEXT NOT NULL,
//	    concept_id   UUID NOT NULL REFERENCES course_concepts (id),
//	    PRIMARY KEY (document_ref, concept_id)
//	);
type PostgresDocumentIndexStore struct {
	db *sqlx.DB
}

// NewPostgresDocumentIndexStore builds the store on an existing pool.
func NewPostgresDocumentIndexStore(db *sqlx.DB) *PostgresDocumentIndexStore {
	return &PostgresDocumentIndexStore{db: db}
}

func (s *PostgresDocumentIndexStore) UpdateSearchText(ctx context.Context, documentRef, preview string, conceptIDs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return pgErrors.NewWithCause(ErrPGQuery, err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO document_search (document_ref, preview, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (document_ref)
		DO UPDATE SET preview = EXCLUDED.preview, updated_at = now()`
	if _, err := tx.ExecContext(ctx, upsert, documentRef, preview); err != nil {
		return pgErrors.NewWithCause(ErrPGInsert, err).WithDetail("ref", documentRef)
	}

	// Re-analysis replaces the document's concept links wholesale.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_concepts WHERE document_ref = $1`, documentRef); err != nil {
		return pgErrors.NewWithCause(ErrPGQuery, err).WithDetail("ref", documentRef)
	}
	for _, conceptID := range conceptIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_concepts (document_ref, concept_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, documentRef, conceptID); err != nil {
			return pgErrors.NewWithCause(ErrPGInsert, err).WithDetail("ref", documentRef)
		}
	}

	if err := tx.Commit(); err != nil {
		return pgErrors.NewWithCause(ErrPGInsert, err).WithDetail("ref", documentRef)
	}
	return nil
}

// ConceptByName looks a concept up by exact name, mostly for diagnostics.
func (s *PostgresConceptStore) ConceptByName(ctx context.Context, courseID, name string) (analysis.Concept, bool, error) {
	const query = `
		SELECT id, course_id, name, category, description
		FROM course_concepts
		WHERE course_id = $1 AND lower(name) = lower($2)`

	var concept analysis.Concept
	err := s.db.GetContext(ctx, &concept, query, courseID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.Concept{}, false, nil
	}
	if err != nil {
		return analysis.Concept{}, false, pgErrors.NewWithCause(ErrPGQuery, err)
	}
	return concept, true, nil
}
