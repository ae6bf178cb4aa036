package analysis_test

import (
	"testing"

	"github.com/Abraxas-365/lectio/pkg/analysis"
)

var courseConcepts = []analysis.Concept{
	{ID: "c-1", CourseID: "cs101", Name: "Object-Oriented Programming", Category: "Paradigms", Description: "Programming with objects."},
	{ID: "c-2", CourseID: "cs101", Name: "Binary Search Tree", Category: "Data Structures"},
	{ID: "c-3", CourseID: "cs101", Name: "Recursion", Category: "Techniques"},
}

func TestReconcileConcept_ExactMatchCaseInsensitive(t *testing.T) {
	match := analysis.ReconcileConcept(analysis.CandidateConcept{
		Name:       "recursion",
		Category:   "Something Else",
		Confidence: 0.8,
	}, courseConcepts)

	if match.Origin != analysis.ConceptOriginExisting {
		t.Fatalf("expected existing, got %s", match.Origin)
	}
	if match.ConceptID != "c-3" {
		t.Fatalf("expected c-3, got %s", match.ConceptID)
	}
	// Canonical name and category win over the candidate's.
	if match.Name != "Recursion" || match.Category != "Techniques" {
		t.Fatalf("canonical fields not reused: %+v", match)
	}
	if match.Confidence != 0.8 {
		t.Fatalf("candidate confidence lost: %+v", match)
	}
}

func TestReconcileConcept_SubstringMatch(t *testing.T) {
	match := analysis.ReconcileConcept(analysis.CandidateConcept{Name: "binary search"}, courseConcepts)

	if match.Origin != analysis.ConceptOriginExisting {
		t.Fatalf("expected existing for substring match, got %s", match.Origin)
	}
	if match.ConceptID != "c-2" || match.Name != "Binary Search Tree" {
		t.Fatalf("substring match reused wrong concept: %+v", match)
	}
	if match.Category != "Data Structures" {
		t.Fatalf("expected canonical category, got %q", match.Category)
	}
}

func TestReconcileConcept_ExistingNameInsideCandidate(t *testing.T) {
	match := analysis.ReconcileConcept(analysis.CandidateConcept{Name: "Tail Recursion"}, courseConcepts)

	// "Recursion" is a substring of the candidate; the match works in both
	// directions.
	if match.Origin != analysis.ConceptOriginExisting || match.ConceptID != "c-3" {
		t.Fatalf("reverse substring match failed: %+v", match)
	}
}

func TestReconcileConcept_NewConcept(t *testing.T) {
	match := analysis.ReconcileConcept(analysis.CandidateConcept{
		Name:        "Dynamic Programming",
		Category:    "Techniques",
		Description: "Solving problems via overlapping subproblems.",
		Confidence:  0.95,
	}, courseConcepts)

	if match.Origin != analysis.ConceptOriginNew {
		t.Fatalf("expected new, got %s", match.Origin)
	}
	if match.ConceptID != "" {
		t.Fatalf("new concept must not carry an id yet: %+v", match)
	}
	if match.Name != "Dynamic Programming" || match.Category != "Techniques" {
		t.Fatalf("candidate fields lost: %+v", match)
	}
}

func TestReconcileConcept_ExactBeatsSubstring(t *testing.T) {
	concepts := append([]analysis.Concept{
		{ID: "c-9", CourseID: "cs101", Name: "Search"},
	}, courseConcepts...)

	match := analysis.ReconcileConcept(analysis.CandidateConcept{Name: "search"}, concepts)
	if match.ConceptID != "c-9" {
		t.Fatalf("exact match should win over substring, got %+v", match)
	}
}

func TestReconcileConcept_EmptySnapshot(t *testing.T) {
	match := analysis.ReconcileConcept(analysis.CandidateConcept{Name: "Anything"}, nil)
	if match.Origin != analysis.ConceptOriginNew {
		t.Fatalf("expected new with empty snapshot, got %s", match.Origin)
	}
}
