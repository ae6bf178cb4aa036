package analysis_test

import (
	"testing"

	"github.com/Abraxas-365/lectio/pkg/analysis"
)

func TestSegmentQuestions_DotNumbering(t *testing.T) {
	text := "1. Explain the difference between a process and a thread. (10 marks)\n" +
		"2. What is a deadlock and how can it be prevented\n" +
		"in a multi-threaded program?\n" +
		"3. Describe the banker's algorithm with an example."

	questions, source := analysis.SegmentQuestions(text)
	if source != analysis.QuestionSourcePattern {
		t.Fatalf("expected pattern source, got %s", source)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d: %+v", len(questions), questions)
	}
	if questions[0].Ordinal != 1 || questions[0].Points != 10 {
		t.Fatalf("first question parsed wrong: %+v", questions[0])
	}
	// Continuation lines merge into the introducing question.
	if questions[1].Text != "What is a deadlock and how can it be prevented in a multi-threaded program?" {
		t.Fatalf("continuation line not merged: %q", questions[1].Text)
	}
}

func TestSegmentQuestions_ParenNumbering(t *testing.T) {
	text := "1) Define polymorphism and give a concrete example.\n" +
		"2) Compare inheritance and composition. (5 marks)"

	questions, source := analysis.SegmentQuestions(text)
	if source != analysis.QuestionSourcePattern {
		t.Fatalf("expected pattern source, got %s", source)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[1].Points != 5 {
		t.Fatalf("expected 5 points, got %d", questions[1].Points)
	}
}

func TestSegmentQuestions_QuestionPrefix(t *testing.T) {
	text := "Question 1: State and prove the pumping lemma for regular languages.\n" +
		"Question 2: Construct a DFA for binary strings divisible by three."

	questions, source := analysis.SegmentQuestions(text)
	if source != analysis.QuestionSourcePattern {
		t.Fatalf("expected pattern source, got %s", source)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d: %+v", len(questions), questions)
	}
	if questions[0].Ordinal != 1 || questions[1].Ordinal != 2 {
		t.Fatalf("ordinals parsed wrong: %+v", questions)
	}
}

func TestSegmentQuestions_FiltersBoilerplateAndNoise(t *testing.T) {
	text := "NATIONAL UNIVERSITY OF EXAMPLE\n" +
		"FINAL EXAMINATION - SEMESTER TWO\n" +
		"1. Short\n" +
		"2. Explain how virtual memory paging interacts with the TLB."

	questions, _ := analysis.SegmentQuestions(text)
	if len(questions) != 1 {
		t.Fatalf("expected noise filtered down to 1 question, got %d: %+v", len(questions), questions)
	}
	if questions[0].Ordinal != 2 {
		t.Fatalf("kept the wrong question: %+v", questions[0])
	}
}

func TestSegmentQuestions_LineFallback(t *testing.T) {
	text := "Explain the CAP theorem in distributed systems.\n" +
		"short line\n" +
		"Describe how consistent hashing distributes load across nodes."

	questions, source := analysis.SegmentQuestions(text)
	if source != analysis.QuestionSourceLines {
		t.Fatalf("expected line-split source, got %s", source)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions from long lines, got %d: %+v", len(questions), questions)
	}
	if questions[0].Ordinal != 1 || questions[1].Ordinal != 2 {
		t.Fatalf("line fallback ordinals wrong: %+v", questions)
	}
}

func TestSegmentQuestions_BlankDocument(t *testing.T) {
	questions, _ := analysis.SegmentQuestions("")
	if len(questions) != 0 {
		t.Fatalf("expected no questions from empty text, got %d", len(questions))
	}

	questions, _ = analysis.SegmentQuestions("\n  \n\t\n")
	if len(questions) != 0 {
		t.Fatalf("expected no questions from blank text, got %d", len(questions))
	}
}
