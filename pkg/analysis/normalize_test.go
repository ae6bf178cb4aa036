package analysis_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/lectio/pkg/analysis"
)

func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	got := analysis.NormalizeText("one   two\t\tthree")
	if got != "one two three" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
}

func TestNormalizeText_KeepsLineStructure(t *testing.T) {
	got := analysis.NormalizeText("1. first question\n\n\n2. second question")
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("expected blank lines collapsed to one boundary, got %q", got)
	}
	lines := strings.Split(got, "\n")
	if !strings.HasPrefix(lines[1], "2.") {
		t.Fatalf("line structure lost: %q", got)
	}
}

func TestNormalizeText_StripsControlCharacters(t *testing.T) {
	got := analysis.NormalizeText("clean\x00\x07 text\x1b")
	if got != "clean text" {
		t.Fatalf("control characters survived: %q", got)
	}
}

func TestNormalizeText_FixesOCRConfusions(t *testing.T) {
	got := analysis.NormalizeText("deﬁne “scope” — it’s important")
	if got != `define "scope" - it's important` {
		t.Fatalf("OCR confusions not mapped: %q", got)
	}
}

func TestNormalizeText_Empty(t *testing.T) {
	if got := analysis.NormalizeText("   \n \t "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
