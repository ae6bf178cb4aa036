package analysis_test

import (
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/lectio/pkg/analysis"
)

const samplePage = "1. Explain the difference between supervised and unsupervised learning algorithms."

func TestExtractor_PDFPerPageProgress(t *testing.T) {
	files := fakeFiles{"exam.pdf": []byte("%PDF")}
	pages := []string{samplePage, samplePage, samplePage, samplePage}
	extractor := analysis.NewExtractor(files, fakePDF{pages: pages}, nil, analysis.Config{})

	var reported []int
	extraction, err := extractor.Extract(context.Background(), "exam.pdf", analysis.ContentKindPDF, func(p int) {
		reported = append(reported, p)
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if extraction.Pages != 4 {
		t.Fatalf("expected 4 pages, got %d", extraction.Pages)
	}

	// One discrete increment per page, proportional to page count.
	var pageSteps []int
	for _, p := range reported {
		if p > 10 && p <= 90 {
			pageSteps = append(pageSteps, p)
		}
	}
	if len(pageSteps) < 4 {
		t.Fatalf("expected at least 4 per-page progress reports, got %v", reported)
	}
	for i := 1; i < len(pageSteps); i++ {
		if pageSteps[i] < pageSteps[i-1] {
			t.Fatalf("page progress regressed: %v", pageSteps)
		}
	}
}

func TestExtractor_PDFParseFailureIsFatal(t *testing.T) {
	files := fakeFiles{"broken.pdf": []byte("junk")}
	extractor := analysis.NewExtractor(files, fakePDF{err: errUnavailable}, nil, analysis.Config{})

	_, err := extractor.Extract(context.Background(), "broken.pdf", analysis.ContentKindPDF, nil)
	if err == nil {
		t.Fatal("expected PDF parse failure to be fatal")
	}
}

func TestExtractor_MissingDocumentIsFatal(t *testing.T) {
	extractor := analysis.NewExtractor(fakeFiles{}, fakePDF{}, nil, analysis.Config{})

	_, err := extractor.Extract(context.Background(), "nowhere.pdf", analysis.ContentKindPDF, nil)
	if err == nil {
		t.Fatal("expected fetch failure to be fatal")
	}
}

func TestExtractor_OCRFailureDegradesToPlaceholder(t *testing.T) {
	files := fakeFiles{"scan.png": []byte("pixels")}
	extractor := analysis.NewExtractor(files, fakePDF{}, fakeOCR{err: errUnavailable}, analysis.Config{})

	extraction, err := extractor.Extract(context.Background(), "scan.png", analysis.ContentKindImage, nil)
	if err != nil {
		t.Fatalf("OCR failure must not abort the stage: %v", err)
	}
	if !extraction.Degraded {
		t.Fatal("expected degraded extraction")
	}
	if extraction.Text == "" {
		t.Fatal("expected non-empty placeholder text")
	}
}

func TestExtractor_ShortOCROutputIsReplaced(t *testing.T) {
	files := fakeFiles{"scan.png": []byte("pixels")}
	extractor := analysis.NewExtractor(files, fakePDF{}, fakeOCR{text: "a3 xq"}, analysis.Config{MinTextLength: 50})

	extraction, err := extractor.Extract(context.Background(), "scan.png", analysis.ContentKindImage, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !extraction.Degraded {
		t.Fatal("expected short garbled output to be flagged degraded")
	}
	if strings.Contains(extraction.Text, "a3 xq") {
		t.Fatalf("garbled output should be replaced, got %q", extraction.Text)
	}
}

func TestExtractor_PlainText(t *testing.T) {
	content := "1. Describe the role of the operating system scheduler in process management."
	files := fakeFiles{"notes.txt": []byte(content)}
	extractor := analysis.NewExtractor(files, fakePDF{}, nil, analysis.Config{})

	extraction, err := extractor.Extract(context.Background(), "notes.txt", analysis.ContentKindText, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if extraction.Degraded {
		t.Fatalf("unexpected degradation: %+v", extraction)
	}
	if extraction.Text != content {
		t.Fatalf("text mangled: %q", extraction.Text)
	}
}

func TestExtractor_UnsupportedKind(t *testing.T) {
	files := fakeFiles{"doc.bin": []byte("data")}
	extractor := analysis.NewExtractor(files, fakePDF{}, nil, analysis.Config{})

	_, err := extractor.Extract(context.Background(), "doc.bin", analysis.ContentKind("spreadsheet"), nil)
	if err == nil {
		t.Fatal("expected unsupported kind to fail")
	}
}
