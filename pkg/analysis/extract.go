package analysis

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Abraxas-365/lectio/pkg/ai/ocr"
	"github.com/Abraxas-365/lectio/pkg/fsx"
	"github.com/Abraxas-365/lectio/pkg/logx"
)

// unreliableTextPlaceholder stands in for extracted text when OCR failed or
// produced output too short to trust. Downstream stages keep running; the
// result is flagged degraded so consumers know the quality floor.
const unreliableTextPlaceholder = "Text extraction was unreliable for this document. " +
	"The content could not be read with sufficient confidence; analysis results " +
	"below are based on incomplete input."

// Extractor is Stage A: fetch the document bytes and turn them into
// normalized plain text.
type Extractor struct {
	files fsx.FileReader
	pdf   PDFExtractor
	ocr   ocr.TextRecognizer
	cfg   Config
}

// NewExtractor builds a Stage A extractor. pdfExtractor may be nil to use
// the built-in parser.
func NewExtractor(files fsx.FileReader, pdfExtractor PDFExtractor, recognizer ocr.TextRecognizer, cfg Config) *Extractor {
	if pdfExtractor == nil {
		pdfExtractor = PDFTextExtractor{}
	}
	return &Extractor{files: files, pdf: pdfExtractor, ocr: recognizer, cfg: cfg.withDefaults()}
}

// Extract fetches ref and extracts text according to kind. progress, if
// non-nil, receives values in [0,100] scoped to this stage. Fetch and parse
// failures are fatal; OCR failure and too-short output degrade to a
// placeholder instead.
func (e *Extractor) Extract(ctx context.Context, ref string, kind ContentKind, progress func(int)) (Extraction, error) {
	if progress == nil {
		progress = func(int) {}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	data, err := e.files.ReadFile(fetchCtx, ref)
	cancel()
	if err != nil {
		return Extraction{}, analysisErrors.NewWithCause(ErrDocumentFetch, err).WithDetail("ref", ref)
	}
	progress(10)

	var out Extraction
	switch kind {
	case ContentKindPDF:
		out, err = e.extractPDF(ctx, data, progress)
		if err != nil {
			return Extraction{}, err
		}
	case ContentKindImage:
		out = e.extractImage(ctx, ref, data)
	case ContentKindText:
		out = Extraction{Text: string(data)}
	default:
		return Extraction{}, analysisErrors.New(ErrUnsupportedKind).WithDetail("kind", string(kind))
	}
	progress(90)

	out.Text = NormalizeText(out.Text)
	if len(out.Text) < e.cfg.MinTextLength {
		// Short garbled output poisons every later stage; an explicit
		// unreliable signal is more useful downstream.
		logx.WithFields(logx.Fields{"ref": ref, "length": len(out.Text)}).
			Warn("analysis: extracted text below reliability threshold, substituting placeholder")
		out.Text = unreliableTextPlaceholder
		out.Degraded = true
		if out.DegradedReason == "" {
			out.DegradedReason = "extracted text below minimum reliable length"
		}
	}
	progress(100)
	return out, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte, progress func(int)) (Extraction, error) {
	pdfCtx, cancel := context.WithTimeout(ctx, e.cfg.PDFTimeout)
	defer cancel()

	pages, err := e.pdf.ExtractPages(pdfCtx, data)
	if err != nil {
		return Extraction{}, analysisErrors.NewWithCause(ErrTextExtraction, err)
	}
	if len(pages) == 0 {
		return Extraction{}, analysisErrors.NewWithMessage(ErrTextExtraction, "PDF has no extractable pages")
	}

	var b strings.Builder
	for i, page := range pages {
		if err := pdfCtx.Err(); err != nil {
			return Extraction{}, analysisErrors.NewWithCause(ErrTextExtraction, err)
		}
		b.WriteString(page)
		b.WriteByte('\n')
		// Proportional per-page progress inside this stage's 10-90 band.
		progress(10 + (i+1)*80/len(pages))
	}
	return Extraction{Text: b.String(), Pages: len(pages)}, nil
}

// extractImage never fails the stage: OCR errors and empty results degrade
// to the placeholder.
func (e *Extractor) extractImage(ctx context.Context, ref string, data []byte) Extraction {
	if e.ocr == nil {
		return Extraction{
			Text:           unreliableTextPlaceholder,
			Degraded:       true,
			DegradedReason: "no OCR backend configured",
		}
	}

	ocrCtx, cancel := context.WithTimeout(ctx, e.cfg.OCRTimeout)
	defer cancel()

	result, err := e.ocr.RecognizeText(ocrCtx, ocr.FromBytes(data, imageMIMEType(ref)))
	if err != nil {
		logx.WithError(err).WithField("ref", ref).Warn("analysis: OCR failed, continuing degraded")
		return Extraction{
			Text:           unreliableTextPlaceholder,
			Degraded:       true,
			DegradedReason: fmt.Sprintf("OCR failed: %v", err),
		}
	}
	// OCR backends return garbage more often than errors; length is the
	// real signal and is gated after normalization in Extract.
	return Extraction{Text: result.Text}
}

func imageMIMEType(ref string) string {
	if mt := mime.TypeByExtension(filepath.Ext(ref)); strings.HasPrefix(mt, "image/") {
		return mt
	}
	return "image/png"
}

// PDFTextExtractor parses PDFs with the ledongthuc/pdf text-layout reader.
type PDFTextExtractor struct{}

// ExtractPages returns the plain text of every page in order.
func (PDFTextExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
