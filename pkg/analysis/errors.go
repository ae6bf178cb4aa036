package analysis

import "github.com/Abraxas-365/lectio/pkg/errx"

var analysisErrors = errx.NewRegistry("ANALYSIS")

var (
	ErrRecordNotFound     = analysisErrors.Register("RECORD_NOT_FOUND", errx.TypeNotFound, 404, "Analysis job not found")
	ErrInvalidPayload     = analysisErrors.Register("INVALID_PAYLOAD", errx.TypeValidation, 400, "Invalid job payload")
	ErrUnsupportedKind    = analysisErrors.Register("UNSUPPORTED_KIND", errx.TypeValidation, 400, "Unsupported content kind")
	ErrDocumentFetch      = analysisErrors.Register("DOCUMENT_FETCH", errx.TypeExternal, 502, "Failed to fetch document")
	ErrTextExtraction     = analysisErrors.Register("TEXT_EXTRACTION", errx.TypeExternal, 502, "Failed to extract text")
	ErrQuestionExtraction = analysisErrors.Register("QUESTION_EXTRACTION", errx.TypeExternal, 502, "Failed to extract questions")
	ErrIndexUpdate        = analysisErrors.Register("INDEX_UPDATE", errx.TypeExternal, 502, "Failed to update document index")
	ErrRecordWrite        = analysisErrors.Register("RECORD_WRITE", errx.TypeExternal, 502, "Failed to write job record")
)
