package analysis

import (
	"context"
)

// Indexer is Stage D: persist a bounded preview of the extracted text as the
// document's searchable representation, linked to the concepts found.
type Indexer struct {
	store      DocumentIndexStore
	previewLen int
}

// NewIndexer builds the Stage D indexer.
func NewIndexer(store DocumentIndexStore, previewLen int) *Indexer {
	if previewLen <= 0 {
		previewLen = DefaultConfig().PreviewLength
	}
	return &Indexer{store: store, previewLen: previewLen}
}

// Update truncates text to the preview bound and persists it. Returns the
// stored preview length.
func (i *Indexer) Update(ctx context.Context, documentRef, text string, concepts []ConceptMatch) (int, error) {
	preview := truncateRunes(text, i.previewLen)

	conceptIDs := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if c.ConceptID != "" {
			conceptIDs = append(conceptIDs, c.ConceptID)
		}
	}

	if err := i.store.UpdateSearchText(ctx, documentRef, preview, conceptIDs); err != nil {
		return 0, analysisErrors.NewWithCause(ErrIndexUpdate, err).WithDetail("ref", documentRef)
	}
	return len(preview), nil
}

func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
