// Package ocrvision implements ocr.TextRecognizer on top of a vision-capable
// llm.Client. It trades the precision of a dedicated OCR service for having
// no extra infrastructure dependency.
package ocrvision

import (
	"context"
	"strings"

	"github.com/Abraxas-365/lectio/pkg/ai/llm"
	"github.com/Abraxas-365/lectio/pkg/ai/ocr"
	"github.com/Abraxas-365/lectio/pkg/errx"
)

const transcribePrompt = `Transcribe ALL visible text from this image exactly as written. ` +
	`Preserve line breaks, numbering and punctuation. Output only the transcribed text, ` +
	`with no commentary. If the image contains no readable text, output nothing.`

// VisionRecognizer runs OCR through a multimodal chat model.
type VisionRecognizer struct {
	client llm.Client
	model  string
}

// NewVisionRecognizer creates a recognizer backed by client. model may be
// empty to use the provider default.
func NewVisionRecognizer(client llm.Client, model string) *VisionRecognizer {
	return &VisionRecognizer{client: client, model: model}
}

// RecognizeText implements ocr.TextRecognizer.
func (r *VisionRecognizer) RecognizeText(ctx context.Context, input ocr.Input, opts ...ocr.Option) (*ocr.Result, error) {
	options := &ocr.Options{Model: r.model}
	for _, o := range opts {
		o(options)
	}

	prompt := transcribePrompt
	if len(options.LanguageHints) > 0 {
		prompt += " The text is likely in: " + strings.Join(options.LanguageHints, ", ") + "."
	}

	var chatOpts []llm.Option
	if options.Model != "" {
		chatOpts = append(chatOpts, llm.WithModel(options.Model))
	}

	resp, err := r.client.Chat(ctx,
		[]llm.Message{llm.NewImageMessage(prompt, input.DataURI(), llm.ImageDetailHigh)},
		chatOpts...)
	if err != nil {
		return nil, errx.Wrap(err, "vision OCR call failed", errx.TypeExternal)
	}

	return &ocr.Result{
		Text: strings.TrimSpace(resp.Message.Content),
		Metadata: map[string]any{
			"model":         resp.Model,
			"prompt_tokens": resp.Usage.PromptTokens,
			"total_tokens":  resp.Usage.TotalTokens,
		},
	}, nil
}
