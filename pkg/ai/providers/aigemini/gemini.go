// Package aigemini implements llm.Client over Google Gemini.
package aigemini

import (
	"context"
	"encoding/base64"
	"os"
	"strings"

	"github.com/Abraxas-365/lectio/pkg/ai/llm"
	"google.golang.org/genai"
)

// ProviderOption configures the Gemini provider
type ProviderOption func(*GeminiProvider)

// WithVertexAI configures the provider to use the Vertex AI backend
func WithVertexAI(project, location string) ProviderOption {
	return func(p *GeminiProvider) {
		p.project = project
		p.location = location
		p.useVertexAI = true
	}
}

// GeminiProvider implements the llm.Client interface for Google Gemini
type GeminiProvider struct {
	client      *genai.Client
	apiKey      string
	project     string
	location    string
	useVertexAI bool
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...ProviderOption) (*GeminiProvider, error) {
	p := &GeminiProvider{apiKey: apiKey}
	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		p.apiKey = os.Getenv("GEMINI_API_KEY")
	}

	config := &genai.ClientConfig{}
	if p.useVertexAI {
		config.Backend = genai.BackendVertexAI
		config.Project = p.project
		config.Location = p.location
	} else {
		config.APIKey = p.apiKey
		config.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, WrapError(err, ErrMissingAPIKey).
			WithDetail("error", "failed to create Gemini client")
	}
	p.client = client
	return p, nil
}

func defaultChatOptions() *llm.ChatOptions {
	options := llm.DefaultOptions()
	options.Model = "gemini-2.0-flash"
	return options
}

// Chat implements the llm.Client interface
func (p *GeminiProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	if len(messages) == 0 {
		return llm.Response{}, errorRegistry.New(ErrEmptyMessages)
	}

	options := defaultChatOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	systemContent, contents := convertMessages(messages)
	config := buildGenerateConfig(options, systemContent)

	result, err := p.client.Models.GenerateContent(ctx, options.Model, contents, config)
	if err != nil {
		return llm.Response{}, WrapError(err, ErrAPIRequest).
			WithDetail("model", options.Model).
			WithDetail("num_messages", len(messages))
	}

	return convertFromGeminiResponse(result, options.Model)
}

// convertMessages splits out the system instruction and converts the rest.
func convertMessages(messages []llm.Message) (*genai.Content, []*genai.Content) {
	var systemContent *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			part := genai.NewPartFromText(msg.Content)
			if systemContent == nil {
				systemContent = &genai.Content{Parts: []*genai.Part{part}}
			} else {
				systemContent.Parts = append(systemContent.Parts, part)
			}
		case llm.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: convertUserParts(msg),
			})
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		}
	}
	return systemContent, contents
}

func convertUserParts(msg llm.Message) []*genai.Part {
	if !msg.IsMultimodal() {
		return []*genai.Part{genai.NewPartFromText(msg.Content)}
	}

	parts := make([]*genai.Part, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		switch part.Type {
		case llm.ContentPartTypeText:
			parts = append(parts, genai.NewPartFromText(part.Text))
		case llm.ContentPartTypeImageURL:
			if part.ImageURL == nil {
				continue
			}
			if data, mime, ok := decodeDataURI(part.ImageURL.URL); ok {
				parts = append(parts, genai.NewPartFromBytes(data, mime))
			} else {
				parts = append(parts, genai.NewPartFromURI(part.ImageURL.URL, "image/*"))
			}
		}
	}
	return parts
}

func buildGenerateConfig(options *llm.ChatOptions, systemContent *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if systemContent != nil {
		config.SystemInstruction = systemContent
	}
	if options.Temperature != 0 {
		config.Temperature = genai.Ptr(options.Temperature)
	}
	if options.TopP != 0 {
		config.TopP = genai.Ptr(options.TopP)
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if len(options.Stop) > 0 {
		config.StopSequences = options.Stop
	}

	if options.ResponseFormat != nil {
		switch options.ResponseFormat.Type {
		case llm.JSONObject, llm.JSONSchema:
			config.ResponseMIMEType = "application/json"
		}
	}

	return config
}

func convertFromGeminiResponse(result *genai.GenerateContentResponse, model string) (llm.Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse).
			WithDetail("error", "no candidates in response")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil {
		return llm.Response{Message: llm.Message{Role: llm.RoleAssistant}, Model: model}, nil
	}

	var content strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			content.WriteString(part.Text)
		}
	}

	usage := llm.Usage{}
	if result.UsageMetadata != nil {
		usage.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(result.UsageMetadata.TotalTokenCount)
	}

	return llm.Response{
		Message: llm.Message{Role: llm.RoleAssistant, Content: content.String()},
		Usage:   usage,
		Model:   model,
	}, nil
}

// decodeDataURI unpacks a base64 data URI into raw bytes and a MIME type.
func decodeDataURI(uri string) ([]byte, string, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", false
	}
	rest := strings.TrimPrefix(uri, "data:")
	semi := strings.Index(rest, ";base64,")
	if semi < 0 {
		return nil, "", false
	}
	mime := rest[:semi]
	data, err := base64.StdEncoding.DecodeString(rest[semi+len(";base64,"):])
	if err != nil {
		return nil, "", false
	}
	return data, mime, true
}
