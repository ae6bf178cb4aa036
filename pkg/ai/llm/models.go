// Package llm defines the provider-neutral chat model shared by all
// generative providers.
package llm

import (
	"context"
	"time"
)

// Role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentPartType represents the type of a content part
type ContentPartType string

const (
	ContentPartTypeText     ContentPartType = "text"
	ContentPartTypeImageURL ContentPartType = "image_url"
)

// ImageDetail controls fidelity for vision models
type ImageDetail string

const (
	ImageDetailAuto ImageDetail = "auto"
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
)

// ImageURL references an image by URL or base64 data URI
type ImageURL struct {
	URL    string      `json:"url"`
	Detail ImageDetail `json:"detail,omitempty"`
}

// ContentPart represents one part of a multimodal message
type ContentPart struct {
	Type     ContentPartType `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *ImageURL       `json:"image_url,omitempty"`
}

// TextPart creates a text content part
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartTypeText, Text: text}
}

// ImagePart creates an image content part from a URL (or base64 data URI)
func ImagePart(url string, detail ...ImageDetail) ContentPart {
	img := &ImageURL{URL: url}
	if len(detail) > 0 {
		img.Detail = detail[0]
	}
	return ContentPart{Type: ContentPartTypeImageURL, ImageURL: img}
}

// Message represents a chat message
type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content,omitempty"`
	MultiContent []ContentPart `json:"multi_content,omitempty"` // takes precedence over Content
}

// IsMultimodal returns true if the message contains multimodal content parts
func (m Message) IsMultimodal() bool {
	return len(m.MultiContent) > 0
}

// NewUserMessage creates a new user message
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a new system message
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewImageMessage creates a user message with text and one image URL
func NewImageMessage(text, imageURL string, detail ...ImageDetail) Message {
	return Message{
		Role:         RoleUser,
		MultiContent: []ContentPart{TextPart(text), ImagePart(imageURL, detail...)},
	}
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a provider-neutral chat completion
type Response struct {
	Message Message `json:"message"`
	Usage   Usage   `json:"usage"`
	Model   string  `json:"model,omitempty"`
}

// Client is implemented by every generative provider.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
}

// ResponseFormatType represents the format type for model outputs
type ResponseFormatType string

const (
	// TextFormat requests plain text output (default)
	TextFormat ResponseFormatType = "text"
	// JSONObject requests output in JSON object format
	JSONObject ResponseFormatType = "json_object"
	// JSONSchema requests output conforming to a specific JSON schema
	JSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat specifies the desired output format
type ResponseFormat struct {
	Type       ResponseFormatType `json:"type"`
	JSONSchema any                `json:"schema,omitempty"`
}

// ChatOptions holds per-call tuning for a chat request
type ChatOptions struct {
	Model          string
	Temperature    float32
	TopP           float32
	MaxTokens      int
	Stop           []string
	ResponseFormat *ResponseFormat
	Timeout        time.Duration
}

// DefaultOptions returns the baseline chat options
func DefaultOptions() *ChatOptions {
	return &ChatOptions{Temperature: 0.2}
}

// Option is a functional option for a chat call
type Option func(*ChatOptions)

// WithModel selects the model
func WithModel(model string) Option {
	return func(o *ChatOptions) { o.Model = model }
}

// WithTemperature sets sampling temperature
func WithTemperature(t float32) Option {
	return func(o *ChatOptions) { o.Temperature = t }
}

// WithMaxTokens bounds the completion length
func WithMaxTokens(n int) Option {
	return func(o *ChatOptions) { o.MaxTokens = n }
}

// WithStop sets stop sequences
func WithStop(stop ...string) Option {
	return func(o *ChatOptions) { o.Stop = stop }
}

// WithTimeout bounds the whole call
func WithTimeout(d time.Duration) Option {
	return func(o *ChatOptions) { o.Timeout = d }
}

// WithJSONResponseFormat sets the response format to JSON object
func WithJSONResponseFormat() Option {
	return func(o *ChatOptions) {
		o.ResponseFormat = &ResponseFormat{Type: JSONObject}
	}
}

// WithJSONSchemaResponseFormat sets the response format to conform to a specific JSON schema
func WithJSONSchemaResponseFormat(schema any) Option {
	return func(o *ChatOptions) {
		o.ResponseFormat = &ResponseFormat{Type: JSONSchema, JSONSchema: schema}
	}
}
