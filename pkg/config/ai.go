package config

import "time"

// AIConfig configures the generative providers.
type AIConfig struct {
	Provider     string // "openai" or "gemini"
	OpenAIAPIKey string
	GeminiAPIKey string
	ChatModel    string
	VisionModel  string
}

func loadAIConfig() AIConfig {
	return AIConfig{
		Provider:     getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		ChatModel:    getEnv("AI_CHAT_MODEL", ""),
		VisionModel:  getEnv("AI_VISION_MODEL", ""),
	}
}

// AnalysisConfig configures the document-analysis pipeline stages.
type AnalysisConfig struct {
	FetchTimeout    time.Duration
	PDFTimeout      time.Duration
	OCRTimeout      time.Duration
	QuestionTimeout time.Duration
	ConceptTimeout  time.Duration
	MinTextLength   int
	PreviewLength   int
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		FetchTimeout:    getEnvDuration("ANALYSIS_FETCH_TIMEOUT", 30*time.Second),
		PDFTimeout:      getEnvDuration("ANALYSIS_PDF_TIMEOUT", 60*time.Second),
		OCRTimeout:      getEnvDuration("ANALYSIS_OCR_TIMEOUT", 5*time.Minute),
		QuestionTimeout: getEnvDuration("ANALYSIS_QUESTION_TIMEOUT", 2*time.Minute),
		ConceptTimeout:  getEnvDuration("ANALYSIS_CONCEPT_TIMEOUT", 45*time.Second),
		MinTextLength:   getEnvInt("ANALYSIS_MIN_TEXT_LENGTH", 50),
		PreviewLength:   getEnvInt("ANALYSIS_PREVIEW_LENGTH", 5000),
	}
}
