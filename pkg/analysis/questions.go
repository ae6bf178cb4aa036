package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/lectio/pkg/ai/llm"
)

const questionSystemPrompt = `You extract exam and exercise questions from course documents.
Return a JSON object of the form:
{"questions":[{"text":"...","ordinal":1,"points":5,"difficulty":"easy|medium|hard"}]}
Rules:
- "text" is the complete question, continuation lines merged.
- "ordinal" is the question's number in the document, starting at 1.
- "points" is the mark value if stated, otherwise 0.
- "difficulty" is your estimate; omit it if you cannot judge.
- Skip headers, instructions and institutional boilerplate.
- Return {"questions":[]} if the document contains no questions.`

// LLMQuestionService extracts structured questions with a chat model. It is
// the primary Stage B path; availability failures here are expected and
// handled by the caller's pattern fallback.
type LLMQuestionService struct {
	client  llm.Client
	model   string
	timeout time.Duration
}

// NewLLMQuestionService builds the primary question extractor. model may be
// empty to use the provider default.
func NewLLMQuestionService(client llm.Client, model string, timeout time.Duration) *LLMQuestionService {
	if timeout <= 0 {
		timeout = DefaultConfig().QuestionTimeout
	}
	return &LLMQuestionService{client: client, model: model, timeout: timeout}
}

// ExtractQuestions implements QuestionService.
func (s *LLMQuestionService) ExtractQuestions(ctx context.Context, text, courseContext string) ([]Question, error) {
	prompt := buildQuestionPrompt(text, courseContext)

	opts := []llm.Option{
		llm.WithJSONResponseFormat(),
		llm.WithTimeout(s.timeout),
	}
	if s.model != "" {
		opts = append(opts, llm.WithModel(s.model))
	}

	resp, err := s.client.Chat(ctx, []llm.Message{
		llm.NewSystemMessage(questionSystemPrompt),
		llm.NewUserMessage(prompt),
	}, opts...)
	if err != nil {
		return nil, analysisErrors.NewWithCause(ErrQuestionExtraction, err)
	}

	var parsed struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(resp.Message.Content), &parsed); err != nil {
		return nil, analysisErrors.NewWithCause(ErrQuestionExtraction, err).
			WithDetail("reason", "model returned malformed JSON")
	}

	questions := make([]Question, 0, len(parsed.Questions))
	for i, q := range parsed.Questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			continue
		}
		if q.Ordinal <= 0 {
			q.Ordinal = i + 1
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func buildQuestionPrompt(text, courseContext string) string {
	var b strings.Builder
	if courseContext != "" {
		fmt.Fprintf(&b, "Course context: %s\n\n", courseContext)
	}
	b.WriteString("Document text:\n")
	b.WriteString(text)
	return b.String()
}
