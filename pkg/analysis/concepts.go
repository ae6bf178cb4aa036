package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/lectio/pkg/ai/llm"
)

const conceptSystemPrompt = `You identify the academic concepts a question tests.
Return a JSON object of the form:
{"concepts":[{"name":"...","category":"...","description":"...","confidence":0.9}]}
Rules:
- "name" is the canonical concept name, concise (e.g. "Binary Search Tree").
- "category" is a broad area (e.g. "Data Structures").
- "description" is one sentence.
- "confidence" is your certainty in [0,1].
- At most 5 concepts per question; return {"concepts":[]} if none apply.`

// LLMConceptService proposes candidate concepts for a question with a chat
// model.
type LLMConceptService struct {
	client  llm.Client
	model   string
	timeout time.Duration
}

// NewLLMConceptService builds the concept suggester. model may be empty to
// use the provider default.
func NewLLMConceptService(client llm.Client, model string, timeout time.Duration) *LLMConceptService {
	if timeout <= 0 {
		timeout = DefaultConfig().ConceptTimeout
	}
	return &LLMConceptService{client: client, model: model, timeout: timeout}
}

// SuggestConcepts implements ConceptService.
func (s *LLMConceptService) SuggestConcepts(ctx context.Context, questionText, courseContext string) ([]CandidateConcept, error) {
	var b strings.Builder
	if courseContext != "" {
		fmt.Fprintf(&b, "Course context: %s\n\n", courseContext)
	}
	fmt.Fprintf(&b, "Question:\n%s", questionText)

	opts := []llm.Option{
		llm.WithJSONResponseFormat(),
		llm.WithTimeout(s.timeout),
	}
	if s.model != "" {
		opts = append(opts, llm.WithModel(s.model))
	}

	resp, err := s.client.Chat(ctx, []llm.Message{
		llm.NewSystemMessage(conceptSystemPrompt),
		llm.NewUserMessage(b.String()),
	}, opts...)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Concepts []CandidateConcept `json:"concepts"`
	}
	if err := json.Unmarshal([]byte(resp.Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse concept response: %w", err)
	}

	concepts := parsed.Concepts[:0]
	for _, c := range parsed.Concepts {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name != "" {
			concepts = append(concepts, c)
		}
	}
	return concepts, nil
}

// ReconcileConcept matches a candidate against the course's existing
// concepts, case-insensitively, exact name first and substring second. A
// match reuses the existing concept's id, canonical name and category so
// that repeated analyses of different documents do not fragment the course's
// concept graph with spelling variants.
func ReconcileConcept(candidate CandidateConcept, existing []Concept) ConceptMatch {
	name := strings.ToLower(strings.TrimSpace(candidate.Name))
	if name == "" {
		return ConceptMatch{Name: candidate.Name, Origin: ConceptOriginNew}
	}

	for _, c := range existing {
		if strings.ToLower(c.Name) == name {
			return matchExisting(c, candidate)
		}
	}
	for _, c := range existing {
		lower := strings.ToLower(c.Name)
		if strings.Contains(lower, name) || strings.Contains(name, lower) {
			return matchExisting(c, candidate)
		}
	}

	return ConceptMatch{
		Name:        candidate.Name,
		Category:    candidate.Category,
		Description: candidate.Description,
		Confidence:  candidate.Confidence,
		Origin:      ConceptOriginNew,
	}
}

func matchExisting(c Concept, candidate CandidateConcept) ConceptMatch {
	description := c.Description
	if description == "" {
		description = candidate.Description
	}
	return ConceptMatch{
		ConceptID:   c.ID,
		Name:        c.Name,
		Category:    c.Category,
		Description: description,
		Confidence:  candidate.Confidence,
		Origin:      ConceptOriginExisting,
	}
}
