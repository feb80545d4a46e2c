package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"GuidelineScanner/internal/config"
	"GuidelineScanner/internal/domain"
	"GuidelineScanner/internal/ports"
)

const systemPrompt = "You are a medical professional expert in clinical practice guidelines."

const (
	summaryExcerptLen  = 1000
	metadataExcerptLen = 500

	summaryMaxTokens    = 300
	tagsMaxTokens       = 150
	complexityMaxTokens = 200

	summaryTemperature  = 0.3
	metadataTemperature = 0.2
)

// OpenAIEnricher generates summary, tags, and complexity via one chat
// completion per field group. Temperatures are kept low: the pipeline wants
// repeatable output, not creative writing. The HTTP client carries its own
// timeout so a hung call cannot stall a cycle.
type OpenAIEnricher struct {
	client *openai.Client
	model  string
}

var _ ports.Enricher = (*OpenAIEnricher)(nil)

// NewOpenAIEnricher builds a client from configuration.
func NewOpenAIEnricher(cfg config.EnrichmentConfig) *OpenAIEnricher {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout.Std()}

	return &OpenAIEnricher{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Summarize requests a 3-5 bullet clinical summary.
func (e *OpenAIEnricher) Summarize(ctx context.Context, title, content string) (string, error) {
	prompt := fmt.Sprintf(`You are a medical professional tasked with summarizing clinical practice guidelines.

Please provide a concise, clinical summary of the following medical guideline in 3-5 bullet points:

Title: %s
Content: %s

Format your response as bullet points focusing on:
- Key clinical recommendations
- Target patient population
- Important clinical outcomes
- Any significant changes from previous guidelines

Keep each bullet point concise and clinically relevant.`, title, excerpt(title, content, summaryExcerptLen))

	reply, err := e.complete(ctx, prompt, summaryMaxTokens, summaryTemperature)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return reply, nil
}

// Tags requests 5-8 topical labels and parses the comma-separated reply.
func (e *OpenAIEnricher) Tags(ctx context.Context, title, content string) ([]string, error) {
	prompt := fmt.Sprintf(`You are a medical professional tasked with extracting relevant tags from clinical guidelines.

Please extract 5-8 relevant medical tags/keywords from the following guideline:

Title: %s
Content: %s

Focus on:
- Medical specialties (e.g., Cardiology, Endocrinology, Infectious Disease)
- Conditions (e.g., Diabetes, Hypertension, Sepsis)
- Procedures (e.g., Screening, Treatment, Prevention)
- Patient populations (e.g., Pediatrics, Geriatrics, Pregnant Women)

Return only the tags as a comma-separated list, no explanations.`, title, excerpt(title, content, metadataExcerptLen))

	reply, err := e.complete(ctx, prompt, tagsMaxTokens, metadataTemperature)
	if err != nil {
		return nil, fmt.Errorf("extract tags: %w", err)
	}

	tags := parseTagList(reply)
	if len(tags) == 0 {
		return nil, fmt.Errorf("extract tags: empty tag list in reply %q", reply)
	}

	return tags, nil
}

// Complexity requests a structured assessment and parses it as JSON. A reply
// that cannot be parsed, or that leaves any of the four fields blank, fails
// this call only.
func (e *OpenAIEnricher) Complexity(ctx context.Context, title, content string) (domain.ComplexityProfile, error) {
	prompt := fmt.Sprintf(`Analyze the following medical guideline for complexity and target audience:

Title: %s
Content: %s

Provide a JSON response with:
- complexity_level: "Basic", "Intermediate", or "Advanced"
- target_audience: "Primary Care", "Specialists", "Nurses", "Pharmacists", etc.
- clinical_urgency: "Routine", "Important", or "Critical"
- evidence_strength: "Strong", "Moderate", or "Limited"`, title, excerpt(title, content, metadataExcerptLen))

	reply, err := e.complete(ctx, prompt, complexityMaxTokens, metadataTemperature)
	if err != nil {
		return domain.ComplexityProfile{}, fmt.Errorf("analyze complexity: %w", err)
	}

	profile, err := parseComplexity(reply)
	if err != nil {
		return domain.ComplexityProfile{}, fmt.Errorf("analyze complexity: %w", err)
	}

	return profile, nil
}

func (e *OpenAIEnricher) complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func parseTagList(reply string) []string {
	var tags []string
	for _, part := range strings.Split(reply, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseComplexity(reply string) (domain.ComplexityProfile, error) {
	var profile domain.ComplexityProfile
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &profile); err != nil {
		return domain.ComplexityProfile{}, fmt.Errorf("parse complexity JSON: %w", err)
	}

	if profile.Level == "" || profile.TargetAudience == "" || profile.ClinicalUrgency == "" || profile.EvidenceStrength == "" {
		return domain.ComplexityProfile{}, fmt.Errorf("complexity reply missing fields")
	}

	return profile, nil
}

// stripCodeFence removes a surrounding markdown fence that models sometimes
// wrap JSON replies in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func excerpt(title, content string, limit int) string {
	if content == "" {
		return title
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
