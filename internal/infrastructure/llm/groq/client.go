package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/infrastructure/resilience"
)

// Client talks to the Groq OpenAI-compatible chat completions API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model, apiKey string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, documentType, text string) (domain.Classification, error) {
	respText, err := c.client.complete(ctx, buildClassificationPrompt(documentType, text), "classify")
	if err != nil {
		return domain.Classification{}, err
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification json: %w", err)
	}
	if result.KeyEntities == nil {
		result.KeyEntities = []string{}
	}
	return result, nil
}

type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

func (s *Summarizer) Summarize(ctx context.Context, documentType, text string, cls domain.Classification) (string, error) {
	return s.client.complete(ctx, buildSummaryPrompt(documentType, text, cls), "summarize")
}

type RiskAssessor struct {
	client *Client
}

func NewRiskAssessor(client *Client) *RiskAssessor {
	return &RiskAssessor{client: client}
}

func (a *RiskAssessor) Assess(ctx context.Context, documentType, summary string, cls domain.Classification) (domain.RiskAssessment, error) {
	respText, err := a.client.complete(ctx, buildRiskPrompt(documentType, summary, cls), "assess")
	if err != nil {
		return domain.RiskAssessment{}, err
	}

	var result domain.RiskAssessment
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		// Unparseable model output falls back to a neutral score that
		// always lands in the human review queue.
		return neutralAssessment(), nil
	}
	if result.Concerns == nil {
		result.Concerns = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	return result, nil
}

func neutralAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		TotalScore: 50,
		RiskLevel:  "medium",
		Factors: domain.RiskFactors{
			Completeness:       12,
			Compliance:         12,
			FinancialViability: 13,
			RedFlags:           13,
		},
		Concerns:        []string{"Automated scoring failed"},
		Recommendations: []string{"Manual review required"},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt, operation string) (string, error) {
	request := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
		MaxTokens:   500,
	}

	var response chatResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/openai/v1/chat/completions", request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "groq."+operation, call, classifyGroqError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("groq %s: empty choices in response", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
