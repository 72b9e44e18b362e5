package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// Request is everything the model sees about one policy.
type Request struct {
	Site      string
	PolicyURL string
	Text      string
}

type Client interface {
	Summarize(ctx context.Context, req Request) (json.RawMessage, error)
	Name() string
}

// SummarizationError means the model answered but the answer is unusable.
type SummarizationError struct {
	Raw string
	Err error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed: %v", e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

func (e *SummarizationError) ErrorKind() string { return "ai" }

type Options struct {
	// Provider is gemini, openai, mock, or empty for automatic selection.
	Provider      string
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	HTTPClient    *http.Client
}

// NewClient picks a provider. With no explicit provider it prefers Gemini,
// then OpenAI, and falls back to the offline mock when no key is configured.
func NewClient(opts Options, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))

	// Auto-detect provider if not specified
	if provider == "" || provider == "auto" {
		switch {
		case opts.GeminiAPIKey != "":
			provider = "gemini"
		case opts.OpenAIAPIKey != "":
			provider = "openai"
		default:
			logger.Warn("no llm api key configured, using mock summarizer")
			provider = "mock"
		}
	}

	switch provider {
	case "gemini":
		if opts.GeminiAPIKey == "" {
			return nil, fmt.Errorf("llm provider gemini requires GEMINI_API_KEY")
		}
		return NewGeminiClient(opts.GeminiAPIKey).
			WithModel(opts.GeminiModel).
			WithBaseURL(opts.GeminiBaseURL).
			WithHTTPClient(opts.HTTPClient), nil
	case "openai":
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("llm provider openai requires OPENAI_API_KEY")
		}
		return NewOpenAIClient(opts.OpenAIAPIKey, opts.OpenAIBaseURL, opts.OpenAIModel, opts.HTTPClient), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// MockClient produces a deterministic summary from keyword hits. It is meant
// for local runs without an API key.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Name() string { return "mock" }

var mockDataKeywords = map[string]string{
	"email":      "email address",
	"name":       "name",
	"phone":      "phone number",
	"ip address": "IP address",
	"cookie":     "cookies",
	"location":   "location",
	"payment":    "payment information",
	"device":     "device identifiers",
}

func (m *MockClient) Summarize(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(req.Text)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	var collected []string
	for keyword, label := range mockDataKeywords {
		if strings.Contains(lower, keyword) {
			collected = append(collected, label)
		}
	}
	sort.Strings(collected)

	shares := has("share", "third part", "disclose")
	risk := "low"
	switch {
	case shares && has("sell", "advertis"):
		risk = "high"
	case shares:
		risk = "medium"
	}

	summary := map[string]any{
		"site":         req.Site,
		"policy_url":   req.PolicyURL,
		"last_updated": nil,
		"summary": map[string]any{
			"data": map[string]any{
				"can_company_collect_data":   len(collected) > 0,
				"is_company_collecting_data": has("we collect", "we may collect"),
				"data_collected":             collected,
				"data_usage":                 nil,
			},
			"data_sharing": map[string]any{
				"do_they_share":         shares,
				"whom_can_they_share":   nil,
				"whom_are_they_sharing": nil,
				"what_do_they_share":    nil,
			},
			"can_delete_account": has("delete your account", "account deletion"),
			"camera_mic_location_access": map[string]any{
				"camera":     has("camera"),
				"microphone": has("microphone"),
				"location":   has("location"),
			},
			"uses_targeted_ads":      has("targeted ad", "personalized ad", "interest-based"),
			"consent_required":       has("consent"),
			"opt_out_options":        nil,
			"collects_children_data": has("children"),
			"gdpr_rights":            has("gdpr", "general data protection"),
		},
		"display": map[string]any{
			"summary_text":   fmt.Sprintf("Offline summary of %d words from %s.", len(strings.Fields(req.Text)), req.PolicyURL),
			"risk_level":     risk,
			"recommendation": "Configure an LLM provider for a full analysis.",
		},
	}
	return json.Marshal(summary)
}
