package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel = "gemini-2.5-flash"
	maxResponseBytes   = 4 << 20
)

// GeminiClient implements the Client interface using Google's Gemini API.
// Get your API key at: https://aistudio.google.com/apikey
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a new Gemini AI client.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      defaultGeminiModel,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{},
	}
}

// WithModel allows changing the model (e.g., "gemini-2.5-pro")
func (g *GeminiClient) WithModel(model string) *GeminiClient {
	if model != "" {
		g.model = model
	}
	return g
}

func (g *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	if baseURL != "" {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
	return g
}

func (g *GeminiClient) WithHTTPClient(hc *http.Client) *GeminiClient {
	if hc != nil {
		g.httpClient = hc
	}
	return g
}

func (g *GeminiClient) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Summarize sends the policy text with the fixed response schema and returns
// the JSON object the model produced.
func (g *GeminiClient) Summarize(ctx context.Context, req Request) (json.RawMessage, error) {
	text, err := g.callAPI(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}
	return decodeSummary(text)
}

func (g *GeminiClient) callAPI(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: prompt},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.1, // Low temperature for consistent JSON output
			ResponseMIMEType: "application/json",
			ResponseSchema:   summarySchema,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var geminiResp geminiResponse
	parseErr := json.Unmarshal(body, &geminiResp)

	if parseErr == nil && geminiResp.Error != nil {
		return "", fmt.Errorf("gemini api error: %s (code: %d)", geminiResp.Error.Message, geminiResp.Error.Code)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gemini api status %d: %s", resp.StatusCode, truncateText(string(body), 200))
	}
	if parseErr != nil {
		return "", &SummarizationError{Raw: string(body), Err: fmt.Errorf("failed to parse response: %w", parseErr)}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", &SummarizationError{Raw: string(body), Err: errors.New("empty response from gemini")}
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// truncateText limits text to maxLen characters
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
