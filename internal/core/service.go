package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/ai"
	"github.com/baxromumarov/policy-summarizer/internal/content"
	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	"github.com/baxromumarov/policy-summarizer/internal/observability"
	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
)

const DefaultMaxWords = 7000

// Mode decides what happens when no policy URL can be located.
type Mode string

const (
	// ModeStrict fails with PolicyNotFoundError.
	ModeStrict Mode = "strict"
	// ModeLenient treats the input itself as the policy URL.
	ModeLenient Mode = "lenient"
)

type Locator interface {
	Locate(ctx context.Context, input string) (string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts httpx.FetchOptions) (*httpx.Document, error)
}

type Options struct {
	Mode         Mode
	MaxWords     int
	FetchTimeout time.Duration
	LLMTimeout   time.Duration
}

type Summary struct {
	Site      string          `json:"site"`
	PolicyURL string          `json:"policy_url"`
	Words     int             `json:"words"`
	Result    json.RawMessage `json:"result"`
}

// SummarizerService runs locate, fetch, normalize, size check and summarize
// for one input. It holds no per-request state.
type SummarizerService struct {
	locator  Locator
	fetcher  Fetcher
	aiClient ai.Client
	opts     Options
	logger   *slog.Logger
}

func NewSummarizerService(locator Locator, fetcher Fetcher, aiClient ai.Client, opts Options, logger *slog.Logger) *SummarizerService {
	if opts.MaxWords <= 0 {
		opts.MaxWords = DefaultMaxWords
	}
	if opts.Mode == "" {
		opts.Mode = ModeStrict
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizerService{
		locator:  locator,
		fetcher:  fetcher,
		aiClient: aiClient,
		opts:     opts,
		logger:   logger,
	}
}

// Locate runs policy discovery alone. An empty string means not found.
func (s *SummarizerService) Locate(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", &StageError{Stage: StageLocate, Err: ErrEmptyInput}
	}
	policyURL, err := s.locator.Locate(ctx, input)
	if err != nil {
		return "", wrapStage(StageLocate, err)
	}
	return policyURL, nil
}

func (s *SummarizerService) Summarize(ctx context.Context, input string) (summary *Summary, err error) {
	start := time.Now()
	defer func() {
		observability.ObserveSummarize(time.Since(start), err)
		if err != nil {
			observability.IncError(observability.ClassifyError(err), "core")
			s.logger.Warn("summarize failed", "input", input, "duration", time.Since(start), "error", err)
		}
	}()

	if strings.TrimSpace(input) == "" {
		return nil, &StageError{Stage: StageLocate, Err: ErrEmptyInput}
	}
	site := urlutil.NormalizeSite(input).String()

	stageStart := time.Now()
	policyURL, err := s.locator.Locate(ctx, input)
	if err != nil {
		return nil, wrapStage(StageLocate, err)
	}
	if policyURL == "" {
		if s.opts.Mode != ModeLenient {
			return nil, &StageError{Stage: StageLocate, Err: &PolicyNotFoundError{Site: site}}
		}
		policyURL = urlutil.EnsureScheme(input)
		s.logger.Info("no policy located, using input directly", "url", policyURL)
	}
	s.logStage(StageLocate, policyURL, stageStart)

	stageStart = time.Now()
	doc, err := s.fetcher.Fetch(ctx, policyURL, httpx.FetchOptions{
		Timeout:         s.opts.FetchTimeout,
		FollowRedirects: true,
	})
	if err != nil {
		return nil, wrapStage(StageFetch, err)
	}
	observability.IncPagesFetched("core")
	s.logStage(StageFetch, doc.URL, stageStart)

	stageStart = time.Now()
	text, err := content.NormalizeDocument(doc)
	if err != nil {
		return nil, wrapStage(StageNormalize, err)
	}
	s.logStage(StageNormalize, policyURL, stageStart)

	words := content.WordCount(text)
	if words > s.opts.MaxWords {
		return nil, &StageError{
			Stage: StageSizeCheck,
			Err:   &DocumentTooLargeError{Words: words, Limit: s.opts.MaxWords},
		}
	}

	stageStart = time.Now()
	result, err := s.summarize(ctx, ai.Request{Site: site, PolicyURL: policyURL, Text: text})
	if err != nil {
		return nil, wrapStage(StageSummarize, err)
	}
	s.logStage(StageSummarize, policyURL, stageStart)

	s.logger.Info("policy summarized",
		"site", site,
		"url", policyURL,
		"words", words,
		"provider", s.aiClient.Name(),
		"duration", time.Since(start),
	)
	return &Summary{Site: site, PolicyURL: policyURL, Words: words, Result: result}, nil
}

func (s *SummarizerService) summarize(ctx context.Context, req ai.Request) (json.RawMessage, error) {
	if s.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LLMTimeout)
		defer cancel()
	}
	observability.IncAICall(s.aiClient.Name())
	return s.aiClient.Summarize(ctx, req)
}

func (s *SummarizerService) logStage(stage Stage, url string, start time.Time) {
	s.logger.Debug("stage complete", "stage", string(stage), "url", url, "duration", time.Since(start))
}
