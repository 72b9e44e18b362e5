package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/baxromumarov/policy-summarizer/internal/ai"
	"github.com/baxromumarov/policy-summarizer/internal/config"
	"github.com/baxromumarov/policy-summarizer/internal/core"
	"github.com/baxromumarov/policy-summarizer/internal/discovery"
	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	"github.com/baxromumarov/policy-summarizer/internal/search"
)

// App holds every long-lived component. All of them are safe for
// concurrent use and shared across requests.
type App struct {
	Config  config.Config
	HTTP    *httpx.Client
	Pages   *httpx.CollyFetcher
	Search  search.Provider
	Locator *discovery.Locator
	AI      ai.Client
	Service *core.SummarizerService
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := httpx.NewClient(httpx.Options{
		UserAgent:     cfg.UserAgent,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		RespectRobots: cfg.RespectRobots,
	})
	pages := httpx.NewCollyFetcher(cfg.UserAgent, cfg.RespectRobots, cfg.MaxBodyBytes)
	apiClient := &http.Client{}

	provider, err := search.NewProvider(search.Options{
		Name:          cfg.SearchProvider,
		BraveAPIKey:   cfg.BraveAPIKey,
		BraveBaseURL:  cfg.BraveBaseURL,
		UserAgent:     cfg.UserAgent,
		RatePerSecond: cfg.SearchRatePerSecond,
		HTTPClient:    apiClient,
	})
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}

	aiClient, err := ai.NewClient(ai.Options{
		Provider:      cfg.LLMProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiBaseURL: cfg.GeminiBaseURL,
		GeminiModel:   cfg.GeminiModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
		HTTPClient:    apiClient,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	locator := discovery.NewDefaultLocator(discovery.Options{
		Search:         provider,
		SearchTimeout:  cfg.SearchTimeout,
		Prober:         httpClient,
		ProbeTimeout:   cfg.ProbeTimeout,
		ParallelProbes: cfg.ParallelProbes,
		Pages:          pages,
		ScrapeTimeout:  cfg.ScrapeTimeout,
		SitemapLookup:  cfg.SitemapLookup,
	}, logger)

	service := core.NewSummarizerService(locator, httpClient, aiClient, core.Options{
		Mode:         core.Mode(strings.ToLower(cfg.LocateMode)),
		MaxWords:     cfg.MaxWords,
		FetchTimeout: cfg.FetchTimeout,
		LLMTimeout:   cfg.LLMTimeout,
	}, logger)

	searchName := "none"
	if provider != nil {
		searchName = provider.Name()
	}
	logger.Info("pipeline ready",
		"search", searchName,
		"llm", aiClient.Name(),
		"mode", cfg.LocateMode,
		"max_words", cfg.MaxWords,
		"parallel_probes", cfg.ParallelProbes,
		"sitemap", cfg.SitemapLookup,
	)

	return &App{
		Config:  cfg,
		HTTP:    httpClient,
		Pages:   pages,
		Search:  provider,
		Locator: locator,
		AI:      aiClient,
		Service: service,
	}, nil
}
