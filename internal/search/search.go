package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// Result represents a single search hit from any provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // provider name for observability
}

// Provider is a minimal interface for web search backends.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

type Options struct {
	// Name is brave, duckduckgo, none, or empty for automatic selection.
	Name          string
	BraveAPIKey   string
	BraveBaseURL  string
	UserAgent     string
	RatePerSecond float64
	HTTPClient    *http.Client
}

// NewProvider builds the configured provider. A nil Provider with a nil error
// means search is disabled.
func NewProvider(opts Options) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Name))
	if name == "" || name == "auto" {
		name = "none"
		if opts.BraveAPIKey != "" {
			name = "brave"
		}
	}

	var p Provider
	switch name {
	case "none":
		return nil, nil
	case "brave":
		if opts.BraveAPIKey == "" {
			return nil, fmt.Errorf("brave search requires an api key")
		}
		p = &Brave{
			BaseURL:    opts.BraveBaseURL,
			APIKey:     opts.BraveAPIKey,
			HTTPClient: opts.HTTPClient,
			UserAgent:  opts.UserAgent,
		}
	case "duckduckgo", "ddg":
		p = &DuckDuckGo{
			HTTPClient: opts.HTTPClient,
			UserAgent:  opts.UserAgent,
		}
	default:
		return nil, fmt.Errorf("unknown search provider %q", opts.Name)
	}

	if opts.RatePerSecond > 0 {
		p = WithRateLimit(p, opts.RatePerSecond)
	}
	return p, nil
}

type limitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit shares one token bucket across every caller of p.
func WithRateLimit(p Provider, perSecond float64) Provider {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &limitedProvider{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (l *limitedProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", l.Name(), err)
	}
	return l.Provider.Search(ctx, query, limit)
}
