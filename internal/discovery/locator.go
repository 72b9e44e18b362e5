package discovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	"github.com/baxromumarov/policy-summarizer/internal/observability"
	"github.com/baxromumarov/policy-summarizer/internal/search"
	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
)

// Strategy is one way of finding a site's privacy policy. An empty URL with
// a nil error means "not found here".
type Strategy interface {
	Name() string
	Locate(ctx context.Context, site urlutil.Site) (string, error)
}

// Locator runs strategies in order and returns the first hit.
type Locator struct {
	strategies []Strategy
	logger     *slog.Logger
}

func NewLocator(logger *slog.Logger, strategies ...Strategy) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{strategies: strategies, logger: logger}
}

type Options struct {
	Search        search.Provider
	SearchTimeout time.Duration

	Prober         Prober
	ProbeTimeout   time.Duration
	ParallelProbes bool

	Pages         *httpx.CollyFetcher
	ScrapeTimeout time.Duration

	SitemapLookup bool
}

// NewDefaultLocator wires the standard chain: search, well-known paths, an
// in-page scrape of the homepage and, when enabled, the sitemap.
func NewDefaultLocator(opts Options, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	var strategies []Strategy
	if opts.Search != nil {
		strategies = append(strategies, &SearchStrategy{Provider: opts.Search, Timeout: opts.SearchTimeout})
	}
	if opts.Prober != nil {
		strategies = append(strategies, &PathStrategy{
			Prober:   opts.Prober,
			Timeout:  opts.ProbeTimeout,
			Parallel: opts.ParallelProbes,
			Logger:   logger,
		})
	}
	if opts.Pages != nil {
		strategies = append(strategies, NewScrapeStrategy(opts.Pages, opts.ScrapeTimeout))
		if opts.SitemapLookup {
			strategies = append(strategies, &SitemapStrategy{Fetcher: opts.Pages, Timeout: opts.ScrapeTimeout})
		}
	}
	return NewLocator(logger, strategies...)
}

// Locate returns the policy URL for input, or "" when no strategy finds one.
// Strategy failures are logged and skipped; the only error returned is the
// caller's context error.
func (l *Locator) Locate(ctx context.Context, input string) (string, error) {
	site := urlutil.NormalizeSite(input)

	for _, s := range l.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		found, err := s.Locate(ctx, site)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			observability.IncError(observability.ClassifyError(err), "discovery")
			l.logger.Warn("locate strategy failed",
				"strategy", s.Name(),
				"site", site.String(),
				"error", err,
			)
			continue
		}
		if found != "" {
			observability.IncLocateResult(s.Name())
			l.logger.Info("policy located",
				"strategy", s.Name(),
				"site", site.String(),
				"url", found,
				"duration", time.Since(start),
			)
			return found, nil
		}
		l.logger.Debug("strategy found nothing", "strategy", s.Name(), "site", site.String())
	}

	observability.IncLocateResult("")
	l.logger.Info("policy not found", "site", site.String())
	return "", nil
}
