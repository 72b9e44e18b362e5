package discovery

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/observability"
	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
	"golang.org/x/sync/errgroup"
)

// Well-known policy locations, in priority order.
var policyPaths = []string{
	"/privacy-policy",
	"/legal/privacy-policy",
	"/legal/privacy",
	"/privacy",
}

type Prober interface {
	Probe(ctx context.Context, rawURL string, timeout time.Duration) (string, int, error)
}

// PathStrategy probes well-known paths and returns the final (post-redirect)
// URL of the first one answering 200.
type PathStrategy struct {
	Prober   Prober
	Timeout  time.Duration
	Parallel bool
	Logger   *slog.Logger
}

func (p *PathStrategy) Name() string { return "path" }

func (p *PathStrategy) Locate(ctx context.Context, site urlutil.Site) (string, error) {
	if p.Parallel {
		return p.locateParallel(ctx, site)
	}

	for _, path := range policyPaths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		final, ok := p.probe(ctx, site.URL(path))
		if ok {
			return final, nil
		}
	}
	return "", nil
}

// locateParallel probes every path at once. The lowest-index hit wins; once
// it is known, slower probes are cancelled. All probes finish before return.
func (p *PathStrategy) locateParallel(ctx context.Context, site urlutil.Site) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := len(policyPaths)
	hits := make([]string, n)
	done := make([]bool, n)
	var mu sync.Mutex

	settle := func(i int, hit string) {
		mu.Lock()
		defer mu.Unlock()
		done[i] = true
		hits[i] = hit
		for j := 0; j < n; j++ {
			if !done[j] {
				return
			}
			if hits[j] != "" {
				cancel()
				return
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range policyPaths {
		i, path := i, path
		g.Go(func() error {
			final, ok := p.probe(gctx, site.URL(path))
			if !ok {
				final = ""
			}
			settle(i, final)
			return nil
		})
	}
	_ = g.Wait()

	for _, hit := range hits {
		if hit != "" {
			return hit, nil
		}
	}
	return "", context.Cause(ctx)
}

func (p *PathStrategy) probe(ctx context.Context, candidate string) (string, bool) {
	final, status, err := p.Prober.Probe(ctx, candidate, p.Timeout)
	if err != nil {
		if ctx.Err() == nil {
			observability.IncError(observability.ClassifyFetchError(err), "discovery")
			p.logger().Debug("policy probe failed", "url", candidate, "error", err)
		}
		return "", false
	}
	return final, status == http.StatusOK
}

func (p *PathStrategy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
