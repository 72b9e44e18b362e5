package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/search"
	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
)

const searchResultLimit = 10

// SearchStrategy asks a web search provider for "<host> privacy policy" and
// takes the first result whose URL mentions privacy.
type SearchStrategy struct {
	Provider search.Provider
	Timeout  time.Duration
}

func (s *SearchStrategy) Name() string { return "search" }

func (s *SearchStrategy) Locate(ctx context.Context, site urlutil.Site) (string, error) {
	if s.Provider == nil {
		return "", nil
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	results, err := s.Provider.Search(ctx, site.Hostname()+" privacy policy", searchResultLimit)
	if err != nil {
		return "", fmt.Errorf("%s search: %w", s.Provider.Name(), err)
	}
	for _, r := range results {
		if urlutil.ContainsPrivacy(r.URL) {
			return r.URL, nil
		}
	}
	return "", nil
}
