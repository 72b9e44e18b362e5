package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
	"github.com/gocolly/colly/v2"
	"mvdan.cc/xurls/v2"
)

type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration, register func(*colly.Collector)) (int, error)
}

// ScrapeStrategy loads the site's homepage and picks the first anchor whose
// href mentions privacy. Pages that only mention the policy URL in text or
// scripts are covered by a plain-text URL scan restricted to the same site.
type ScrapeStrategy struct {
	Fetcher PageFetcher
	Timeout time.Duration
	urls    *regexp.Regexp
}

func NewScrapeStrategy(fetcher PageFetcher, timeout time.Duration) *ScrapeStrategy {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		re = xurls.Strict()
	}
	return &ScrapeStrategy{Fetcher: fetcher, Timeout: timeout, urls: re}
}

func (s *ScrapeStrategy) Name() string { return "scrape" }

func (s *ScrapeStrategy) Locate(ctx context.Context, site urlutil.Site) (string, error) {
	var anchor string
	var body []byte

	_, err := s.Fetcher.Fetch(ctx, site.String(), s.Timeout, func(c *colly.Collector) {
		c.OnResponse(func(r *colly.Response) {
			body = r.Body
		})
		c.OnHTML("a[href]", func(e *colly.HTMLElement) {
			if anchor != "" {
				return
			}
			href := strings.TrimSpace(e.Attr("href"))
			if !urlutil.ContainsPrivacy(href) {
				return
			}
			if urlutil.ResolveLink(e.Request.URL, href) == "" {
				return
			}
			anchor = e.Request.AbsoluteURL(href)
		})
	})
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", site, err)
	}
	if anchor != "" {
		return anchor, nil
	}
	return s.scanText(site, string(body)), nil
}

func (s *ScrapeStrategy) scanText(site urlutil.Site, text string) string {
	if s.urls == nil || text == "" {
		return ""
	}
	for _, candidate := range s.urls.FindAllString(text, -1) {
		if !urlutil.ContainsPrivacy(candidate) || urlutil.IsStaticAsset(candidate) {
			continue
		}
		if urlutil.SameSite(urlutil.HostOf(candidate), site.Hostname()) {
			return candidate
		}
	}
	return ""
}
