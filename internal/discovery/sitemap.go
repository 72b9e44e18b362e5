package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	"github.com/baxromumarov/policy-summarizer/internal/urlutil"
)

const maxChildSitemaps = 10

type ByteFetcher interface {
	FetchBytes(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, string, error)
}

// SitemapStrategy reads the site's sitemap (one level of index nesting) and
// returns the first listed URL that mentions privacy.
type SitemapStrategy struct {
	Fetcher ByteFetcher
	Timeout time.Duration
}

type sitemapIndex struct {
	Locations []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlset struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

func (s *SitemapStrategy) Name() string { return "sitemap" }

func (s *SitemapStrategy) Locate(ctx context.Context, site urlutil.Site) (string, error) {
	candidates := []string{site.URL("/sitemap.xml"), site.URL("/sitemap_index.xml")}

	var errs []error
	unreadable := 0
	for _, sm := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		body, _, err := s.Fetcher.FetchBytes(ctx, sm, s.Timeout)
		if err != nil {
			var fe *httpx.FetchError
			if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
				errs = append(errs, err)
				unreadable++
			}
			continue
		}
		if len(body) == 0 {
			continue
		}

		var idx sitemapIndex
		if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&idx); err == nil && len(idx.Locations) > 0 {
			for i, loc := range idx.Locations {
				if i >= maxChildSitemaps {
					break
				}
				childBody, _, err := s.Fetcher.FetchBytes(ctx, loc.Loc, s.Timeout)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if found := firstPrivacyLoc(childBody); found != "" {
					return found, nil
				}
			}
			continue
		}

		if found := firstPrivacyLoc(body); found != "" {
			return found, nil
		}
	}

	// A 404 is not a failure; report only when every sitemap errored otherwise.
	if unreadable == len(candidates) {
		return "", errors.Join(errs...)
	}
	return "", nil
}

func firstPrivacyLoc(body []byte) string {
	var u urlset
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&u); err != nil {
		return ""
	}
	for _, link := range u.URLs {
		if urlutil.ContainsPrivacy(link.Loc) {
			return link.Loc
		}
	}
	return ""
}
