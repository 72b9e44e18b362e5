package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultDuckDuckGoURL = "https://duckduckgo.com/html/"

// DuckDuckGo scrapes the keyless HTML endpoint.
type DuckDuckGo struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	base := d.BaseURL
	if base == "" {
		base = defaultDuckDuckGoURL
	}
	reqURL := base + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	hc := d.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("duckduckgo status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}

	seen := make(map[string]struct{})
	var out []Result
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if len(out) >= limit {
			return
		}
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		// DuckDuckGo rewrites links as /l/?uddg=<encoded>
		if strings.Contains(href, "duckduckgo.com/l/?") {
			if decoded := decodeDDGLink(href); decoded != "" {
				href = decoded
			}
		}

		if !strings.HasPrefix(href, "http") {
			return
		}
		if strings.Contains(href, "duckduckgo.com") {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		out = append(out, Result{
			Title:  strings.TrimSpace(a.Text()),
			URL:    href,
			Source: d.Name(),
		})
	})

	return out, nil
}

func decodeDDGLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	// Query() already unescapes the value.
	return u.Query().Get("uddg")
}
