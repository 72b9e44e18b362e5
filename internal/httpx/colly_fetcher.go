package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher wraps Colly for one-page crawls with CSS-based parsing.
type CollyFetcher struct {
	userAgent     string
	respectRobots bool
	maxBodyBytes  int
}

type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("fetch %s (status %d): %v", e.URL, e.Status, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewCollyFetcher(userAgent string, respectRobots bool, maxBodyBytes int64) *CollyFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &CollyFetcher{
		userAgent:     userAgent,
		respectRobots: respectRobots,
		maxBodyBytes:  int(maxBodyBytes),
	}
}

// Fetch crawls rawURL once. register attaches OnHTML/OnResponse hooks before
// the request is sent. The returned status is the final response status.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration, register func(*colly.Collector)) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := NewRequest(ctx, rawURL)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	target := req.URL.String()

	status, err := f.fetchOnce(ctx, target, timeout, register)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return status, &FetchError{URL: rawURL, Status: status, Err: err}
	}
	return status, nil
}

// FetchBytes returns the raw body of rawURL along with its final URL.
func (f *CollyFetcher) FetchBytes(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, string, error) {
	var body []byte
	finalURL := rawURL
	_, err := f.Fetch(ctx, rawURL, timeout, func(c *colly.Collector) {
		c.OnResponse(func(r *colly.Response) {
			body = append([]byte(nil), r.Body...)
			finalURL = r.Request.URL.String()
		})
	})
	return body, finalURL, err
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string, timeout time.Duration, register func(*colly.Collector)) (int, error) {
	c := f.newCollector(ctx, timeout)
	if register != nil {
		register(c)
	}

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := c.Request(http.MethodGet, target, nil, nil, nil); err != nil {
		return status, err
	}
	if reqErr != nil {
		return status, reqErr
	}
	if status >= 400 {
		return status, fmt.Errorf("status %d", status)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, nil
}

func (f *CollyFetcher) newCollector(ctx context.Context, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.StdlibContext(ctx),
		colly.MaxBodySize(f.maxBodyBytes),
	)
	c.IgnoreRobotsTxt = !f.respectRobots
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}
