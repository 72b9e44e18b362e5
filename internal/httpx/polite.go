package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
)

const (
	defaultUserAgent    = "policy-summarizer/1.0"
	defaultMaxBodyBytes = 10 << 20
	defaultMaxRedirects = 10
	probeDrainBytes     = 64 << 10
)

var ErrBlockedByRobots = errors.New("blocked by robots.txt")

// Document is a fetched response body. Text bodies are decoded to UTF-8.
type Document struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsPDF reports whether the document is a PDF, by header or magic bytes.
func (d *Document) IsPDF() bool {
	if d == nil {
		return false
	}
	return isPDF(d.ContentType, d.Body)
}

type FetchOptions struct {
	// Timeout bounds the whole request, connect through body read.
	Timeout         time.Duration
	FollowRedirects bool
}

type Options struct {
	UserAgent     string
	MaxBodyBytes  int64
	RespectRobots bool
	Transport     http.RoundTripper
}

// Client issues single, bounded GET requests. It keeps no per-request state.
type Client struct {
	client        *http.Client
	ua            string
	maxBodyBytes  int64
	respectRobots bool
}

func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &Client{
		client:        &http.Client{Transport: transport},
		ua:            opts.UserAgent,
		maxBodyBytes:  opts.MaxBodyBytes,
		respectRobots: opts.RespectRobots,
	}
}

func (c *Client) UserAgent() string {
	return c.ua
}

// NewRequest builds an HTTP GET request with context and a safe URL defaulting to https.
func NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// Fetch issues one GET and returns the body of a 2xx response. Every failure,
// including timeouts and non-2xx statuses, is a *FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts FetchOptions) (*Document, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := NewRequest(ctx, rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	if c.respectRobots && !c.allowed(ctx, req.URL) {
		return nil, &FetchError{URL: rawURL, Err: ErrBlockedByRobots}
	}

	resp, err := c.httpClient(opts.FollowRedirects).Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, probeDrainBytes))
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode, Err: fmt.Errorf("body exceeds %d bytes", c.maxBodyBytes)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isPDF(contentType, body) {
		body = decodeText(body, contentType)
	}

	return &Document{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// Probe follows redirects and reports the final URL and status without
// keeping the body. Only transport failures are errors; any HTTP status is a
// valid answer.
func (c *Client) Probe(ctx context.Context, rawURL string, timeout time.Duration) (string, int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := NewRequest(ctx, rawURL)
	if err != nil {
		return "", 0, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.ua)

	if c.respectRobots && !c.allowed(ctx, req.URL) {
		return "", 0, &FetchError{URL: rawURL, Err: ErrBlockedByRobots}
	}

	resp, err := c.httpClient(true).Do(req)
	if err != nil {
		return "", 0, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, probeDrainBytes))

	return resp.Request.URL.String(), resp.StatusCode, nil
}

func (c *Client) httpClient(followRedirects bool) *http.Client {
	hc := *c.client
	if followRedirects {
		hc.CheckRedirect = limitRedirects
	} else {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &hc
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) >= defaultMaxRedirects {
		return fmt.Errorf("stopped after %d redirects", defaultMaxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
	}
	return nil
}

// allowed fails open: a missing or unreadable robots.txt permits the fetch.
func (c *Client) allowed(ctx context.Context, u *url.URL) bool {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.httpClient(true).Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return true
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return data.TestAgent(p, c.ua)
}

func isPDF(contentType string, body []byte) bool {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(body, []byte("%PDF-"))
}

// decodeText converts a body in a declared or sniffed charset to UTF-8,
// returning the input unchanged when it cannot.
func decodeText(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}
