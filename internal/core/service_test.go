package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/baxromumarov/policy-summarizer/internal/ai"
	"github.com/baxromumarov/policy-summarizer/internal/discovery"
	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	"github.com/baxromumarov/policy-summarizer/internal/search"
)

type stubLocator struct {
	url string
	err error
}

func (s *stubLocator) Locate(context.Context, string) (string, error) { return s.url, s.err }

type stubFetcher struct {
	pages   map[string]string
	err     error
	fetched []string
	opts    httpx.FetchOptions
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string, opts httpx.FetchOptions) (*httpx.Document, error) {
	f.fetched = append(f.fetched, rawURL)
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, &httpx.FetchError{URL: rawURL, Status: http.StatusNotFound}
	}
	return &httpx.Document{URL: rawURL, StatusCode: http.StatusOK, ContentType: "text/html", Body: []byte(body)}, nil
}

type countingAI struct {
	calls int
	last  ai.Request
	out   json.RawMessage
	err   error
	block bool
}

func (c *countingAI) Name() string { return "counting" }

func (c *countingAI) Summarize(ctx context.Context, req ai.Request) (json.RawMessage, error) {
	c.calls++
	c.last = req
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.out != nil {
		return c.out, nil
	}
	return json.RawMessage(`{"site":"` + req.Site + `"}`), nil
}

type staticProvider struct{ results []search.Result }

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) Search(context.Context, string, int) ([]search.Result, error) {
	return p.results, nil
}

func TestSummarize_EndToEnd(t *testing.T) {
	locator := discovery.NewLocator(nil, &discovery.SearchStrategy{
		Provider: &staticProvider{results: []search.Result{{URL: "https://example.com/legal/privacy"}}},
	})
	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/legal/privacy": `<html><body><div style="display:none">secret</div><p>We collect your email.</p></body></html>`,
	}}
	model := &countingAI{}

	svc := NewSummarizerService(locator, fetcher, model, Options{FetchTimeout: time.Second}, nil)
	got, err := svc.Summarize(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got.PolicyURL != "https://example.com/legal/privacy" {
		t.Fatalf("unexpected policy url %q", got.PolicyURL)
	}
	if model.last.Text != "We collect your email." {
		t.Fatalf("unexpected text sent to model %q", model.last.Text)
	}
	if model.last.Site != "https://example.com" || model.last.PolicyURL != got.PolicyURL {
		t.Fatalf("unexpected model request %+v", model.last)
	}
	if got.Words != 4 || string(got.Result) != `{"site":"https://example.com"}` {
		t.Fatalf("unexpected summary %+v", got)
	}
	if !fetcher.opts.FollowRedirects || fetcher.opts.Timeout != time.Second {
		t.Fatalf("document fetch must follow redirects with the fetch timeout, got %+v", fetcher.opts)
	}
}

func TestSummarize_WordLimitBoundary(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantCalls int
	}{
		{name: "at limit", body: "<p>one two three four five</p>", wantCalls: 1},
		{name: "over limit", body: "<p>one two three four five six</p>", wantErr: true, wantCalls: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &stubFetcher{pages: map[string]string{"https://example.com/privacy": tc.body}}
			model := &countingAI{}
			svc := NewSummarizerService(&stubLocator{url: "https://example.com/privacy"}, fetcher, model, Options{MaxWords: 5}, nil)

			_, err := svc.Summarize(context.Background(), "example.com")
			if tc.wantErr {
				var tooLarge *DocumentTooLargeError
				if !errors.As(err, &tooLarge) {
					t.Fatalf("expected DocumentTooLargeError, got %v", err)
				}
				if tooLarge.Words != 6 || tooLarge.Limit != 5 {
					t.Fatalf("unexpected error details %+v", tooLarge)
				}
				var stageErr *StageError
				if !errors.As(err, &stageErr) || stageErr.Stage != StageSizeCheck {
					t.Fatalf("expected size_check stage, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model.calls != tc.wantCalls {
				t.Fatalf("expected %d model calls, got %d", tc.wantCalls, model.calls)
			}
		})
	}
}

func TestSummarize_StrictModeNotFound(t *testing.T) {
	fetcher := &stubFetcher{}
	model := &countingAI{}
	svc := NewSummarizerService(&stubLocator{}, fetcher, model, Options{}, nil)

	_, err := svc.Summarize(context.Background(), "Example.com")
	var notFound *PolicyNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected PolicyNotFoundError, got %v", err)
	}
	if notFound.Site != "https://example.com" {
		t.Fatalf("unexpected site %q", notFound.Site)
	}
	if len(fetcher.fetched) != 0 || model.calls != 0 {
		t.Fatal("nothing should be fetched or summarized when no policy is found")
	}
}

func TestSummarize_LenientModeFetchesInput(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/terms": "<p>We collect cookies.</p>",
	}}
	model := &countingAI{}
	svc := NewSummarizerService(&stubLocator{}, fetcher, model, Options{Mode: ModeLenient}, nil)

	got, err := svc.Summarize(context.Background(), "example.com/terms")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got.PolicyURL != "https://example.com/terms" || fetcher.fetched[0] != "https://example.com/terms" {
		t.Fatalf("expected the input to be fetched, got %v", fetcher.fetched)
	}
}

func TestSummarize_FetchFailure(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{}}
	svc := NewSummarizerService(&stubLocator{url: "https://example.com/privacy"}, fetcher, &countingAI{}, Options{}, nil)

	_, err := svc.Summarize(context.Background(), "example.com")
	var fe *httpx.FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Fatalf("expected FetchError 404, got %v", err)
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageFetch {
		t.Fatalf("expected fetch stage, got %v", err)
	}
}

func TestSummarize_Timeouts(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		fetcher := &stubFetcher{err: &httpx.FetchError{URL: "u", Err: context.DeadlineExceeded}}
		svc := NewSummarizerService(&stubLocator{url: "https://example.com/privacy"}, fetcher, &countingAI{}, Options{}, nil)

		_, err := svc.Summarize(context.Background(), "example.com")
		var te *TimeoutError
		if !errors.As(err, &te) || te.Stage != StageFetch {
			t.Fatalf("expected fetch TimeoutError, got %v", err)
		}
	})

	t.Run("summarize", func(t *testing.T) {
		fetcher := &stubFetcher{pages: map[string]string{"https://example.com/privacy": "<p>short policy</p>"}}
		model := &countingAI{block: true}
		svc := NewSummarizerService(&stubLocator{url: "https://example.com/privacy"}, fetcher, model, Options{LLMTimeout: 20 * time.Millisecond}, nil)

		_, err := svc.Summarize(context.Background(), "example.com")
		var te *TimeoutError
		if !errors.As(err, &te) || te.Stage != StageSummarize {
			t.Fatalf("expected summarize TimeoutError, got %v", err)
		}
	})
}

func TestSummarize_MalformedModelOutput(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{"https://example.com/privacy": "<p>short policy</p>"}}
	model := &countingAI{err: &ai.SummarizationError{Raw: "oops", Err: errors.New("not json")}}
	svc := NewSummarizerService(&stubLocator{url: "https://example.com/privacy"}, fetcher, model, Options{}, nil)

	_, err := svc.Summarize(context.Background(), "example.com")
	var se *ai.SummarizationError
	if !errors.As(err, &se) || se.Raw != "oops" {
		t.Fatalf("expected SummarizationError, got %v", err)
	}
}

func TestSummarize_EmptyInput(t *testing.T) {
	svc := NewSummarizerService(&stubLocator{}, &stubFetcher{}, &countingAI{}, Options{}, nil)
	if _, err := svc.Summarize(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := svc.Locate(context.Background(), ""); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestLocate_PassesThrough(t *testing.T) {
	svc := NewSummarizerService(&stubLocator{url: "https://example.com/privacy"}, &stubFetcher{}, &countingAI{}, Options{}, nil)
	got, err := svc.Locate(context.Background(), "example.com")
	if err != nil || got != "https://example.com/privacy" {
		t.Fatalf("unexpected locate result %q %v", got, err)
	}

	svc = NewSummarizerService(&stubLocator{err: context.Canceled}, &stubFetcher{}, &countingAI{}, Options{}, nil)
	if _, err := svc.Locate(context.Background(), "example.com"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to propagate, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	err := &StageError{Stage: StageSizeCheck, Err: &DocumentTooLargeError{Words: 8000, Limit: 7000}}
	if !strings.Contains(err.Error(), "too long to summarize") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
