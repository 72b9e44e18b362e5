package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
)

func TestFetch_ReturnsBodyAndFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/privacy", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/privacy", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>hello</p>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Options{UserAgent: "test-agent"})
	doc, err := c.Fetch(context.Background(), srv.URL+"/old", FetchOptions{Timeout: 2 * time.Second, FollowRedirects: true})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.URL != srv.URL+"/privacy" {
		t.Fatalf("expected final url after redirect, got %q", doc.URL)
	}
	if string(doc.Body) != "<p>hello</p>" {
		t.Fatalf("unexpected body %q", doc.Body)
	}
	if doc.IsPDF() {
		t.Fatal("html document reported as pdf")
	}
}

func TestFetch_RedirectNotFollowedIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{})
	_, err := c.Fetch(context.Background(), srv.URL+"/", FetchOptions{Timeout: time.Second})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Status != http.StatusFound {
		t.Fatalf("expected status 302, got %d", fe.Status)
	}
}

func TestFetch_Non2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Options{})
	_, err := c.Fetch(context.Background(), srv.URL, FetchOptions{Timeout: time.Second, FollowRedirects: true})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Fatalf("expected 404 FetchError, got %v", err)
	}
}

func TestFetch_TimeoutUnwrapsToDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{})
	_, err := c.Fetch(context.Background(), srv.URL, FetchOptions{Timeout: 50 * time.Millisecond})
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	c := NewClient(Options{MaxBodyBytes: 16})
	_, err := c.Fetch(context.Background(), srv.URL, FetchOptions{Timeout: time.Second})
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected body limit error, got %v", err)
	}
}

func TestFetch_DecodesDeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	c := NewClient(Options{})
	doc, err := c.Fetch(context.Background(), srv.URL, FetchOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(doc.Body) != "<p>café</p>" {
		t.Fatalf("expected utf-8 body, got %q", doc.Body)
	}
}

func TestFetch_PDFBodyUntouched(t *testing.T) {
	raw := "%PDF-1.4\n\xe9\xff"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(raw))
	}))
	defer srv.Close()

	c := NewClient(Options{})
	doc, err := c.Fetch(context.Background(), srv.URL, FetchOptions{Timeout: time.Second})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !doc.IsPDF() || string(doc.Body) != raw {
		t.Fatalf("expected raw pdf body, got %q", doc.Body)
	}
}

func TestFetch_RespectsRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Options{RespectRobots: true})
	_, err := c.Fetch(context.Background(), srv.URL+"/private/policy", FetchOptions{Timeout: time.Second})
	if !errors.Is(err, ErrBlockedByRobots) {
		t.Fatalf("expected robots block, got %v", err)
	}
	if _, err := c.Fetch(context.Background(), srv.URL+"/privacy", FetchOptions{Timeout: time.Second}); err != nil {
		t.Fatalf("allowed path failed: %v", err)
	}
}

func TestProbe_ReportsStatusAndFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/privacy-policy", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/legal/privacy", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/legal/privacy", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("policy"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Options{})
	final, status, err := c.Probe(context.Background(), srv.URL+"/privacy-policy", time.Second)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if status != http.StatusOK || final != srv.URL+"/legal/privacy" {
		t.Fatalf("unexpected probe result %q %d", final, status)
	}

	_, status, err = c.Probe(context.Background(), srv.URL+"/missing", time.Second)
	if err != nil {
		t.Fatalf("probe of missing page should not error: %v", err)
	}
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestNewRequest_RejectsUnsupportedScheme(t *testing.T) {
	if _, err := NewRequest(context.Background(), "ftp://example.com/file"); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
	req, err := NewRequest(context.Background(), "example.com/privacy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.URL.Scheme != "https" {
		t.Fatalf("expected https default, got %q", req.URL.Scheme)
	}
}

func TestCollyFetcher_RunsHooksAgainstFinalPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/en/", http.StatusFound)
	})
	mux.HandleFunc("/en/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="privacy">Privacy</a></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewCollyFetcher("test-agent", false, 0)
	var link string
	status, err := f.Fetch(context.Background(), srv.URL+"/", time.Second, func(c *colly.Collector) {
		c.OnHTML("a[href]", func(e *colly.HTMLElement) {
			link = e.Request.AbsoluteURL(e.Attr("href"))
		})
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if link != srv.URL+"/en/privacy" {
		t.Fatalf("expected link resolved against final page, got %q", link)
	}
}

func TestCollyFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewCollyFetcher("", false, 0)
	_, _, err := f.FetchBytes(context.Background(), srv.URL, time.Second)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", fe.Status)
	}
}
