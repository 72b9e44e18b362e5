package content

import (
	"html"
	"strings"
	"testing"

	"github.com/baxromumarov/policy-summarizer/internal/httpx"
)

func TestNormalize_HiddenElementDropped(t *testing.T) {
	in := `<html><body><div style="display:none">secret</div><p>We collect your email.</p></body></html>`
	if got := Normalize(in); got != "We collect your email." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestNormalize_RemovesNonContentElements(t *testing.T) {
	in := `<html><head><title>titletext</title><script>var s = "scripttext";</script></head><body>
<nav>navtext</nav><header>headertext</header>
<p>Keep one.</p>
<aside>asidetext</aside><noscript>noscripttext</noscript><style>.stylecss{}</style>
<span aria-hidden="true">ariatext</span>
<div style="color: red; DISPLAY : None;">hiddentext <b>nested</b></div>
<footer>footertext</footer>
</body></html>`

	got := Normalize(in)
	if !strings.Contains(got, "Keep one.") {
		t.Fatalf("visible text missing: %q", got)
	}
	for _, removed := range []string{
		"titletext", "scripttext", "navtext", "headertext", "asidetext",
		"noscripttext", "stylecss", "ariatext", "hiddentext", "nested", "footertext",
	} {
		if strings.Contains(got, removed) {
			t.Errorf("text from removed element %q leaked into %q", removed, got)
		}
	}
}

func TestNormalize_BlockAndInlineLayout(t *testing.T) {
	in := `<html><body><p>Hello <b>bold</b> world</p><ul><li>One</li><li>Two</li></ul></body></html>`
	want := "Hello bold world\n\nOne\n\nTwo"
	if got := Normalize(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalize_LineBreaks(t *testing.T) {
	in := `<p>first line<br>second line</p>`
	if got := Normalize(in); got != "first line\nsecond line" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestNormalize_EmptyResult(t *testing.T) {
	in := `<html><body><script>track()</script><nav>menu</nav></body></html>`
	if got := Normalize(in); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestNormalize_WhitespaceInvariants(t *testing.T) {
	in := `<html><body>
	<div>   Privacy    matters.   </div>


	<div><p>We&nbsp;&nbsp;collect	data.  </p>



	<p> </p><p>
	We share it
	</p></div>
	<table><tr><td>cell  one</td><td>cell two</td></tr></table>
</body></html>`

	got := Normalize(in)
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("found three consecutive newlines in %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("found double space in %q", got)
	}
	if strings.Contains(got, " \n") {
		t.Errorf("found trailing space before newline in %q", got)
	}
	if got != strings.TrimSpace(got) {
		t.Errorf("result not trimmed: %q", got)
	}
	for _, want := range []string{"Privacy matters.", "We collect data.", "We share it", "cell one", "cell two"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	in := "a   b\t\tc  d\r\n\r\n\r\n\r\ne   \nf"
	if got := NormalizeText(in); got != "a b c d\n\ne\nf" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestNormalizeText_StripsSections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blank line terminator",
			in:   "Introduction\nThis policy explains things.\n\nWe collect your email.",
			want: "We collect your email.",
		},
		{
			name: "header terminator kept",
			in:   "Definitions: words mean things\nData We Collect: email",
			want: "Data We Collect: email",
		},
		{
			name: "changes to policy",
			in:   "Changes to this Policy may happen at any time.\n\nWe sell nothing.",
			want: "We sell nothing.",
		},
		{
			name: "case insensitive data controller",
			in:   "DATA CONTROLLER is Example Inc.\n\nWe keep logs.",
			want: "We keep logs.",
		},
		{
			name: "consecutive sections share terminators",
			in:   "Governing law applies.\n\nGoverning law again.\n\nKeep me.",
			want: "Keep me.",
		},
		{
			name: "no terminator leaves text alone",
			in:   "Contact us at privacy@example.com",
			want: "Contact us at privacy@example.com",
		},
		{
			name: "surrounding text preserved",
			in:   "We collect email.\n\nEffective date: 2024-01-01\n\nWe share nothing.",
			want: "We collect email.\n\nWe share nothing.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeText(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := `<html><body>
<h1>Example Privacy Policy</h1>
<p>Introduction. This explains how we handle data.</p>
<h2>What we collect</h2>
<p>We collect your <em>email</em> and   device identifiers.</p>
<ul><li>Account data</li><li>Usage data</li></ul>
<h2>Sharing</h2>
<p>We share data with payment processors.</p>
</body></html>`

	first := Normalize(in)
	if first == "" {
		t.Fatal("expected non-empty text")
	}
	second := Normalize("<html><body><pre>" + html.EscapeString(first) + "</pre></body></html>")

	if strings.Join(strings.Fields(first), " ") != strings.Join(strings.Fields(second), " ") {
		t.Fatalf("normalization not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"a b\n\nc", 3},
		{"  spaced   out  ", 2},
	}
	for _, tc := range tests {
		if got := WordCount(tc.in); got != tc.want {
			t.Errorf("WordCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDocument(t *testing.T) {
	doc := &httpx.Document{
		URL:         "https://example.com/privacy",
		ContentType: "text/html",
		Body:        []byte(`<p>We collect your email.</p>`),
	}
	got, err := NormalizeDocument(doc)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "We collect your email." {
		t.Fatalf("unexpected text %q", got)
	}

	if _, err := NormalizeDocument(nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestNormalizeDocument_MalformedPDF(t *testing.T) {
	doc := &httpx.Document{
		ContentType: "application/pdf",
		Body:        []byte("%PDF-1.4\nnot really a pdf"),
	}
	if _, err := NormalizeDocument(doc); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}
