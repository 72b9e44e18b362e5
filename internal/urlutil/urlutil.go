package urlutil

import (
	"net/url"
	"path"
	"strings"
)

const defaultScheme = "https"

var staticExtensions = map[string]struct{}{
	".css":   {},
	".gif":   {},
	".ico":   {},
	".jpeg":  {},
	".jpg":   {},
	".js":    {},
	".json":  {},
	".mp3":   {},
	".mp4":   {},
	".png":   {},
	".svg":   {},
	".ttf":   {},
	".woff":  {},
	".woff2": {},
	".zip":   {},
}

// Site is a DomainInput reduced to scheme://host.
type Site struct {
	Scheme string
	Host   string
}

func (s Site) String() string {
	return s.Scheme + "://" + s.Host
}

// Hostname returns the host without a port.
func (s Site) Hostname() string {
	u := url.URL{Scheme: s.Scheme, Host: s.Host}
	if h := u.Hostname(); h != "" {
		return h
	}
	return s.Host
}

// URL joins the site with an absolute path.
func (s Site) URL(p string) string {
	if p == "" {
		return s.String()
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return s.String() + p
}

// NormalizeSite turns a bare hostname or full URL into scheme://host. Inputs
// without a scheme default to https; inputs that still yield no host are used
// verbatim as the host.
func NormalizeSite(raw string) Site {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return Site{Scheme: strings.ToLower(u.Scheme), Host: strings.ToLower(u.Host)}
	}
	if u, err := url.Parse(defaultScheme + "://" + raw); err == nil && u.Host != "" {
		return Site{Scheme: defaultScheme, Host: strings.ToLower(u.Host)}
	}
	return Site{Scheme: defaultScheme, Host: raw}
}

// EnsureScheme prefixes https:// when raw has no scheme.
func EnsureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return raw
	}
	return defaultScheme + "://" + strings.TrimPrefix(raw, "//")
}

// ContainsPrivacy reports whether s mentions "privacy" in any letter case.
func ContainsPrivacy(s string) bool {
	return ContainsAny(s, []string{"privacy"})
}

func ContainsAny(text string, keywords []string) bool {
	lowerText := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// ResolveLink resolves href against base, dropping mailto:, tel: and
// javascript: links.
func ResolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" {
		u.Scheme = defaultScheme
	}
	return u.String()
}

// SameSite compares hosts ignoring case and a leading "www.".
func SameSite(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return normalizeHost(a) == normalizeHost(b)
}

func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func IsStaticAsset(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return false
	}
	_, ok := staticExtensions[ext]
	return ok
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.TrimPrefix(host, "www.")
	return host
}
