package artifacts

import (
	"net/url"
	"strings"
)

// NormalizeURL trims whitespace and prepends https:// when the value has no
// scheme. It never fails: the permit QR encodes whatever string results, so
// a bad link degrades to a bad QR rather than blocking approval.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return s
}

// ValidURL reports whether the (already normalized) value looks like a real
// http(s) link: correct scheme and a host that contains a dot or is
// localhost. Advisory only; see NormalizeURL.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	return host == "localhost" || strings.Contains(host, ".")
}
