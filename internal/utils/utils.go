package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Errors
var (
	ErrEmptyURL      = errors.New("empty url")
	ErrMissingScheme = errors.New("missing scheme")
	ErrMissingHost   = errors.New("missing host")
)

// QueryVar is one name/value pair taken from a query string, kept in the order
// the name first appeared.
type QueryVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseBaseURL validates raw as an absolute page URL usable as a resolution
// base. The scheme is lower-cased and the host converted to its ASCII
// (punycode) form; path, query and fragment are left untouched.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: ErrEmptyURL}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: ErrMissingScheme}
	}
	if u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: ErrMissingHost}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	switch port := u.Port(); {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	return u, nil
}

// ToAbsolute resolves link against base and reports whether it produced a
// usable URL.
//
// Examples, with base http://h/p/:
//
//	ToAbsolute(base, "/x?a=1&b=2")        → "http://h/x?a=1&b=2"
//	ToAbsolute(base, "page.html#frag")    → "http://h/p/page.html"
//	ToAbsolute(base, "https://o/y#z")     → "https://o/y#z" (has a host, kept verbatim)
//	ToAbsolute(base, "//cdn.h/y?z=1")     → "http://cdn.h/y?z=1" (base scheme added)
//	ToAbsolute(base, "javascript:void(0)") → "", false
func ToAbsolute(base *url.URL, link string) (string, bool) {
	if base == nil {
		return "", false
	}
	link = strings.TrimSpace(link)

	if u, err := url.Parse(link); err == nil && u.Host != "" {
		if u.Scheme == "" {
			return base.Scheme + ":" + link, true
		}
		return link, true
	}

	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}

	rel, err := url.Parse(EncodeURI(link))
	if err != nil {
		return "", false
	}
	// javascript:, mailto:, data: and friends have no hierarchical part to merge.
	if rel.Opaque != "" {
		return "", false
	}
	if rel.Scheme != "" && rel.Host == "" {
		return "", false
	}

	abs := base.ResolveReference(rel)
	abs.Fragment = ""
	abs.RawFragment = ""
	if abs.Path == "" {
		abs.Path = "/"
		abs.RawPath = ""
	}
	return abs.String(), true
}

// EncodeURI percent-encodes every byte outside the unreserved and reserved
// URI character sets. Existing %XX escapes are preserved.
func EncodeURI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(c)
		case isURIChar(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// LinkVars splits the query part of link into variables. The split is literal:
// "&" separates pairs and "=" separates name from value, nothing is
// URL-decoded, a pair without "=" yields an empty value and a repeated name
// keeps the last value in the position of its first occurrence.
func LinkVars(link string) []QueryVar {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	parts := strings.Split(link, "?")
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}

	var vars []QueryVar
	index := make(map[string]int)
	for _, pair := range strings.Split(parts[1], "&") {
		if pair == "" {
			continue
		}
		fields := strings.Split(pair, "=")
		name := fields[0]
		if name == "" {
			continue
		}
		value := ""
		if len(fields) > 1 {
			value = fields[1]
		}
		if at, seen := index[name]; seen {
			vars[at].Value = value
			continue
		}
		index[name] = len(vars)
		vars = append(vars, QueryVar{Name: name, Value: value})
	}
	return vars
}

// StripQuery returns rawURL without its query string and fragment.
func StripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isURIChar(c byte) bool {
	if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
		return true
	}
	return strings.IndexByte("-_.!~*'();/?:@&=+$,[]", c) >= 0
}
