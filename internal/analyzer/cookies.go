package analyzer

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// cookieValueCleaner removes quoting and bracket characters from every
// flattened cookie field. Applied to all fields alike, so a legitimately
// bracketed value such as "[1,2]" comes out as "1,2".
var cookieValueCleaner = strings.NewReplacer(`"`, "", `\`, "", "[", "", "]", "")

// extractCookies parses every Set-Cookie header into flat string records.
// Header names are matched case-insensitively since callers may pass
// lower-cased maps.
func extractCookies(headers http.Header) []CookieElement {
	var keys []string
	for key := range headers {
		if strings.EqualFold(key, "Set-Cookie") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var cookies []CookieElement
	for _, key := range keys {
		for _, value := range headers[key] {
			for _, line := range strings.Split(value, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				c, err := http.ParseSetCookie(cleanPair(line))
				if err != nil {
					continue
				}
				cookies = append(cookies, flattenCookie(c))
			}
		}
	}
	return cookies
}

// cleanPair strips the cleaner's characters from the leading name=value
// pair so that ParseSetCookie accepts values holding a raw `"` or `\`.
func cleanPair(line string) string {
	pair, attrs, found := strings.Cut(line, ";")
	pair = cookieValueCleaner.Replace(pair)
	if !found {
		return pair
	}
	return pair + ";" + attrs
}

func flattenCookie(c *http.Cookie) CookieElement {
	out := CookieElement{
		Name:    clean(c.Name),
		Value:   clean(c.Value),
		Domain:  clean(c.Domain),
		Path:    clean(c.Path),
		Expires: clean(c.RawExpires),
	}
	switch {
	case c.MaxAge > 0:
		out.MaxAge = strconv.Itoa(c.MaxAge)
	case c.MaxAge < 0:
		out.MaxAge = "0"
	}
	if c.Secure {
		out.Secure = "true"
	}
	if c.HttpOnly {
		out.HTTPOnly = "true"
	}
	switch c.SameSite {
	case http.SameSiteLaxMode:
		out.SameSite = "Lax"
	case http.SameSiteStrictMode:
		out.SameSite = "Strict"
	case http.SameSiteNoneMode:
		out.SameSite = "None"
	}
	return out
}

func clean(s string) string {
	return cookieValueCleaner.Replace(strings.TrimSpace(s))
}
