// Package asin extracts Amazon product identifiers from affiliate links.
package asin

import (
	"net/url"
	"regexp"
	"strings"
)

// An ASIN is 10 characters, uppercase alphanumeric, e.g. B08N5WRWNW.
var pathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/gp/aw/d/([A-Z0-9]{10})(?:[/?]|$)`),
	regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})(?:[/?]|$)`),
}

var asinShape = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Extract derives an ASIN from an Amazon product URL. The second return
// value is false when the URL does not contain a recognizable identifier.
// Extract never fails on malformed input.
func Extract(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}

	for _, re := range pathPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	for _, key := range []string{"asin", "ASIN"} {
		if v := u.Query().Get(key); v != "" {
			v = strings.ToUpper(v)
			if asinShape.MatchString(v) {
				return v, true
			}
		}
	}

	return "", false
}
