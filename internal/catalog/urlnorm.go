package catalog

import (
	"net/url"
	"strings"
)

// Tracking query parameters stripped before ticket URLs are compared.
// Ticketing platforms issue stable per-event URLs, but import sources attach
// their own campaign parameters to them.
var trackingParams = map[string]bool{
	"fbclid":    true,
	"gclid":     true,
	"msclkid":   true,
	"mc_cid":    true,
	"mc_eid":    true,
	"ref":       true,
	"referrer":  true,
	"aff":       true,
	"affiliate": true,
	"igshid":    true,
	"spm":       true,
	"_hsenc":    true,
	"_hsmi":     true,
}

// NormalizeTicketURL canonicalizes a ticket URL for equality comparison:
// lowercased scheme and host, tracking parameters removed, fragment dropped
// and the remaining query re-encoded in sorted order. Returns the empty
// string for an empty input and the trimmed input when it cannot be parsed.
func NormalizeTicketURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		values := u.Query()
		for key := range values {
			if trackingParams[strings.ToLower(key)] || strings.HasPrefix(strings.ToLower(key), "utm_") {
				values.Del(key)
			}
		}
		// Encode sorts keys, giving a stable comparison form
		u.RawQuery = values.Encode()
	}

	return u.String()
}
