package requestcache

import "net/url"

// Key builds a cache key from an endpoint prefix and query parameters.
// url.Values.Encode sorts by key, so parameter construction order never
// produces distinct keys for the same logical query.
func Key(prefix string, params url.Values) string {
	if len(params) == 0 {
		return prefix
	}
	return prefix + "?" + params.Encode()
}
