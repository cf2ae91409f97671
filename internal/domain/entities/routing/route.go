// Package routing defines request classification entities.
package routing

import "net/url"

// Category is the outcome of classifying an incoming request. Exactly one
// category applies to any request.
type Category string

const (
	// CategorySkip bypasses caching entirely (non-GET requests).
	CategorySkip Category = "skip"
	// CategoryNavigationOffline is a navigation on the offline allow-list.
	CategoryNavigationOffline Category = "navigation-offline"
	// CategoryNavigationOnline is any other navigation.
	CategoryNavigationOnline Category = "navigation-online"
	// CategoryAPI is a request under the API prefix.
	CategoryAPI Category = "api"
	// CategoryStaticAsset is a style/script/image/font request.
	CategoryStaticAsset Category = "static-asset"
	// CategoryGeneric is everything else.
	CategoryGeneric Category = "generic"
)

// Destination mirrors the browser's request destination hint.
type Destination string

const (
	DestinationStyle  Destination = "style"
	DestinationScript Destination = "script"
	DestinationImage  Destination = "image"
	DestinationFont   Destination = "font"
)

// Request carries the fields classification inspects.
type Request struct {
	Method      string
	URL         *url.URL
	Navigate    bool
	Destination Destination
}

// CacheKey is the request identity entries are stored under.
func (r *Request) CacheKey() string {
	key := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	return key
}
