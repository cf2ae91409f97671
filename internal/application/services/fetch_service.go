package services

import (
	"context"
	"net/http"

	"github.com/GatherLoop/gathersync/internal/domain/entities/routing"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/pkg/config"
	"golang.org/x/sync/singleflight"
)

// offlinePageHTML is the locally synthesized fallback for navigations
// that need connectivity. Served with status 200 so the app's branding
// renders instead of a native error page.
const offlinePageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Internet Connection Required</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0;background:#f8fafc;color:#0f172a}
main{text-align:center;padding:2rem}
a{color:#2563eb}
</style>
</head>
<body>
<main>
<h1>Internet Connection Required</h1>
<p>This page needs a connection to load. Your cached pages are still available.</p>
<p><a href="/">Back to the app</a></p>
</main>
</body>
</html>`

// FetchService executes the caching strategy selected by classification.
type FetchService struct {
	cache      interfaces.Cache
	origin     *origin.Client
	classifier *ClassifierService
	logger     *logging.ChanneledLogger
	revalidate singleflight.Group
}

// NewFetchService creates the strategy executor.
func NewFetchService(cache interfaces.Cache, originClient *origin.Client, classifier *ClassifierService, logger *logging.ChanneledLogger) *FetchService {
	return &FetchService{
		cache:      cache,
		origin:     originClient,
		classifier: classifier,
		logger:     logger,
	}
}

// OfflinePage builds the synthesized connectivity-required response.
func OfflinePage() *types.CachedEntry {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	return &types.CachedEntry{
		Status:  http.StatusOK,
		Headers: headers,
		Body:    []byte(offlinePageHTML),
	}
}

// Handle classifies the request and runs the matching strategy.
func (s *FetchService) Handle(ctx context.Context, req *routing.Request, header http.Header, body []byte) (*types.CachedEntry, error) {
	category := s.classifier.Classify(req)
	s.logger.Routing().Debug("Request classified",
		"method", req.Method, "path", req.URL.Path, "category", string(category))

	switch category {
	case routing.CategorySkip:
		return s.origin.Fetch(ctx, req.Method, req.URL.RequestURI(), header, body)
	case routing.CategoryStaticAsset:
		return s.cacheFirst(ctx, req)
	case routing.CategoryNavigationOnline:
		return s.networkFirstOfflinePage(ctx, req)
	case routing.CategoryNavigationOffline:
		return s.cacheFirstRevalidate(ctx, req)
	case routing.CategoryAPI:
		return s.networkFirstCacheFallback(ctx, req)
	default:
		return s.genericNetworkFirst(ctx, req)
	}
}

// cacheFirst serves static assets: a hit returns immediately with no
// freshness check (assets are presumed content-addressed); a miss fetches
// and re-caches fire-and-forget.
func (s *FetchService) cacheFirst(ctx context.Context, req *routing.Request) (*types.CachedEntry, error) {
	key := req.CacheKey()
	if entry, found := s.cache.Lookup(config.PartitionStatic, key); found {
		return entry, nil
	}

	entry, err := s.origin.Get(ctx, req.URL.RequestURI())
	if err != nil {
		return nil, err
	}
	if entry.Status == http.StatusOK {
		s.detachedStore(config.PartitionStatic, key, entry)
	}
	return entry, nil
}

// networkFirstOfflinePage serves online-only navigations: successes pass
// through uncached; a network failure yields the synthesized offline page.
func (s *FetchService) networkFirstOfflinePage(ctx context.Context, req *routing.Request) (*types.CachedEntry, error) {
	entry, err := s.origin.Get(ctx, req.URL.RequestURI())
	if err != nil {
		s.logger.Routing().Info("Online-only navigation failed, serving offline page",
			"path", req.URL.Path, "error", err.Error())
		return OfflinePage(), nil
	}
	return entry, nil
}

// cacheFirstRevalidate serves offline-eligible navigations: a hit returns
// the cached copy immediately and refreshes it in the background; a miss
// fetches synchronously. A miss with the network down falls back to the
// offline page rather than failing the navigation.
func (s *FetchService) cacheFirstRevalidate(ctx context.Context, req *routing.Request) (*types.CachedEntry, error) {
	key := req.CacheKey()
	if entry, found := s.cache.Lookup(config.PartitionPages, key); found {
		s.revalidatePage(req.URL.RequestURI(), key)
		return entry, nil
	}

	entry, err := s.origin.Get(ctx, req.URL.RequestURI())
	if err != nil {
		s.logger.Routing().Info("Offline-eligible navigation missed cache with network down",
			"path", req.URL.Path, "error", err.Error())
		return OfflinePage(), nil
	}
	if entry.Status == http.StatusOK {
		s.storeAndMaintain(config.PartitionPages, key, entry)
	}
	return entry, nil
}

// revalidatePage refreshes one cached page in the background. Deduplicated
// per key; a failed refresh leaves the cached copy untouched.
func (s *FetchService) revalidatePage(requestURI, key string) {
	go func() {
		defer func() { _ = recover() }()

		_, _, _ = s.revalidate.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), config.OriginFetchTimeout)
			defer cancel()

			fresh, err := s.origin.Get(ctx, requestURI)
			if err != nil || fresh.Status != http.StatusOK {
				return nil, nil
			}
			s.storeAndMaintain(config.PartitionPages, key, fresh)
			return nil, nil
		})
	}()
}

// networkFirstCacheFallback serves API requests: a 200 is stamped and
// stored before returning, with the partition's sweeps enforced after the
// write; a network failure falls back to the cached copy if present.
func (s *FetchService) networkFirstCacheFallback(ctx context.Context, req *routing.Request) (*types.CachedEntry, error) {
	key := req.CacheKey()

	entry, err := s.origin.Get(ctx, req.URL.RequestURI())
	if err != nil {
		if cached, found := s.cache.Lookup(config.PartitionAPI, key); found {
			s.logger.Routing().Info("API fetch failed, serving cached copy", "path", req.URL.Path)
			return cached, nil
		}
		return nil, err
	}

	if entry.Status == http.StatusOK {
		s.storeAndMaintain(config.PartitionAPI, key, entry)
	}
	return entry, nil
}

// genericNetworkFirst covers everything else: network first with a
// detached cache put on success and a cache fallback on failure.
func (s *FetchService) genericNetworkFirst(ctx context.Context, req *routing.Request) (*types.CachedEntry, error) {
	key := req.CacheKey()

	entry, err := s.origin.Get(ctx, req.URL.RequestURI())
	if err != nil {
		if cached, found := s.cache.Lookup(config.PartitionGeneric, key); found {
			return cached, nil
		}
		return nil, err
	}

	if entry.Status == http.StatusOK {
		s.detachedStore(config.PartitionGeneric, key, entry)
	}
	return entry, nil
}

// storeAndMaintain stamps and stores an entry, then runs the partition's
// eviction and expiration sweeps. The write happens-before the sweep. A
// storage failure is logged, never propagated: the network response is
// still returned to the caller.
func (s *FetchService) storeAndMaintain(class config.PartitionClass, key string, entry *types.CachedEntry) {
	if err := s.cache.StampAndStore(class, key, entry); err != nil {
		s.logger.Cache().Error("Failed to cache response",
			"class", string(class), "key", key, "error", err.Error())
		return
	}
	if _, err := s.cache.Maintain(class); err != nil {
		s.logger.Cache().Error("Cache maintenance failed after write",
			"class", string(class), "error", err.Error())
	}
}

// detachedStore stamps and writes an entry in a detached task with its
// own error boundary, so a caching failure never fails the response.
// Stamping matters even on fire-and-forget paths: an unstamped entry
// reads as infinitely old and the next expiration sweep would delete it.
func (s *FetchService) detachedStore(class config.PartitionClass, key string, entry *types.CachedEntry) {
	copied := entry.Clone()
	go func() {
		defer func() { _ = recover() }()

		if err := s.cache.StampAndStore(class, key, copied); err != nil {
			s.logger.Cache().Error("Detached cache write failed",
				"class", string(class), "key", key, "error", err.Error())
		}
	}()
}
