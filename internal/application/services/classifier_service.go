// Package services provides the application's singleton services
package services

import (
	"net/http"
	"path"
	"strings"

	"github.com/GatherLoop/gathersync/internal/domain/entities/routing"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// ClassifierService maps an incoming request to exactly one category.
// Rules apply in priority order; the first match wins.
type ClassifierService struct {
	rules *config.RouteRules

	offlinePages map[string]struct{}
	staticExts   map[string]struct{}
}

// NewClassifierService builds a classifier over the injected route rules.
func NewClassifierService(rules *config.RouteRules) *ClassifierService {
	offlinePages := make(map[string]struct{}, len(rules.OfflinePages))
	for _, page := range rules.OfflinePages {
		offlinePages[page] = struct{}{}
	}

	staticExts := make(map[string]struct{}, len(rules.StaticExtensions))
	for _, ext := range rules.StaticExtensions {
		staticExts[strings.ToLower(ext)] = struct{}{}
	}

	return &ClassifierService{
		rules:        rules,
		offlinePages: offlinePages,
		staticExts:   staticExts,
	}
}

// Classify returns the single category that applies to the request.
func (s *ClassifierService) Classify(req *routing.Request) routing.Category {
	// 1. Non-GET requests bypass caching entirely.
	if req.Method != http.MethodGet {
		return routing.CategorySkip
	}

	urlPath := req.URL.Path

	// 2. Navigations split on the offline allow-list.
	if req.Navigate {
		if s.OfflineEligible(urlPath) {
			return routing.CategoryNavigationOffline
		}
		return routing.CategoryNavigationOnline
	}

	// 3. API prefix.
	if strings.HasPrefix(urlPath, s.rules.APIPrefix) {
		return routing.CategoryAPI
	}

	// 4. Static assets by destination hint, extension, or bundler prefix.
	switch req.Destination {
	case routing.DestinationStyle, routing.DestinationScript,
		routing.DestinationImage, routing.DestinationFont:
		return routing.CategoryStaticAsset
	}
	if _, ok := s.staticExts[strings.ToLower(path.Ext(urlPath))]; ok {
		return routing.CategoryStaticAsset
	}
	for _, prefix := range s.rules.StaticPrefixes {
		if strings.HasPrefix(urlPath, prefix) {
			return routing.CategoryStaticAsset
		}
	}

	// 5. Everything else.
	return routing.CategoryGeneric
}

// OfflineEligible reports whether a navigation path is on the offline
// allow-list. Trailing slashes are not significant except for the root.
func (s *ClassifierService) OfflineEligible(urlPath string) bool {
	if urlPath != "/" {
		urlPath = strings.TrimSuffix(urlPath, "/")
	}
	_, ok := s.offlinePages[urlPath]
	return ok
}

// OfflinePages returns the configured allow-list.
func (s *ClassifierService) OfflinePages() []string {
	return s.rules.OfflinePages
}

// ImportantEndpoints returns the API endpoints the refresh job keeps
// warm.
func (s *ClassifierService) ImportantEndpoints() []string {
	return s.rules.ImportantEndpoints
}
