package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RouteRules drives request classification. The defaults match the event
// app's route map; deployments can override them with a routes.yaml file.
type RouteRules struct {
	// APIPrefix marks API requests, e.g. "/api/".
	APIPrefix string `yaml:"apiPrefix"`

	// OfflinePages is the allow-list of navigation paths served from cache
	// when the origin is unreachable.
	OfflinePages []string `yaml:"offlinePages"`

	// StaticExtensions and StaticPrefixes identify static assets by file
	// extension or bundler output path.
	StaticExtensions []string `yaml:"staticExtensions"`
	StaticPrefixes   []string `yaml:"staticPrefixes"`

	// CriticalAssets are pre-fetched into the static partition at install.
	CriticalAssets []string `yaml:"criticalAssets"`

	// ShellAssets are best-effort pre-fetched into the shell partition.
	ShellAssets []string `yaml:"shellAssets"`

	// ImportantEndpoints are re-fetched by the full refresh job; the first
	// two double as the lightweight (installed-app) refresh set.
	ImportantEndpoints []string `yaml:"importantEndpoints"`
}

// DefaultRouteRules returns the built-in route map.
func DefaultRouteRules() *RouteRules {
	return &RouteRules{
		APIPrefix: "/api/",
		OfflinePages: []string{
			"/", "/events", "/categories", "/creators", "/about",
			"/settings", "/terms", "/privacy", "/download",
		},
		StaticExtensions: []string{
			".css", ".js", ".png", ".jpg", ".jpeg", ".svg", ".ico", ".woff", ".woff2",
		},
		StaticPrefixes: []string{"/_next/static/", "/static/"},
		CriticalAssets: []string{
			"/offline.html", "/manifest.webmanifest",
			"/icons/icon-192.png", "/icons/icon-512.png",
		},
		ShellAssets: []string{"/", "/_next/static/css/app.css", "/_next/static/js/app.js"},
		ImportantEndpoints: []string{
			"/api/events/recent", "/api/users/recent", "/api/events", "/api/categories",
		},
	}
}

// LoadRouteRules reads rule overrides from a yaml file, falling back to the
// defaults when the file does not exist. Only non-empty fields override.
func LoadRouteRules(path string) (*RouteRules, error) {
	rules := DefaultRouteRules()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return nil, fmt.Errorf("failed to read route rules %s: %w", path, err)
	}

	var overrides RouteRules
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse route rules %s: %w", path, err)
	}

	if overrides.APIPrefix != "" {
		rules.APIPrefix = overrides.APIPrefix
	}
	if len(overrides.OfflinePages) > 0 {
		rules.OfflinePages = overrides.OfflinePages
	}
	if len(overrides.StaticExtensions) > 0 {
		rules.StaticExtensions = normalizeExtensions(overrides.StaticExtensions)
	}
	if len(overrides.StaticPrefixes) > 0 {
		rules.StaticPrefixes = overrides.StaticPrefixes
	}
	if len(overrides.CriticalAssets) > 0 {
		rules.CriticalAssets = overrides.CriticalAssets
	}
	if len(overrides.ShellAssets) > 0 {
		rules.ShellAssets = overrides.ShellAssets
	}
	if len(overrides.ImportantEndpoints) > 0 {
		rules.ImportantEndpoints = overrides.ImportantEndpoints
	}

	return rules, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, strings.ToLower(ext))
	}
	return out
}
