package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/status"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// RefreshService keeps the offline snapshot warm. It runs only when
// triggered (by message or by the network monitor), never on an internal
// timer.
type RefreshService struct {
	cache      interfaces.Cache
	origin     *origin.Client
	classifier *ClassifierService
	statusRepo *status.Repository
	logger     *logging.ChanneledLogger

	recentLimit   int
	pageStaleness time.Duration
}

// NewRefreshService creates the refresh job.
func NewRefreshService(cache interfaces.Cache, originClient *origin.Client, classifier *ClassifierService, statusRepo *status.Repository, logger *logging.ChanneledLogger) *RefreshService {
	return &RefreshService{
		cache:         cache,
		origin:        originClient,
		classifier:    classifier,
		statusRepo:    statusRepo,
		logger:        logger,
		recentLimit:   config.RecentFetchLimit,
		pageStaleness: config.PageStalenessInterval,
	}
}

// RefreshAll re-fetches the configured important endpoints. Installed-app
// (PWA) mode fetches only the lightweight set; full browser mode walks
// the recent listings warming each detail endpoint. Every fetch is
// independently best-effort: one bad record never aborts the batch.
func (s *RefreshService) RefreshAll(ctx context.Context, isPWA bool) error {
	start := time.Now()
	mode := "full"
	if isPWA {
		mode = "lite"
	}
	s.logger.Sync().Info("Cache refresh starting", "mode", mode)

	if err := s.statusRepo.SetInProgress(true); err != nil {
		s.logger.Sync().Warn("Failed to mark sync in progress", "error", err.Error())
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	endpoints := s.classifier.ImportantEndpoints()

	if isPWA {
		// The first two endpoints are the lightweight set.
		lite := endpoints
		if len(lite) > 2 {
			lite = lite[:2]
		}
		for _, endpoint := range lite {
			record(s.warmEndpoint(ctx, config.PartitionAPI, s.boundRecent(endpoint)))
		}
	} else {
		for _, endpoint := range endpoints {
			if !isRecentListing(endpoint) {
				record(s.warmEndpoint(ctx, config.PartitionAPI, endpoint))
				continue
			}

			ids, err := s.warmListing(ctx, s.boundRecent(endpoint))
			record(err)
			detailBase := strings.TrimSuffix(endpoint, "/recent")
			for _, id := range ids {
				record(s.warmEndpoint(ctx, config.PartitionDynamic, detailBase+"/"+id))
			}
		}
	}

	if firstErr != nil {
		if err := s.statusRepo.RecordError(firstErr); err != nil {
			s.logger.Sync().Warn("Failed to record sync error", "error", err.Error())
		}
		s.logger.Sync().Warn("Cache refresh finished with failures",
			"mode", mode, "error", firstErr.Error(), "duration", time.Since(start))
		return firstErr
	}

	if err := s.statusRepo.RecordSuccess(time.Now()); err != nil {
		s.logger.Sync().Warn("Failed to record sync success", "error", err.Error())
	}
	s.logger.Sync().Info("Cache refresh completed", "mode", mode, "duration", time.Since(start))
	return nil
}

// isRecentListing marks endpoints whose items get their detail pages
// walked by a full refresh.
func isRecentListing(endpoint string) bool {
	return strings.HasSuffix(endpoint, "/recent")
}

// boundRecent appends the recent-slice limit to listing endpoints.
func (s *RefreshService) boundRecent(endpoint string) string {
	if isRecentListing(endpoint) {
		return fmt.Sprintf("%s?limit=%d", endpoint, s.recentLimit)
	}
	return endpoint
}

// warmEndpoint fetches one endpoint and stores a stamped copy.
func (s *RefreshService) warmEndpoint(ctx context.Context, class config.PartitionClass, endpoint string) error {
	entry, err := s.origin.Get(ctx, endpoint)
	if err != nil {
		s.logger.Sync().Debug("Refresh fetch failed", "endpoint", endpoint, "error", err.Error())
		return err
	}
	if entry.Status != http.StatusOK {
		return nil
	}

	key := http.MethodGet + " " + endpoint
	if err := s.cache.StampAndStore(class, key, entry); err != nil {
		s.logger.Cache().Error("Failed to store refreshed endpoint", "endpoint", endpoint, "error", err.Error())
		return err
	}
	if _, err := s.cache.Maintain(class); err != nil {
		s.logger.Cache().Error("Maintenance failed after refresh write", "class", string(class), "error", err.Error())
	}
	return nil
}

// warmListing warms a listing endpoint and returns the record ids found
// in its body, so the caller can walk the detail endpoints.
func (s *RefreshService) warmListing(ctx context.Context, endpoint string) ([]string, error) {
	entry, err := s.origin.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if entry.Status != http.StatusOK {
		return nil, nil
	}

	key := http.MethodGet + " " + endpoint
	if err := s.cache.StampAndStore(config.PartitionAPI, key, entry); err != nil {
		s.logger.Cache().Error("Failed to store listing", "endpoint", endpoint, "error", err.Error())
	}

	return extractIDs(entry.Body), nil
}

// extractIDs pulls "id" fields out of a JSON listing body. Accepts either
// a bare array or an object wrapping one under "data", "events", "users"
// or "items".
func extractIDs(body []byte) []string {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil
		}
		for _, field := range []string{"data", "events", "users", "items"} {
			if raw, ok := wrapper[field]; ok {
				if err := json.Unmarshal(raw, &items); err == nil {
					break
				}
			}
		}
	}

	var ids []string
	for _, item := range items {
		switch id := item["id"].(type) {
		case string:
			if id != "" {
				ids = append(ids, id)
			}
		case float64:
			ids = append(ids, fmt.Sprintf("%.0f", id))
		}
	}
	return ids
}

// RefreshPages re-fetches offline-eligible navigation pages, skipping any
// whose cached copy is younger than the staleness threshold so frequent
// triggers do not cause redundant network use.
func (s *RefreshService) RefreshPages(ctx context.Context) {
	for _, page := range s.classifier.OfflinePages() {
		key := http.MethodGet + " " + page

		if cached, found := s.cache.Lookup(config.PartitionPages, key); found {
			if s.cache.AgeOf(cached) < s.pageStaleness {
				continue
			}
		}

		entry, err := s.origin.Get(ctx, page)
		if err != nil || entry.Status != http.StatusOK {
			continue
		}
		if err := s.cache.StampAndStore(config.PartitionPages, key, entry); err != nil {
			s.logger.Cache().Error("Failed to store refreshed page", "page", page, "error", err.Error())
		}
	}

	if _, err := s.cache.Maintain(config.PartitionPages); err != nil {
		s.logger.Cache().Error("Maintenance failed after page refresh", "error", err.Error())
	}
}
