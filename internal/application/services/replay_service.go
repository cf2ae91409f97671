package services

import (
	"context"
	"fmt"
	"net/http"
	gosync "sync"

	"github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/queue"
)

// ReplayService drains the offline mutation queue against the origin API.
// At most one replay runs at a time; a second trigger while one is in
// flight returns immediately.
type ReplayService struct {
	queue      *queue.Repository
	origin     *origin.Client
	logger     *logging.ChanneledLogger
	maxRetries int

	mu gosync.Mutex
}

// ReplayResult summarizes one replay pass.
type ReplayResult struct {
	Replayed int `json:"replayed"`
	Deferred int `json:"deferred"`
	Failed   int `json:"failed"`
}

// NewReplayService creates the replay routine.
func NewReplayService(queueRepo *queue.Repository, originClient *origin.Client, maxRetries int, logger *logging.ChanneledLogger) *ReplayService {
	return &ReplayService{
		queue:      queueRepo,
		origin:     originClient,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Replay processes pending mutations in enqueue order. A failed mutation
// keeps its position, and later mutations for the same logical resource
// are deferred behind it so per-record ordering is never violated.
func (s *ReplayService) Replay(ctx context.Context) (ReplayResult, error) {
	if !s.mu.TryLock() {
		s.logger.Queue().Debug("Replay already in flight, skipping trigger")
		return ReplayResult{}, nil
	}
	defer s.mu.Unlock()

	pending, err := s.queue.Pending()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("failed to load pending mutations: %w", err)
	}
	if len(pending) == 0 {
		return ReplayResult{}, nil
	}

	s.logger.Queue().Info("Replaying offline mutations", "pending", len(pending))

	var result ReplayResult
	blocked := make(map[string]struct{})

	for _, mutation := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		resource := mutation.ResourceKey()
		if _, isBlocked := blocked[resource]; isBlocked {
			result.Deferred++
			continue
		}

		if err := s.replayOne(ctx, mutation); err != nil {
			s.logger.Queue().Warn("Mutation replay failed",
				"id", mutation.ID, "resource", resource, "error", err.Error())
			blocked[resource] = struct{}{}

			newStatus, recordErr := s.queue.RecordFailure(mutation.ID, err, s.maxRetries)
			if recordErr != nil {
				s.logger.Queue().Error("Failed to record replay failure", "id", mutation.ID, "error", recordErr.Error())
			}
			if newStatus == sync.StatusFailed {
				result.Failed++
			}
			continue
		}

		if err := s.queue.Remove(mutation.ID); err != nil {
			s.logger.Queue().Error("Failed to remove replayed mutation", "id", mutation.ID, "error", err.Error())
			blocked[resource] = struct{}{}
			continue
		}
		result.Replayed++
	}

	s.logger.Queue().Info("Replay pass finished",
		"replayed", result.Replayed, "deferred", result.Deferred, "failed", result.Failed)
	return result, nil
}

// replayOne issues the API call corresponding to one mutation.
func (s *ReplayService) replayOne(ctx context.Context, mutation *sync.Mutation) error {
	var method, path string
	switch mutation.Kind {
	case sync.KindCreate:
		method = http.MethodPost
		path = "/api/" + mutation.Collection
	case sync.KindUpdate:
		method = http.MethodPut
		path = "/api/" + mutation.Collection + "/" + mutation.RecordID
	case sync.KindDelete:
		method = http.MethodDelete
		path = "/api/" + mutation.Collection + "/" + mutation.RecordID
	default:
		return fmt.Errorf("unknown mutation kind %q", mutation.Kind)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	entry, err := s.origin.Fetch(ctx, method, path, header, mutation.Payload)
	if err != nil {
		return err
	}
	if entry.Status >= http.StatusBadRequest {
		return fmt.Errorf("origin rejected mutation with status %d", entry.Status)
	}
	return nil
}
