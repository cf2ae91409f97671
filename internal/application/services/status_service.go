package services

import (
	syncentities "github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/network"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/queue"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/status"
)

// StatusService assembles the sync status surface the UI reads.
type StatusService struct {
	statusRepo *status.Repository
	queueRepo  *queue.Repository
	monitor    *network.Monitor
}

// StatusSnapshot is the combined connectivity and staleness view.
type StatusSnapshot struct {
	Online  bool `json:"online"`
	Syncing bool `json:"syncing"`
	syncentities.SyncStatus
	PendingMutations int `json:"pendingMutations"`
	FailedMutations  int `json:"failedMutations"`
}

// NewStatusService creates the status surface.
func NewStatusService(statusRepo *status.Repository, queueRepo *queue.Repository, monitor *network.Monitor) *StatusService {
	return &StatusService{
		statusRepo: statusRepo,
		queueRepo:  queueRepo,
		monitor:    monitor,
	}
}

// Snapshot returns the current status record.
func (s *StatusService) Snapshot() (*StatusSnapshot, error) {
	syncStatus, err := s.statusRepo.Get()
	if err != nil {
		return nil, err
	}

	pending, failed, err := s.queueRepo.Counts()
	if err != nil {
		return nil, err
	}

	return &StatusSnapshot{
		Online:           s.monitor.Online(),
		Syncing:          s.monitor.Syncing(),
		SyncStatus:       *syncStatus,
		PendingMutations: pending,
		FailedMutations:  failed,
	}, nil
}
