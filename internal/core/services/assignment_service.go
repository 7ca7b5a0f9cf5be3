package services

import (
	"context"
	"sync"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/core/domain"
)

// AssignmentService owns workload distribution: round-robin over active
// brokers for new policy intake, least-load over approving managers for
// review assignment. The cursor is instance state, not a package global,
// so each test gets its own ring.
type AssignmentService struct {
	brokerRepo  *repositories.BrokerRepository
	managerRepo *repositories.ManagerRepository

	mu     sync.Mutex
	cursor int
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	brokerRepo *repositories.BrokerRepository,
	managerRepo *repositories.ManagerRepository,
) *AssignmentService {
	return &AssignmentService{
		brokerRepo:  brokerRepo,
		managerRepo: managerRepo,
	}
}

// NextBroker returns the next broker in the round-robin ring. The ring is
// the list of active brokers ordered by creation date; the cursor survives
// membership changes by wrapping on the current ring size.
func (s *AssignmentService) NextBroker(ctx context.Context) (*models.Broker, error) {
	brokers, err := s.brokerRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(brokers) == 0 {
		return nil, domain.ErrNoBrokersAvailable
	}

	s.mu.Lock()
	idx := s.cursor % len(brokers)
	s.cursor = idx + 1
	s.mu.Unlock()

	return brokers[idx], nil
}

// LeastLoadedManager returns the approving manager with the fewest open
// (pending or under-review) assignments. Ties go to the manager listed
// first, which keeps selection deterministic.
func (s *AssignmentService) LeastLoadedManager(ctx context.Context) (*models.Manager, error) {
	managers, err := s.managerRepo.ListApprovers(ctx)
	if err != nil {
		return nil, err
	}
	if len(managers) == 0 {
		return nil, domain.ErrNoManagersAvailable
	}

	var best *models.Manager
	var bestLoad int64
	for _, m := range managers {
		load, err := s.managerRepo.CountOpenAssignments(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if best == nil || load < bestLoad {
			best = m
			bestLoad = load
		}
	}

	return best, nil
}
