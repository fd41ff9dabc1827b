package matching

import (
	"context"

	managerRepo "tidymatch/database/repository/manager"
	matchingRepo "tidymatch/database/repository/matching"
	reservationRepo "tidymatch/database/repository/reservation"
	"tidymatch/models"
	"tidymatch/services/notification"

	"github.com/go-redis/redis/v8"
)

// CreateOptions carries per-call parameters for CreateRequest.
type CreateOptions struct {
	// ManagerID is the operator-designated candidate. Required in MANUAL
	// mode, ignored in AUTO mode.
	ManagerID string
}

// Service is the matching lifecycle engine: request creation, candidate
// responses, consumer finalization.
type Service interface {
	CreateRequest(ctx context.Context, reservationID string, mode models.MatchingMode, opts CreateOptions) (*models.MatchingRequest, error)
	GetRequest(ctx context.Context, requestID string) (*models.MatchingRequest, error)
	ListRequests(ctx context.Context, reservationID string) ([]models.MatchingRequest, error)
	RecordCandidateResponse(ctx context.Context, requestID, managerID string, accept bool, reason string) (*models.CandidateEntry, error)
	ResolveConsumerDecision(ctx context.Context, requestID, managerID string, confirm bool, reason string) (*models.MatchingRequest, error)
}

// Config carries the engine's operational knobs.
type Config struct {
	// Fanout is the number of top-ranked candidates requested in AUTO mode.
	Fanout int
	// SearchRadiusKm bounds the eligibility geo query.
	SearchRadiusKm float64
	// RankCacheTTLSec is how long a ranked candidate list stays cached.
	RankCacheTTLSec int
}

// DefaultMatchingService is the production implementation.
type DefaultMatchingService struct {
	ReservationRepo reservationRepo.Repository
	ManagerRepo     managerRepo.Repository
	MatchingRepo    matchingRepo.Repository
	Registry        CriterionRegistry
	Notifier        notification.Service
	Retry           RetryController
	CacheClient     *redis.Client // optional; nil disables the rank cache
	Cfg             Config
}
