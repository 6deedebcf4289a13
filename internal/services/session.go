package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"learnpulse-backend/internal/engine"
	"learnpulse-backend/internal/models"
	"learnpulse-backend/internal/repository"
)

// FinalizeQueue is the redis list the teardown beacon pushes onto. The
// settlement worker drains it.
const FinalizeQueue = "queue:session-finalize"

// SessionService fronts the engine for the HTTP layer: it resolves
// activities, counts attempts, and hands teardown beacons to the redis
// queue so the worker can settle them off the request path.
type SessionService struct {
	manager    *engine.Manager
	activities *repository.ActivityRepo
	settlement *repository.SettlementRepo
	redis      *redis.Client
}

func NewSessionService(manager *engine.Manager, activities *repository.ActivityRepo, settlement *repository.SettlementRepo, redisClient *redis.Client) *SessionService {
	return &SessionService{
		manager:    manager,
		activities: activities,
		settlement: settlement,
		redis:      redisClient,
	}
}

func (s *SessionService) Start(ctx context.Context, userID, activityID uuid.UUID) (engine.Snapshot, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return engine.Snapshot{}, &NotFoundError{Message: "Activity not found"}
	}

	session, err := s.manager.Start(ctx, userID, *activity)
	if err != nil {
		return engine.Snapshot{}, err
	}

	// First attempt locks the activity's configuration.
	if err := s.activities.IncrementAttempts(ctx, activityID); err != nil {
		return engine.Snapshot{}, err
	}

	return s.manager.Snapshot(session.ID, userID)
}

func (s *SessionService) Tick(ctx context.Context, sessionID, userID uuid.UUID, deltaSeconds int) (models.TickResponse, error) {
	return s.manager.Tick(ctx, sessionID, userID, deltaSeconds)
}

func (s *SessionService) RecordSignal(ctx context.Context, sessionID, userID uuid.UUID, signalType string) (models.SignalResponse, error) {
	sig := engine.SignalType(signalType)
	if !engine.KnownSignal(sig) {
		return models.SignalResponse{}, &ValidationError{Fields: map[string]string{
			"signal_type": "Unknown signal type",
		}}
	}
	return s.manager.RecordSignal(ctx, sessionID, userID, sig)
}

func (s *SessionService) RecordAnswer(ctx context.Context, sessionID, userID uuid.UUID, correct bool) (models.AnswerResponse, error) {
	return s.manager.RecordAnswer(ctx, sessionID, userID, correct)
}

// Finalize settles a session synchronously. Clients may only claim the
// reasons they can know; abuse and expiry are decided server-side.
func (s *SessionService) Finalize(ctx context.Context, sessionID, userID uuid.UUID, reason string) (*models.SessionResult, error) {
	switch reason {
	case "":
		reason = models.ReasonCompleted
	case models.ReasonCompleted, models.ReasonUserExit:
	default:
		return nil, &ValidationError{Fields: map[string]string{"reason": "Unknown finalize reason"}}
	}
	return s.manager.Finalize(ctx, sessionID, userID, reason)
}

// EnqueueTeardown queues a finalize job from a teardown beacon. Beacons
// fire while the page unloads, so the settlement happens asynchronously
// and the worker retries until it sticks.
func (s *SessionService) EnqueueTeardown(ctx context.Context, sessionID, userID uuid.UUID) error {
	job := models.FinalizeJob{
		SessionID:  sessionID,
		UserID:     userID,
		Reason:     models.ReasonUserExit,
		EnqueuedAt: time.Now(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal finalize job: %w", err)
	}
	return s.redis.LPush(ctx, FinalizeQueue, payload).Err()
}

func (s *SessionService) Snapshot(sessionID, userID uuid.UUID) (engine.Snapshot, error) {
	return s.manager.Snapshot(sessionID, userID)
}

// Results lists the caller's settled sessions.
func (s *SessionService) Results(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionResult, error) {
	return s.settlement.ResultsForUser(ctx, userID, limit)
}
