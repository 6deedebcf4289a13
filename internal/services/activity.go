package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"learnpulse-backend/internal/engine"
	"learnpulse-backend/internal/models"
	"learnpulse-backend/internal/repository"
)

type ActivityService struct {
	activities *repository.ActivityRepo
	video      *VideoService
}

func NewActivityService(activities *repository.ActivityRepo, video *VideoService) *ActivityService {
	return &ActivityService{activities: activities, video: video}
}

func (s *ActivityService) Create(ctx context.Context, req models.CreateActivityRequest) (*models.Activity, error) {
	activity := models.Activity{
		Kind:                   req.Kind,
		Title:                  req.Title,
		Description:            req.Description,
		VideoURL:               req.VideoURL,
		Difficulty:             req.Difficulty,
		TotalDurationSeconds:   req.TotalDurationSeconds,
		RequiredEngagedSeconds: req.RequiredEngagedSeconds,
		GemsReward:             req.GemsReward,
		RewardScheduleJSON:     req.RewardScheduleJSON,
		EntryPriceGems:         req.EntryPriceGems,
		StartsAt:               req.StartsAt,
		EndsAt:                 req.EndsAt,
	}
	if activity.Difficulty == "" {
		activity.Difficulty = "easy"
	}

	// Lessons sourced from YouTube get duration, thumbnail, and a title
	// fallback from the video itself.
	if activity.Kind == models.KindLesson && activity.VideoURL != nil && s.video != nil {
		meta, err := s.video.Lookup(*activity.VideoURL)
		if err != nil {
			log.Printf("Video lookup for %q failed: %v", *activity.VideoURL, err)
		} else {
			if activity.TotalDurationSeconds == 0 {
				activity.TotalDurationSeconds = meta.DurationSeconds
			}
			if activity.Title == "" {
				activity.Title = meta.Title
			}
			if meta.ThumbnailURL != "" {
				thumb := meta.ThumbnailURL
				activity.ThumbnailURL = &thumb
			}
		}
	}

	if err := s.validate(activity); err != nil {
		return nil, err
	}
	if err := s.activities.Create(ctx, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *ActivityService) Get(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Activity not found"}
		}
		return nil, err
	}
	return activity, nil
}

// List returns the full catalog for admins, active only for users.
func (s *ActivityService) List(ctx context.Context, kind string, includeInactive bool) ([]models.Activity, error) {
	if err := validKind(kind, true); err != nil {
		return nil, err
	}
	return s.activities.List(ctx, kind, !includeInactive)
}

// Catalog returns active activities with the caller's progress attached.
func (s *ActivityService) Catalog(ctx context.Context, userID uuid.UUID, kind string) ([]models.ActivityStatus, error) {
	if err := validKind(kind, true); err != nil {
		return nil, err
	}
	return s.activities.ListWithProgress(ctx, userID, kind)
}

// Update rewrites configuration. Attempted activities are immutable; only
// SetActive can touch them.
func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, req models.CreateActivityRequest) (*models.Activity, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	activity.Kind = req.Kind
	activity.Title = req.Title
	activity.Description = req.Description
	activity.VideoURL = req.VideoURL
	activity.Difficulty = req.Difficulty
	activity.TotalDurationSeconds = req.TotalDurationSeconds
	activity.RequiredEngagedSeconds = req.RequiredEngagedSeconds
	activity.GemsReward = req.GemsReward
	activity.RewardScheduleJSON = req.RewardScheduleJSON
	activity.EntryPriceGems = req.EntryPriceGems
	activity.StartsAt = req.StartsAt
	activity.EndsAt = req.EndsAt

	if err := s.validate(*activity); err != nil {
		return nil, err
	}

	updated, err := s.activities.Update(ctx, activity)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, &ConflictError{Message: "Activity has recorded attempts and can no longer be edited"}
	}
	return activity, nil
}

func (s *ActivityService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.activities.SetActive(ctx, id, active)
}

func (s *ActivityService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.activities.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &ConflictError{Message: "Activity has recorded attempts and cannot be deleted"}
	}
	return nil
}

func (s *ActivityService) validate(a models.Activity) error {
	fieldErrors := make(map[string]string)

	if err := validKind(a.Kind, false); err != nil {
		fieldErrors["kind"] = "Kind must be lesson, practice, or competition"
	}
	if a.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	switch a.Difficulty {
	case "easy", "medium", "hard":
	default:
		fieldErrors["difficulty"] = "Difficulty must be easy, medium, or hard"
	}
	if a.Kind == models.KindCompetition && a.StartsAt != nil && a.EndsAt != nil && !a.EndsAt.After(*a.StartsAt) {
		fieldErrors["ends_at"] = "Competition must end after it starts"
	}

	// The engine's own checks cover durations and reward configuration.
	if err := engine.ValidateActivity(a); err != nil {
		var cfgErr *engine.ConfigurationError
		if errors.As(err, &cfgErr) {
			fieldErrors["configuration"] = cfgErr.Message
		} else {
			return err
		}
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}

func validKind(kind string, allowEmpty bool) error {
	switch kind {
	case models.KindLesson, models.KindPractice, models.KindCompetition:
		return nil
	case "":
		if allowEmpty {
			return nil
		}
	}
	return &ValidationError{Fields: map[string]string{"kind": "Unknown activity kind"}}
}
