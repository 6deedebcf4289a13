package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnpulse-backend/internal/models"
)

// ProgressRepo persists per-user, per-activity engagement. It backs the
// engine's ProgressStore: accumulated_seconds is guarded with GREATEST so
// a stale flush can never move progress backwards, and completed never
// flips back to false.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

func (r *ProgressRepo) GetOrCreate(ctx context.Context, userID, activityID uuid.UUID) (*models.ProgressRecord, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO progress_records (user_id, activity_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, activity_id) DO NOTHING`,
		userID, activityID,
	)
	if err != nil {
		return nil, err
	}

	rec := &models.ProgressRecord{}
	err = r.pool.QueryRow(ctx, `
		SELECT user_id, activity_id, accumulated_seconds, completed, reward_granted,
			reward_amount, degraded, last_update_at, created_at
		FROM progress_records
		WHERE user_id = $1 AND activity_id = $2`,
		userID, activityID,
	).Scan(
		&rec.UserID, &rec.ActivityID, &rec.AccumulatedSeconds, &rec.Completed, &rec.RewardGranted,
		&rec.RewardAmount, &rec.Degraded, &rec.LastUpdateAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ProgressRepo) SaveProgress(ctx context.Context, userID, activityID uuid.UUID, accumulatedSeconds int, completed bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE progress_records
		SET accumulated_seconds = GREATEST(accumulated_seconds, $3),
			completed = completed OR $4,
			last_update_at = NOW()
		WHERE user_id = $1 AND activity_id = $2`,
		userID, activityID, accumulatedSeconds, completed,
	)
	return err
}

func (r *ProgressRepo) MarkDegraded(ctx context.Context, userID, activityID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE progress_records SET degraded = TRUE, last_update_at = NOW()
		WHERE user_id = $1 AND activity_id = $2`,
		userID, activityID,
	)
	return err
}
