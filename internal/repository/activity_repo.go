package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnpulse-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

const activityColumns = `id, kind, title, description, video_url, thumbnail_url, difficulty,
	total_duration_seconds, required_engaged_seconds, gems_reward, reward_schedule,
	entry_price_gems, starts_at, ends_at, active, attempt_count, created_at, updated_at`

func scanActivity(row interface{ Scan(dest ...any) error }, a *models.Activity) error {
	return row.Scan(
		&a.ID, &a.Kind, &a.Title, &a.Description, &a.VideoURL, &a.ThumbnailURL, &a.Difficulty,
		&a.TotalDurationSeconds, &a.RequiredEngagedSeconds, &a.GemsReward, &a.RewardScheduleJSON,
		&a.EntryPriceGems, &a.StartsAt, &a.EndsAt, &a.Active, &a.AttemptCount, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *ActivityRepo) Create(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (id, kind, title, description, video_url, thumbnail_url, difficulty,
			total_duration_seconds, required_engaged_seconds, gems_reward, reward_schedule,
			entry_price_gems, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	a.ID = uuid.New()
	a.Active = true

	return r.pool.QueryRow(ctx, query,
		a.ID, a.Kind, a.Title, a.Description, a.VideoURL, a.ThumbnailURL, a.Difficulty,
		a.TotalDurationSeconds, a.RequiredEngagedSeconds, a.GemsReward, a.RewardScheduleJSON,
		a.EntryPriceGems, a.StartsAt, a.EndsAt, a.Active,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *ActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	a := &models.Activity{}
	err := scanActivity(r.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id), a)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the catalog, newest first. An empty kind matches all kinds;
// activeOnly hides deactivated activities from non-admin callers.
func (r *ActivityRepo) List(ctx context.Context, kind string, activeOnly bool) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE ($1 = '' OR kind = $1) AND (NOT $2 OR active)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, kind, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		if err := scanActivity(rows, &a); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListWithProgress returns active activities joined with the caller's
// progress, so the catalog can show completion and reward state inline.
func (r *ActivityRepo) ListWithProgress(ctx context.Context, userID uuid.UUID, kind string) ([]models.ActivityStatus, error) {
	query := `
		SELECT a.id, a.kind, a.title, a.description, a.video_url, a.thumbnail_url, a.difficulty,
			a.total_duration_seconds, a.required_engaged_seconds, a.gems_reward, a.reward_schedule,
			a.entry_price_gems, a.starts_at, a.ends_at, a.active, a.attempt_count, a.created_at, a.updated_at,
			COALESCE(p.accumulated_seconds, 0),
			COALESCE(p.completed, FALSE),
			COALESCE(p.reward_granted, FALSE),
			COALESCE(p.reward_amount, 0)
		FROM activities a
		LEFT JOIN progress_records p ON p.activity_id = a.id AND p.user_id = $1
		WHERE a.active AND ($2 = '' OR a.kind = $2)
		ORDER BY a.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make([]models.ActivityStatus, 0)
	for rows.Next() {
		var s models.ActivityStatus
		if err := rows.Scan(
			&s.ID, &s.Kind, &s.Title, &s.Description, &s.VideoURL, &s.ThumbnailURL, &s.Difficulty,
			&s.TotalDurationSeconds, &s.RequiredEngagedSeconds, &s.GemsReward, &s.RewardScheduleJSON,
			&s.EntryPriceGems, &s.StartsAt, &s.EndsAt, &s.Active, &s.AttemptCount, &s.CreatedAt, &s.UpdatedAt,
			&s.AccumulatedSeconds, &s.Completed, &s.RewardGranted, &s.GemsEarned,
		); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// Update rewrites an activity's configuration. Activities with recorded
// attempts are immutable; the update reports false without touching them.
func (r *ActivityRepo) Update(ctx context.Context, a *models.Activity) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE activities SET kind = $2, title = $3, description = $4, video_url = $5,
			thumbnail_url = $6, difficulty = $7, total_duration_seconds = $8,
			required_engaged_seconds = $9, gems_reward = $10, reward_schedule = $11,
			entry_price_gems = $12, starts_at = $13, ends_at = $14, updated_at = NOW()
		WHERE id = $1 AND attempt_count = 0`,
		a.ID, a.Kind, a.Title, a.Description, a.VideoURL,
		a.ThumbnailURL, a.Difficulty, a.TotalDurationSeconds,
		a.RequiredEngagedSeconds, a.GemsReward, a.RewardScheduleJSON,
		a.EntryPriceGems, a.StartsAt, a.EndsAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetActive is the one mutation allowed after attempts exist.
func (r *ActivityRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx, "UPDATE activities SET active = $1, updated_at = NOW() WHERE id = $2", active, id)
	return err
}

func (r *ActivityRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE activities SET attempt_count = attempt_count + 1 WHERE id = $1", id)
	return err
}

// Delete removes an activity that was never attempted.
func (r *ActivityRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM activities WHERE id = $1 AND attempt_count = 0", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
