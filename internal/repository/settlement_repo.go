package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnpulse-backend/internal/engine"
	"learnpulse-backend/internal/models"
)

// SettlementRepo is the durable half of the reward gate. One transaction
// writes the session result, flips the progress record's reward_granted
// flag, credits the wallet with a ledger entry, and bumps the competition
// leaderboard. The session_results primary key makes retried settlements
// observable as duplicates instead of double credits.
type SettlementRepo struct {
	pool *pgxpool.Pool
}

func NewSettlementRepo(pool *pgxpool.Pool) *SettlementRepo {
	return &SettlementRepo{pool: pool}
}

func (r *SettlementRepo) Settle(ctx context.Context, s engine.Settlement) (*models.SessionResult, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &models.SessionResult{
		SessionID:         s.SessionID,
		UserID:            s.UserID,
		ActivityID:        s.ActivityID,
		Score:             s.Score,
		TotalQuestions:    s.TotalQuestions,
		TimeSpentSeconds:  s.TimeSpentSeconds,
		TerminationReason: s.Reason,
	}

	// Reward starts at zero; it is raised below only if this transaction
	// wins the reward_granted flip.
	err = tx.QueryRow(ctx, `
		INSERT INTO session_results (session_id, user_id, activity_id, score, total_questions,
			reward_earned, time_spent_seconds, termination_reason)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING created_at`,
		s.SessionID, s.UserID, s.ActivityID, s.Score, s.TotalQuestions,
		s.TimeSpentSeconds, s.Reason,
	).Scan(&result.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already settled. Return the stored result untouched.
		stored, lookupErr := resultBySession(ctx, tx, s.SessionID)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return nil, false, commitErr
		}
		return stored, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert session result: %w", err)
	}

	if s.RewardAmount > 0 {
		granted, grantErr := r.grant(ctx, tx, s)
		if grantErr != nil {
			return nil, false, grantErr
		}
		if granted {
			result.RewardEarned = s.RewardAmount
			if _, err := tx.Exec(ctx,
				"UPDATE session_results SET reward_earned = $1 WHERE session_id = $2",
				s.RewardAmount, s.SessionID,
			); err != nil {
				return nil, false, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit settlement: %w", err)
	}
	return result, false, nil
}

// grant flips reward_granted and credits the wallet. The conditional
// update is the gate: losing it means this activity already paid out, so
// the session settles with no reward.
func (r *SettlementRepo) grant(ctx context.Context, tx pgx.Tx, s engine.Settlement) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE progress_records
		SET reward_granted = TRUE, reward_amount = $3, last_update_at = NOW()
		WHERE user_id = $1 AND activity_id = $2 AND reward_granted = FALSE`,
		s.UserID, s.ActivityID, s.RewardAmount,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	var walletID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO wallets (id, user_id, gems_balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET gems_balance = wallets.gems_balance + EXCLUDED.gems_balance, updated_at = NOW()
		RETURNING id`,
		uuid.New(), s.UserID, s.RewardAmount,
	).Scan(&walletID)
	if err != nil {
		return false, fmt.Errorf("credit wallet: %w", err)
	}

	entryType := models.LedgerPracticeReward
	if s.ActivityKind == models.KindCompetition {
		entryType = models.LedgerCompetitionReward
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO wallet_ledger (id, wallet_id, amount, entry_type, ref_type, ref_id)
		VALUES ($1, $2, $3, $4, 'session_result', $5)`,
		uuid.New(), walletID, s.RewardAmount, entryType, s.SessionID,
	); err != nil {
		return false, fmt.Errorf("append ledger: %w", err)
	}

	if s.ActivityKind == models.KindCompetition {
		avgMs := 0
		if s.TotalQuestions > 0 {
			avgMs = s.TimeSpentSeconds * 1000 / s.TotalQuestions
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO competition_leaderboard (activity_id, user_id, gems_earned, correct_total, avg_time_ms)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (activity_id, user_id) DO UPDATE
			SET gems_earned = competition_leaderboard.gems_earned + EXCLUDED.gems_earned,
				correct_total = competition_leaderboard.correct_total + EXCLUDED.correct_total,
				avg_time_ms = (competition_leaderboard.avg_time_ms + EXCLUDED.avg_time_ms) / 2,
				updated_at = NOW()`,
			s.ActivityID, s.UserID, s.RewardAmount, s.Score, avgMs,
		); err != nil {
			return false, fmt.Errorf("update leaderboard: %w", err)
		}
	}

	return true, nil
}

func (r *SettlementRepo) ResultBySession(ctx context.Context, sessionID uuid.UUID) (*models.SessionResult, error) {
	return resultBySession(ctx, r.pool, sessionID)
}

// ResultsForUser lists a user's settled sessions, newest first.
func (r *SettlementRepo) ResultsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, user_id, activity_id, score, total_questions, reward_earned,
			time_spent_seconds, termination_reason, created_at
		FROM session_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.SessionResult, 0)
	for rows.Next() {
		var res models.SessionResult
		if err := rows.Scan(
			&res.SessionID, &res.UserID, &res.ActivityID, &res.Score, &res.TotalQuestions,
			&res.RewardEarned, &res.TimeSpentSeconds, &res.TerminationReason, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func resultBySession(ctx context.Context, q queryRower, sessionID uuid.UUID) (*models.SessionResult, error) {
	res := &models.SessionResult{}
	err := q.QueryRow(ctx, `
		SELECT session_id, user_id, activity_id, score, total_questions, reward_earned,
			time_spent_seconds, termination_reason, created_at
		FROM session_results
		WHERE session_id = $1`,
		sessionID,
	).Scan(
		&res.SessionID, &res.UserID, &res.ActivityID, &res.Score, &res.TotalQuestions,
		&res.RewardEarned, &res.TimeSpentSeconds, &res.TerminationReason, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}
