package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnpulse-backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// GetByUser returns the user's wallet. Users earn their wallet with the
// first settled reward; before that a zero-balance view is returned.
func (r *WalletRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, gems_balance, updated_at
		FROM wallets WHERE user_id = $1`,
		userID,
	).Scan(&w.ID, &w.UserID, &w.GemsBalance, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.Wallet{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Ledger lists the user's reward history, newest first.
func (r *WalletRepo) Ledger(ctx context.Context, userID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.wallet_id, l.amount, l.entry_type, l.ref_type, l.ref_id, l.created_at
		FROM wallet_ledger l
		JOIN wallets w ON w.id = l.wallet_id
		WHERE w.user_id = $1
		ORDER BY l.created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0)
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Amount, &e.EntryType, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Leaderboard returns one competition's standings ordered by gems earned,
// fastest average answer breaking ties.
func (r *WalletRepo) Leaderboard(ctx context.Context, activityID uuid.UUID, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT cl.user_id, u.full_name, cl.gems_earned, cl.correct_total, cl.avg_time_ms, cl.updated_at
		FROM competition_leaderboard cl
		JOIN users u ON u.id = cl.user_id
		WHERE cl.activity_id = $1
		ORDER BY cl.gems_earned DESC, cl.avg_time_ms ASC
		LIMIT $2`,
		activityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FullName, &e.GemsEarned, &e.CorrectTotal, &e.AvgTimeMs, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
