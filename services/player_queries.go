package services

import (
	"context"
	"errors"

	"match-settlement-system/models"
	"match-settlement-system/repository"
)

// RatingFor returns the caller's leaderboard record. Players who never
// settled a match get a defaulted view; no row is created.
func (s *SettlementService) RatingFor(ctx context.Context, userID string) (*models.PlayerRating, error) {
	var out *models.PlayerRating
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		rec, err := tx.Ratings().Get(userID)
		if errors.Is(err, repository.ErrNotFound) {
			out = &models.PlayerRating{
				UserID: userID,
				Rating: models.DefaultRating,
				Tier:   TierFor(models.DefaultRating),
				Season: SeasonFor(s.now()),
			}
			return nil
		}
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecentLedger returns the caller's most recent gold credits, newest first.
func (s *SettlementService) RecentLedger(ctx context.Context, userID string, limit int) ([]models.GoldLedgerEntry, error) {
	entries := []models.GoldLedgerEntry{}
	err := s.repo.InTx(ctx, func(tx repository.Tx) error {
		list, err := tx.Ledger().ListByUser(userID, limit)
		if err != nil {
			return err
		}
		entries = append(entries, list...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureRewardConfig seeds the gold reward unit row if absent so deployments
// can tune it at runtime without a migration.
func (s *SettlementService) EnsureRewardConfig(ctx context.Context, defaultValue string) error {
	return s.repo.InTx(ctx, func(tx repository.Tx) error {
		return tx.Config().Ensure(models.ConfigKeyMatchGoldReward, defaultValue)
	})
}
