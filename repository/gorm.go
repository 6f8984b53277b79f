package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"match-settlement-system/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTxAttempts = 5

// GormRunner runs units of work as serializable Postgres transactions and
// retries attempts the database aborts for concurrency reasons. Two
// settlement attempts for the same match therefore cannot both observe
// "no settlement record": one of them is rolled back and re-run, re-reads
// the record the other wrote, and short-circuits.
type GormRunner struct {
	db *gorm.DB
}

func NewGormRunner(db *gorm.DB) *GormRunner {
	return &GormRunner{db: db}
}

func (r *GormRunner) InTx(ctx context.Context, fn func(tx Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTx{db: tx})
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
		log.Printf("[TX] serialization conflict, retrying (attempt %d/%d)", attempt, maxTxAttempts)
	}
	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

// isSerializationFailure reports whether Postgres aborted the attempt due to
// a serialization failure (40001) or deadlock (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Matches() MatchStore { return &gormMatchStore{db: t.db} }
func (t *gormTx) Ratings() RatingStore { return &gormRatingStore{db: t.db} }
func (t *gormTx) Profiles() ProfileStore { return &gormProfileStore{db: t.db} }
func (t *gormTx) Ledger() LedgerStore { return &gormLedgerStore{db: t.db} }
func (t *gormTx) Settlements() SettlementStore { return &gormSettlementStore{db: t.db} }
func (t *gormTx) Config() ConfigStore { return &gormConfigStore{db: t.db} }

type gormMatchStore struct{ db *gorm.DB }

func (s *gormMatchStore) Get(id string) (*models.Match, error) {
	var m models.Match
	if err := s.db.First(&m, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &m, nil
}

func (s *gormMatchStore) MarkRankingProcessed(id string) error {
	return s.db.Model(&models.Match{}).Where("id = ?", id).
		Update("ranking_processed", true).Error
}

type gormRatingStore struct{ db *gorm.DB }

func (s *gormRatingStore) Get(userID string) (*models.PlayerRating, error) {
	var r models.PlayerRating
	if err := s.db.First(&r, "user_id = ?", userID).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &r, nil
}

func (s *gormRatingStore) Save(r *models.PlayerRating) error {
	return s.db.Save(r).Error
}

type gormProfileStore struct{ db *gorm.DB }

func (s *gormProfileStore) Get(userID string) (*models.PlayerProfile, error) {
	var p models.PlayerProfile
	if err := s.db.First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *gormProfileStore) SetGoldBalance(userID string, balance int64) error {
	profile := models.PlayerProfile{
		ID:          uuid.NewString(),
		UserID:      userID,
		GoldBalance: balance,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"gold_balance", "updated_at"}),
	}).Create(&profile).Error
}

type gormLedgerStore struct{ db *gorm.DB }

func (s *gormLedgerStore) Append(e *models.GoldLedgerEntry) error {
	return s.db.Create(e).Error
}

func (s *gormLedgerStore) ListByUser(userID string, limit int) ([]models.GoldLedgerEntry, error) {
	var entries []models.GoldLedgerEntry
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

type gormSettlementStore struct{ db *gorm.DB }

func (s *gormSettlementStore) Get(matchID string) (*models.Settlement, error) {
	var rec models.Settlement
	if err := s.db.First(&rec, "match_id = ?", matchID).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &rec, nil
}

func (s *gormSettlementStore) Create(rec *models.Settlement) error {
	return s.db.Create(rec).Error
}

type gormConfigStore struct{ db *gorm.DB }

func (s *gormConfigStore) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.First(&cfg, "key = ?", key).Error; err != nil {
		return "", mapNotFound(err)
	}
	return cfg.Value, nil
}

func (s *gormConfigStore) Ensure(key, value string) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SystemConfig{Key: key, Value: value}).Error
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
