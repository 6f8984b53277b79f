package repository

import (
	"context"
	"errors"

	"match-settlement-system/models"
)

// ErrNotFound is returned by store lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Tx is the read/write context handed to one unit of work. Every load and
// mutation belonging to a single settlement goes through one Tx so the
// backing store can give all-or-nothing semantics.
type Tx interface {
	Matches() MatchStore
	Ratings() RatingStore
	Profiles() ProfileStore
	Ledger() LedgerStore
	Settlements() SettlementStore
	Config() ConfigStore
}

// Runner executes a unit of work as one atomic transaction, transparently
// retrying on storage-level conflicts. Callbacks must be safe to re-run:
// they re-read all state on every attempt.
type Runner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type MatchStore interface {
	Get(id string) (*models.Match, error)
	MarkRankingProcessed(id string) error
}

type RatingStore interface {
	Get(userID string) (*models.PlayerRating, error)
	Save(r *models.PlayerRating) error
}

type ProfileStore interface {
	Get(userID string) (*models.PlayerProfile, error)
	SetGoldBalance(userID string, balance int64) error
}

type LedgerStore interface {
	Append(e *models.GoldLedgerEntry) error
	ListByUser(userID string, limit int) ([]models.GoldLedgerEntry, error)
}

type SettlementStore interface {
	Get(matchID string) (*models.Settlement, error)
	Create(s *models.Settlement) error
}

type ConfigStore interface {
	Get(key string) (string, error)
	Ensure(key, value string) error
}
