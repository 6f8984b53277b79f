package models

import (
	"time"

	"gorm.io/gorm"
)

// Rating tiers — coarse display brackets over the numeric rating.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
	TierDiamond  = "diamond"
)

const (
	MinRating     = 100.0
	DefaultRating = 1200.0
)

// PlayerRating is the per-account leaderboard record. Created lazily with
// defaults on a player's first settlement and mutated only by the
// settlement transaction, once per match per participant.
// Invariants: Rating >= MinRating, GamesPlayed == Wins + Losses.
type PlayerRating struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"uniqueIndex;not null" json:"user_id"`
	Rating      float64    `gorm:"not null;default:1200" json:"rating"`
	GamesPlayed int        `gorm:"default:0" json:"games_played"`
	Wins        int        `gorm:"default:0" json:"wins"`
	Losses      int        `gorm:"default:0" json:"losses"`
	LastMatchAt *time.Time `json:"last_match_at,omitempty"`

	// Display fields cached from the profile mirror at settlement time.
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`

	Tier   string `gorm:"type:varchar(16)" json:"tier"`
	Season string `gorm:"type:varchar(8);index" json:"season"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
