package models

import "time"

// Settlement is the immutable once-per-match outcome record. Its existence
// for a match id is what makes repeated settlement calls idempotent: the
// coordinator checks for it inside the same transaction that would write it.
type Settlement struct {
	MatchID  string `gorm:"primaryKey;type:uuid" json:"match_id"`
	Winner   string `gorm:"type:varchar(8);not null" json:"winner"`
	GameMode string `gorm:"type:varchar(16);not null" json:"game_mode"`

	// Set only for human-vs-AI matches.
	AIDifficulty *string `gorm:"type:varchar(16)" json:"ai_difficulty,omitempty"`
	AIRating     *int    `json:"ai_rating,omitempty"`

	// Participants holds the exact ParticipantSummary array returned to the
	// caller, serialized as JSON. Replayed verbatim on repeat calls.
	Participants []byte `gorm:"type:jsonb;not null" json:"participants"`

	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}
