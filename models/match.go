package models

// Match lifecycle states, owned by the gameplay service.
const (
	MatchStatusWaiting    = "waiting"
	MatchStatusInProgress = "inprogress"
	MatchStatusFinished   = "finished"
	MatchStatusCanceled   = "canceled"
)

const (
	GameModeOnline = "online"
	GameModePvAI   = "pvai"
)

// Seat colors. Blue always precedes red in participant output.
const (
	ColorBlue = "blue"
	ColorRed  = "red"
)

// ComputerOpponentID is the sentinel the gameplay service stores in a seat
// occupied by the built-in AI instead of a human account id.
const ComputerOpponentID = "ai"

// Match records a single two-player session (PvP or vs AI).
// This service only reads it and flips RankingProcessed once settled.
type Match struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	BluePlayerID string  `gorm:"index;not null" json:"blue_player_id"`
	RedPlayerID  string  `gorm:"index;not null" json:"red_player_id"`
	Status       string  `gorm:"type:varchar(16);not null;check:status IN ('waiting','inprogress','finished','canceled')" json:"status"`
	Winner       string  `gorm:"type:varchar(8)" json:"winner"` // blue | red | "" until finished
	GameMode     string  `gorm:"type:varchar(16);not null;default:'online'" json:"game_mode"`
	AIDifficulty *string `gorm:"type:varchar(16)" json:"ai_difficulty,omitempty"`

	RankingProcessed bool `gorm:"default:false;index" json:"ranking_processed"`

	Timestamps
}
