package models

// PlayerProfile is a local snapshot of profile-service data plus the gold
// balance this service credits from match rewards. Display fields are owned
// by the profile service and refreshed by the sync worker; GoldBalance is
// mutated only inside the settlement transaction.
type PlayerProfile struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"uniqueIndex;not null" json:"user_id"`
	Username    string `gorm:"index" json:"username"`
	AvatarURL   string `json:"avatar_url"`
	GoldBalance int64  `gorm:"default:0" json:"gold_balance"`

	Timestamps
}
