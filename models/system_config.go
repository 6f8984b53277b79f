package models

// ConfigKeyMatchGoldReward holds the per-match gold unit R: the winner is
// credited R and the loser R/2 (integer floor). Missing, non-numeric or
// negative values mean no gold is granted.
const ConfigKeyMatchGoldReward = "match_gold_reward"

// SystemConfig is a runtime-tunable key/value setting row.
type SystemConfig struct {
	Key   string `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value string `gorm:"type:varchar(256)" json:"value"`
}
