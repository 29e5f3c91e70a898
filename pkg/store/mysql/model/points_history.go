package model

import "time"

// PointsHistory MySQL model for points_history table.
// One row per (session, character, country, day); clicks are folded into it.
type PointsHistory struct {
	ID           string    `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	CharacterID  string    `gorm:"column:character_id;type:char(36);not null;uniqueIndex:uk_session_character_country_day,priority:2;index:idx_character_id" json:"character_id"`
	SessionID    string    `gorm:"column:session_id;type:varchar(128);not null;uniqueIndex:uk_session_character_country_day,priority:1" json:"session_id"`
	Country      string    `gorm:"column:country;type:varchar(100);not null;default:''" json:"country"`
	CountryCode  string    `gorm:"column:country_code;type:varchar(8);not null;default:'';uniqueIndex:uk_session_character_country_day,priority:3" json:"country_code"`
	Day          time.Time `gorm:"column:day;type:date;not null;uniqueIndex:uk_session_character_country_day,priority:4;index:idx_day" json:"day"`
	TotalPlus    int       `gorm:"column:total_plus;type:int;not null;default:0" json:"total_plus"`
	TotalMinus   int       `gorm:"column:total_minus;type:int;not null;default:0" json:"total_minus"`
	PointsChange int       `gorm:"column:points_change;type:int;not null;default:0" json:"points_change"`
	CreatedAt    time.Time `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3);index:idx_updated_at" json:"updated_at"`
}

// TableName returns the table name for PointsHistory
func (PointsHistory) TableName() string {
	return "points_history"
}
