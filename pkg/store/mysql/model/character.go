package model

import (
	"time"

	"gorm.io/gorm"
)

// Character MySQL model for characters table
type Character struct {
	ID            string         `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Name          string         `gorm:"column:name;type:varchar(255);not null" json:"name"`
	AvatarURL     string         `gorm:"column:avatar_url;type:varchar(500);not null;default:''" json:"avatar_url"`
	HateAvatarURL string         `gorm:"column:hate_avatar_url;type:varchar(500);not null;default:''" json:"hate_avatar_url"`
	LoveAvatarURL string         `gorm:"column:love_avatar_url;type:varchar(500);not null;default:''" json:"love_avatar_url"`
	HeadAvatarURL string         `gorm:"column:head_avatar_url;type:varchar(500);not null;default:''" json:"head_avatar_url"`
	TotalPoints   int            `gorm:"column:total_points;type:int;not null;default:0;index:idx_total_points" json:"total_points"`
	TotalPlus     int            `gorm:"column:total_plus;type:int;not null;default:0" json:"total_plus"`
	TotalMinus    int            `gorm:"column:total_minus;type:int;not null;default:0" json:"total_minus"`
	CreatedAt     time.Time      `gorm:"column:created_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;type:datetime(3);not null;default:CURRENT_TIMESTAMP(3)" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;type:datetime(3);index:idx_deleted_at" json:"-"`
}

// TableName returns the table name for Character
func (Character) TableName() string {
	return "characters"
}
