package mysql

import (
	domain "clickboard/internal/model"
	"clickboard/pkg/store/mysql/model"
)

// ToCharacterSummary converts a MySQL Character to the domain summary
func ToCharacterSummary(c *model.Character) *domain.CharacterSummary {
	if c == nil {
		return nil
	}
	return &domain.CharacterSummary{
		ID:            c.ID,
		Name:          c.Name,
		AvatarURL:     c.AvatarURL,
		HateAvatarURL: c.HateAvatarURL,
		LoveAvatarURL: c.LoveAvatarURL,
		HeadAvatarURL: c.HeadAvatarURL,
		TotalPoints:   c.TotalPoints,
		TotalPlus:     c.TotalPlus,
		TotalMinus:    c.TotalMinus,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToEntity converts a MySQL Character to the scheduler's entity reference
func ToEntity(c *model.Character) domain.Entity {
	return domain.Entity{ID: c.ID, Name: c.Name}
}

// FromDelta builds the daily history row a delta is folded into
func FromDelta(d domain.Delta) *model.PointsHistory {
	return &model.PointsHistory{
		CharacterID:  d.CharacterID,
		SessionID:    d.SessionID,
		Country:      d.Region.Name,
		CountryCode:  d.Region.Code,
		TotalPlus:    d.PositiveCount,
		TotalMinus:   d.NegativeCount,
		PointsChange: d.NetChange,
	}
}
