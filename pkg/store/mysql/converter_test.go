package mysql

import (
	"testing"
	"time"

	domain "clickboard/internal/model"
	"clickboard/pkg/config"
	"clickboard/pkg/store/mysql/model"

	"github.com/stretchr/testify/assert"
)

func TestToCharacterSummary(t *testing.T) {
	assert.Nil(t, ToCharacterSummary(nil))

	updated := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	summary := ToCharacterSummary(&model.Character{
		ID:          "c1",
		Name:        "Alpha",
		AvatarURL:   "/public/avatars/a.png",
		TotalPoints: -3,
		TotalPlus:   2,
		TotalMinus:  5,
		UpdatedAt:   updated,
	})
	assert.Equal(t, &domain.CharacterSummary{
		ID:          "c1",
		Name:        "Alpha",
		AvatarURL:   "/public/avatars/a.png",
		TotalPoints: -3,
		TotalPlus:   2,
		TotalMinus:  5,
		UpdatedAt:   updated,
	}, summary)
}

func TestFromDelta(t *testing.T) {
	row := FromDelta(domain.Delta{
		CharacterID:   "c1",
		Region:        domain.Region{Name: "Japan", Code: "JP"},
		SessionID:     "algo_1",
		PositiveCount: 4,
		NegativeCount: 6,
		NetChange:     -2,
	})
	assert.Equal(t, "c1", row.CharacterID)
	assert.Equal(t, "algo_1", row.SessionID)
	assert.Equal(t, "Japan", row.Country)
	assert.Equal(t, "JP", row.CountryCode)
	assert.Equal(t, 4, row.TotalPlus)
	assert.Equal(t, 6, row.TotalMinus)
	assert.Equal(t, -2, row.PointsChange)
	assert.Empty(t, row.ID)
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	got := DayOf(time.Date(2026, 5, 2, 3, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.MySQLConfig{Host: "db", Port: 3306, User: "app", Password: "secret", Database: "clickboard"})
	assert.Equal(t, "app:secret@tcp(db:3306)/clickboard?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
