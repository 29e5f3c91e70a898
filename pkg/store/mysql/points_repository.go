package mysql

import (
	"context"
	"fmt"
	"time"

	domain "clickboard/internal/model"
	"clickboard/pkg/store/mysql/model"

	"github.com/google/uuid"
)

// PointsRepository handles the daily points history in MySQL
type PointsRepository struct {
	ds *Datastore
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(ds *Datastore) *PointsRepository {
	return &PointsRepository{ds: ds}
}

// UpsertDailyPoints adds the row's counters to the daily row of its
// (session, character, country, day) key, creating it on first use.
func (r *PointsRepository) UpsertDailyPoints(ctx context.Context, row *model.PointsHistory) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	err := r.ds.DB(ctx).Exec(`
		INSERT INTO points_history
			(id, character_id, session_id, country, country_code, day, total_plus, total_minus, points_change, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP(3), CURRENT_TIMESTAMP(3))
		ON DUPLICATE KEY UPDATE
			total_plus = total_plus + VALUES(total_plus),
			total_minus = total_minus + VALUES(total_minus),
			points_change = points_change + VALUES(points_change),
			country = VALUES(country),
			updated_at = CURRENT_TIMESTAMP(3)
	`, row.ID, row.CharacterID, row.SessionID, row.Country, row.CountryCode, DayOf(row.Day),
		row.TotalPlus, row.TotalMinus, row.PointsChange).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily points for character %s: %w", row.CharacterID, err)
	}
	return nil
}

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const characterPointsSelect = `
	h.character_id AS character_id,
	c.name AS character_name,
	c.avatar_url AS avatar_url,
	COALESCE(SUM(h.points_change), 0) AS total_points,
	COALESCE(SUM(h.total_plus), 0) AS total_plus,
	COALESCE(SUM(h.total_minus), 0) AS total_minus`

// DailyPoints aggregates per character over rows touched since the given time.
// A limit <= 0 returns every character.
func (r *PointsRepository) DailyPoints(ctx context.Context, since time.Time, limit int) ([]domain.PointsRow, error) {
	query := r.ds.DB(ctx).
		Table("points_history AS h").
		Select(characterPointsSelect).
		Joins("JOIN characters AS c ON c.id = h.character_id AND c.deleted_at IS NULL").
		Where("h.updated_at >= ?", since).
		Group("h.character_id, c.name, c.avatar_url").
		Order("total_points DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []domain.PointsRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate daily points: %w", err)
	}
	return rows, nil
}

// OverallPoints aggregates the whole history per character.
func (r *PointsRepository) OverallPoints(ctx context.Context, limit int) ([]domain.PointsRow, error) {
	query := r.ds.DB(ctx).
		Table("points_history AS h").
		Select(characterPointsSelect).
		Joins("JOIN characters AS c ON c.id = h.character_id AND c.deleted_at IS NULL").
		Group("h.character_id, c.name, c.avatar_url").
		Order("total_points DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []domain.PointsRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate overall points: %w", err)
	}
	return rows, nil
}

// CountryPoints aggregates the whole history per country.
func (r *PointsRepository) CountryPoints(ctx context.Context, limit int) ([]domain.PointsRow, error) {
	query := r.ds.DB(ctx).
		Table("points_history").
		Select(`country, country_code,
			COALESCE(SUM(points_change), 0) AS total_points,
			COALESCE(SUM(total_plus), 0) AS total_plus,
			COALESCE(SUM(total_minus), 0) AS total_minus`).
		Where("country_code <> ''").
		Group("country, country_code").
		Order("total_points DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []domain.PointsRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate country points: %w", err)
	}
	return rows, nil
}

// SessionPoints returns one character's totals for one session, or nil when
// the session never touched it.
func (r *PointsRepository) SessionPoints(ctx context.Context, characterID, sessionID string) (*domain.PointsRow, error) {
	var rows []domain.PointsRow
	err := r.ds.DB(ctx).
		Table("points_history").
		Select(`character_id,
			COALESCE(SUM(points_change), 0) AS total_points,
			COALESCE(SUM(total_plus), 0) AS total_plus,
			COALESCE(SUM(total_minus), 0) AS total_minus`).
		Where("character_id = ? AND session_id = ?", characterID, sessionID).
		Group("character_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session points: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// SessionTotalsSince returns a session's totals per character since the given time.
func (r *PointsRepository) SessionTotalsSince(ctx context.Context, sessionID string, since time.Time) (map[string]domain.PointsRow, error) {
	var rows []domain.PointsRow
	err := r.ds.DB(ctx).
		Table("points_history").
		Select(`character_id,
			COALESCE(SUM(points_change), 0) AS total_points,
			COALESCE(SUM(total_plus), 0) AS total_plus,
			COALESCE(SUM(total_minus), 0) AS total_minus`).
		Where("session_id = ? AND updated_at >= ?", sessionID, since).
		Group("character_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session totals: %w", err)
	}

	out := make(map[string]domain.PointsRow, len(rows))
	for _, row := range rows {
		out[row.CharacterID] = row
	}
	return out, nil
}

// TotalPoints sums every points change ever recorded.
func (r *PointsRepository) TotalPoints(ctx context.Context) (int64, error) {
	var total int64
	err := r.ds.DB(ctx).
		Table("points_history").
		Select("COALESCE(SUM(points_change), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}
