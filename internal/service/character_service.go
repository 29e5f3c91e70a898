package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clickboard/internal/model"
	"clickboard/pkg/constants"
	"clickboard/pkg/logger"
	"clickboard/pkg/store/mysql"
	mysqlModel "clickboard/pkg/store/mysql/model"

	"k8s.io/utils/clock"
)

const statsWindow = 24 * time.Hour

// CharacterService owns character reads and every points write, synthetic or
// user-driven.
type CharacterService struct {
	characters characterRepository
	points     pointsRepository
	tx         txRunner
	cache      characterCache
	hub        broadcaster
	clock      clock.PassiveClock
}

// NewCharacterService creates a new character service. cache may be nil.
func NewCharacterService(characters characterRepository, points pointsRepository, tx txRunner, cache characterCache, hub broadcaster) *CharacterService {
	return &CharacterService{
		characters: characters,
		points:     points,
		tx:         tx,
		cache:      cache,
		hub:        hub,
		clock:      clock.RealClock{},
	}
}

// ListEntities returns the id and name of every character.
func (s *CharacterService) ListEntities(ctx context.Context) ([]model.Entity, error) {
	characters, err := s.characters.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	entities := make([]model.Entity, 0, len(characters))
	for _, c := range characters {
		entities = append(entities, mysql.ToEntity(c))
	}
	return entities, nil
}

// ApplyDelta folds an aggregated delta into the session's daily row and the
// character totals in one transaction, and returns the updated character.
func (s *CharacterService) ApplyDelta(ctx context.Context, delta model.Delta) (*model.CharacterSummary, error) {
	if err := validateDelta(delta); err != nil {
		return nil, err
	}

	row := mysql.FromDelta(delta)
	row.Day = s.clock.Now()

	var updated *mysqlModel.Character
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.points.UpsertDailyPoints(ctx, row); err != nil {
			return err
		}
		if err := s.characters.AddCharacterTotals(ctx, delta.CharacterID, delta.PositiveCount, delta.NegativeCount, delta.NetChange); err != nil {
			return err
		}
		c, err := s.characters.GetCharacter(ctx, delta.CharacterID)
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply delta to character %s: %w", delta.CharacterID, err)
	}

	s.invalidate(ctx)
	return mysql.ToCharacterSummary(updated), nil
}

func validateDelta(d model.Delta) error {
	switch {
	case d.CharacterID == "":
		return fmt.Errorf("%w: character id is required", ErrInvalidInput)
	case d.SessionID == "":
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	case d.PositiveCount < 0 || d.NegativeCount < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidInput)
	case d.NetChange != d.PositiveCount-d.NegativeCount:
		return fmt.Errorf("%w: net change %d does not match %d-%d", ErrInvalidInput, d.NetChange, d.PositiveCount, d.NegativeCount)
	}
	return nil
}

func (s *CharacterService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.WarnCtx(ctx, "failed to invalidate character cache: %v", err)
	}
}

// allCharacters reads the character list through the cache.
func (s *CharacterService) allCharacters(ctx context.Context) ([]*model.CharacterSummary, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetCharacters(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "character cache read failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	characters, err := s.characters.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.CharacterSummary, 0, len(characters))
	for _, c := range characters {
		out = append(out, mysql.ToCharacterSummary(c))
	}

	if s.cache != nil {
		if err := s.cache.SetCharacters(ctx, out); err != nil {
			logger.WarnCtx(ctx, "character cache write failed: %v", err)
		}
	}
	return out, nil
}

// ListCharacters returns every character. With a session id the totals are
// those the session produced over the last 24 hours.
func (s *CharacterService) ListCharacters(ctx context.Context, sessionID string) ([]*model.CharacterSummary, error) {
	characters, err := s.allCharacters(ctx)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return characters, nil
	}

	totals, err := s.points.SessionTotalsSince(ctx, sessionID, s.clock.Now().Add(-statsWindow))
	if err != nil {
		return nil, err
	}

	out := make([]*model.CharacterSummary, 0, len(characters))
	for _, c := range characters {
		view := *c
		row := totals[c.ID]
		view.TotalPoints = row.TotalPoints
		view.TotalPlus = row.TotalPlus
		view.TotalMinus = row.TotalMinus
		out = append(out, &view)
	}
	return out, nil
}

// UpdateCharacterPoints records a single click from a real session and
// announces the change.
func (s *CharacterService) UpdateCharacterPoints(ctx context.Context, id string, increment bool, country, countryCode, sessionID string) (*model.CharacterSummary, error) {
	if strings.HasPrefix(sessionID, constants.SyntheticSessionPrefix) {
		return nil, fmt.Errorf("%w: session id prefix %q is reserved", ErrInvalidInput, constants.SyntheticSessionPrefix)
	}

	delta := model.Delta{
		CharacterID: id,
		Region:      resolveRegion(country, countryCode),
		SessionID:   sessionID,
	}
	if increment {
		delta.PositiveCount, delta.NetChange = 1, 1
	} else {
		delta.NegativeCount, delta.NetChange = 1, -1
	}

	summary, err := s.ApplyDelta(ctx, delta)
	if err != nil {
		return nil, err
	}

	s.hub.Broadcast(constants.EventCharacterUpdated, summary)
	s.announceStats(ctx)
	if points, err := s.CharacterPoints(ctx, id, sessionID); err == nil {
		s.hub.BroadcastToSession(sessionID, constants.EventCharacterUpdatedForUser, map[string]interface{}{"points": points})
	} else {
		logger.WarnCtx(ctx, "failed to load session points for %s: %v", id, err)
	}
	return summary, nil
}

// resolveRegion prefers the catalog entry for a known code.
func resolveRegion(country, code string) model.Region {
	code = strings.ToUpper(strings.TrimSpace(code))
	if r, ok := model.RegionByCode(code); ok {
		return r
	}
	return model.Region{Name: country, Code: code}
}

// announceStats broadcasts statsChanged and statsUpdated.
func (s *CharacterService) announceStats(ctx context.Context) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to load stats for broadcast: %v", err)
	} else {
		s.hub.Broadcast(constants.EventStatsChanged, stats)
	}

	total, err := s.points.TotalPoints(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to sum points for broadcast: %v", err)
		return
	}
	s.hub.Broadcast(constants.EventStatsUpdated, map[string]int64{"totalPoints": total})
}

// BatchItem is one character's accumulated clicks in a batch update.
type BatchItem struct {
	CharacterID  string `json:"characterId"`
	TotalPlus    int    `json:"totalPlus"`
	TotalMinus   int    `json:"totalMinus"`
	PointsChange int    `json:"pointsChange"`
	LastUpdate   int64  `json:"lastUpdate"`
}

// BatchUpdate is a client-side buffer of clicks flushed in one request.
type BatchUpdate struct {
	SessionID   string      `json:"sessionId"`
	Country     string      `json:"country"`
	CountryCode string      `json:"countryCode"`
	Points      []BatchItem `json:"points"`
}

// BatchResult reports which items were applied.
type BatchResult struct {
	Updated []*model.CharacterSummary `json:"updated"`
	Failed  []string                  `json:"failed"`
}

// BatchUpdatePoints applies one delta per item. A failing item does not stop
// the others.
func (s *CharacterService) BatchUpdatePoints(ctx context.Context, req BatchUpdate) (*BatchResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if strings.HasPrefix(req.SessionID, constants.SyntheticSessionPrefix) {
		return nil, fmt.Errorf("%w: session id prefix %q is reserved", ErrInvalidInput, constants.SyntheticSessionPrefix)
	}

	region := resolveRegion(req.Country, req.CountryCode)
	result := &BatchResult{Updated: []*model.CharacterSummary{}, Failed: []string{}}
	for _, item := range req.Points {
		if item.TotalPlus == 0 && item.TotalMinus == 0 {
			continue
		}
		summary, err := s.ApplyDelta(ctx, model.Delta{
			CharacterID:   item.CharacterID,
			Region:        region,
			SessionID:     req.SessionID,
			PositiveCount: item.TotalPlus,
			NegativeCount: item.TotalMinus,
			NetChange:     item.PointsChange,
		})
		if err != nil {
			logger.WarnCtx(ctx, "batch update of character %s failed: %v", item.CharacterID, err)
			result.Failed = append(result.Failed, item.CharacterID)
			continue
		}
		result.Updated = append(result.Updated, summary)
		s.hub.Broadcast(constants.EventCharacterUpdated, summary)
	}

	if len(result.Updated) > 0 {
		s.announceStats(ctx)
	}
	return result, nil
}

// GetStats aggregates daily, overall and per-country points.
func (s *CharacterService) GetStats(ctx context.Context) (*model.Stats, error) {
	daily, err := s.points.DailyPoints(ctx, s.clock.Now().Add(-statsWindow), 0)
	if err != nil {
		return nil, err
	}
	overall, err := s.points.OverallPoints(ctx, 0)
	if err != nil {
		return nil, err
	}
	countries, err := s.points.CountryPoints(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &model.Stats{
		DailyPoints:       nonNil(daily),
		OverallPoints:     nonNil(overall),
		CountryWisePoints: nonNil(countries),
	}, nil
}

func nonNil(rows []model.PointsRow) []model.PointsRow {
	if rows == nil {
		return []model.PointsRow{}
	}
	return rows
}

// CharacterPoints returns what one session contributed to a character.
func (s *CharacterService) CharacterPoints(ctx context.Context, id, sessionID string) (*model.SessionPoints, error) {
	character, err := s.characters.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &model.SessionPoints{
		PointsRow: model.PointsRow{
			CharacterID:   character.ID,
			CharacterName: character.Name,
			AvatarURL:     character.AvatarURL,
		},
		SessionID: sessionID,
	}
	if sessionID == "" {
		return out, nil
	}

	row, err := s.points.SessionPoints(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		out.TotalPoints = row.TotalPoints
		out.TotalPlus = row.TotalPlus
		out.TotalMinus = row.TotalMinus
	}
	return out, nil
}

// CreateCharacterInput describes a new character. Missing variant avatars
// default to the main avatar.
type CreateCharacterInput struct {
	Name          string `json:"name"`
	AvatarURL     string `json:"avatarUrl"`
	HateAvatarURL string `json:"hateAvatarUrl"`
	LoveAvatarURL string `json:"loveAvatarUrl"`
	HeadAvatarURL string `json:"headAvatarUrl"`
}

// CreateCharacter stores a new character.
func (s *CharacterService) CreateCharacter(ctx context.Context, in CreateCharacterInput) (*model.CharacterSummary, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.AvatarURL == "" {
		return nil, fmt.Errorf("%w: avatarUrl is required", ErrInvalidInput)
	}

	character := &mysqlModel.Character{
		Name:          name,
		AvatarURL:     in.AvatarURL,
		HateAvatarURL: firstNonEmpty(in.HateAvatarURL, in.AvatarURL),
		LoveAvatarURL: firstNonEmpty(in.LoveAvatarURL, in.AvatarURL),
		HeadAvatarURL: firstNonEmpty(in.HeadAvatarURL, in.AvatarURL),
	}
	if err := s.characters.CreateCharacter(ctx, character); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	logger.InfoCtx(ctx, "character %s created (%s)", character.ID, character.Name)
	return mysql.ToCharacterSummary(character), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
