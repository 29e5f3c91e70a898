package service

import (
	"context"
	"fmt"

	"clickboard/internal/model"
	"clickboard/pkg/constants"
	"clickboard/pkg/logger"

	"k8s.io/utils/clock"
)

// LeaderboardService serves the top-10 boards through a short-lived cache.
type LeaderboardService struct {
	characters characterRepository
	points     pointsRepository
	cache      leaderboardCache
	clock      clock.PassiveClock
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(characters characterRepository, points pointsRepository, cache leaderboardCache) *LeaderboardService {
	return &LeaderboardService{
		characters: characters,
		points:     points,
		cache:      cache,
		clock:      clock.RealClock{},
	}
}

// GetLeaderboard returns the board of the given type: 24h, allTime or country.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, boardType string) ([]model.PointsRow, error) {
	switch boardType {
	case constants.LeaderboardDaily, constants.LeaderboardAllTime, constants.LeaderboardCountry:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLeaderboard, boardType)
	}

	if s.cache != nil {
		rows, ok, err := s.cache.GetLeaderboard(ctx, boardType)
		if err != nil {
			logger.WarnCtx(ctx, "leaderboard cache read failed: %v", err)
		} else if ok {
			return rows, nil
		}
	}

	rows, err := s.load(ctx, boardType)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, boardType, rows); err != nil {
			logger.WarnCtx(ctx, "leaderboard cache write failed: %v", err)
		}
	}
	return rows, nil
}

func (s *LeaderboardService) load(ctx context.Context, boardType string) ([]model.PointsRow, error) {
	var (
		rows []model.PointsRow
		err  error
	)
	switch boardType {
	case constants.LeaderboardDaily:
		rows, err = s.points.DailyPoints(ctx, s.clock.Now().Add(-statsWindow), constants.LeaderboardLimit)
	case constants.LeaderboardCountry:
		rows, err = s.points.CountryPoints(ctx, constants.LeaderboardLimit)
	default:
		characters, listErr := s.characters.TopCharacters(ctx, constants.LeaderboardLimit)
		err = listErr
		for _, c := range characters {
			rows = append(rows, model.PointsRow{
				CharacterID:   c.ID,
				CharacterName: c.Name,
				AvatarURL:     c.AvatarURL,
				TotalPoints:   c.TotalPoints,
				TotalPlus:     c.TotalPlus,
				TotalMinus:    c.TotalMinus,
			})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s leaderboard: %w", boardType, err)
	}
	return nonNil(rows), nil
}

// Warm recomputes every board and refreshes the cache.
func (s *LeaderboardService) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	for _, boardType := range []string{constants.LeaderboardDaily, constants.LeaderboardAllTime, constants.LeaderboardCountry} {
		rows, err := s.load(ctx, boardType)
		if err != nil {
			return err
		}
		if err := s.cache.SetLeaderboard(ctx, boardType, rows); err != nil {
			return fmt.Errorf("cache %s leaderboard: %w", boardType, err)
		}
	}
	return nil
}
