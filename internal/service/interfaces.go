package service

import (
	"context"
	"errors"
	"time"

	"clickboard/internal/model"
	"clickboard/pkg/broadcast"
	"clickboard/pkg/store/mysql"
	mysqlModel "clickboard/pkg/store/mysql/model"
	redisstore "clickboard/pkg/store/redis"
)

var (
	// ErrInvalidInput is returned for requests that can never succeed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCharacterNotFound is returned when the character does not exist.
	ErrCharacterNotFound = mysql.ErrCharacterNotFound
	// ErrUnknownLeaderboard is returned for an unsupported leaderboard type.
	ErrUnknownLeaderboard = errors.New("unknown leaderboard type")
)

type characterRepository interface {
	ListCharacters(ctx context.Context) ([]*mysqlModel.Character, error)
	GetCharacter(ctx context.Context, id string) (*mysqlModel.Character, error)
	CreateCharacter(ctx context.Context, character *mysqlModel.Character) error
	AddCharacterTotals(ctx context.Context, id string, plus, minus, net int) error
	TopCharacters(ctx context.Context, limit int) ([]*mysqlModel.Character, error)
}

type pointsRepository interface {
	UpsertDailyPoints(ctx context.Context, row *mysqlModel.PointsHistory) error
	DailyPoints(ctx context.Context, since time.Time, limit int) ([]model.PointsRow, error)
	OverallPoints(ctx context.Context, limit int) ([]model.PointsRow, error)
	CountryPoints(ctx context.Context, limit int) ([]model.PointsRow, error)
	SessionPoints(ctx context.Context, characterID, sessionID string) (*model.PointsRow, error)
	SessionTotalsSince(ctx context.Context, sessionID string, since time.Time) (map[string]model.PointsRow, error)
	TotalPoints(ctx context.Context) (int64, error)
}

type txRunner interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type characterCache interface {
	GetCharacters(ctx context.Context) ([]*model.CharacterSummary, bool, error)
	SetCharacters(ctx context.Context, characters []*model.CharacterSummary) error
	Invalidate(ctx context.Context, boardTypes ...string) error
}

type leaderboardCache interface {
	GetLeaderboard(ctx context.Context, boardType string) ([]model.PointsRow, bool, error)
	SetLeaderboard(ctx context.Context, boardType string, rows []model.PointsRow) error
}

type broadcaster interface {
	Broadcast(event string, payload interface{})
	BroadcastToSession(sessionID, event string, payload interface{})
}

// compile-time assertions

var (
	_ characterRepository = (*mysql.CharacterRepository)(nil)
	_ pointsRepository    = (*mysql.PointsRepository)(nil)
	_ txRunner            = (*mysql.Datastore)(nil)
	_ characterCache      = (*redisstore.CacheRepository)(nil)
	_ leaderboardCache    = (*redisstore.CacheRepository)(nil)
	_ broadcaster         = (*broadcast.Hub)(nil)
)
