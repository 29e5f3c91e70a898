package model

import "time"

// Direction is the sign of a single interaction.
type Direction int

const (
	Positive Direction = iota + 1
	Negative
)

func (d Direction) String() string {
	switch d {
	case Positive:
		return "thumbsUp"
	case Negative:
		return "middleFinger"
	default:
		return "unknown"
	}
}

// Sign returns +1 for Positive and -1 for Negative.
func (d Direction) Sign() int {
	if d == Negative {
		return -1
	}
	return 1
}

// Entity is the scheduler's view of a character: identity only.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClickScenario is one entity's synthetic workload in one region for one cycle.
type ClickScenario struct {
	Count     int       `json:"count"`
	Direction Direction `json:"direction"`
}

// Delta is an aggregated change for one (character, region) pair, applied in one write.
type Delta struct {
	CharacterID   string `json:"characterId"`
	Region        Region `json:"region"`
	SessionID     string `json:"sessionId"`
	PositiveCount int    `json:"totalPlus"`
	NegativeCount int    `json:"totalMinus"`
	NetChange     int    `json:"pointsChange"`
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return d.PositiveCount == 0 && d.NegativeCount == 0 && d.NetChange == 0
}

// CharacterSummary is the broadcast payload describing a character's totals.
type CharacterSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatarUrl"`
	HateAvatarURL string    `json:"hateAvatarUrl"`
	LoveAvatarURL string    `json:"loveAvatarUrl"`
	HeadAvatarURL string    `json:"headAvatarUrl"`
	TotalPoints   int       `json:"totalPoints"`
	TotalPlus     int       `json:"totalPlus"`
	TotalMinus    int       `json:"totalMinus"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PointsRow is one aggregated line of a stats or leaderboard query.
type PointsRow struct {
	CharacterID   string `json:"characterId,omitempty"`
	CharacterName string `json:"characterName,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	Country       string `json:"country,omitempty"`
	CountryCode   string `json:"countryCode,omitempty"`
	TotalPoints   int    `json:"totalPoints"`
	TotalPlus     int    `json:"totalPlus"`
	TotalMinus    int    `json:"totalMinus"`
}

// Stats is the payload of the statsChanged event and the stats endpoint.
type Stats struct {
	DailyPoints       []PointsRow `json:"dailyPoints"`
	OverallPoints     []PointsRow `json:"overallPoints"`
	CountryWisePoints []PointsRow `json:"countryWisePoints"`
}

// SessionPoints is a character's totals as seen by one session.
type SessionPoints struct {
	PointsRow
	SessionID string `json:"sessionId"`
}
