package constants

// Broadcast event names consumed by the web client
const (
	EventCharacterUpdated        = "characterUpdated"
	EventCharacterUpdatedForUser = "characterUpdatedForUser"
	EventStatsChanged            = "statsChanged"
	EventStatsUpdated            = "statsUpdated"
)

// Leaderboard types
const (
	LeaderboardDaily   = "24h"
	LeaderboardAllTime = "allTime"
	LeaderboardCountry = "country"
)

// SyntheticSessionPrefix marks session ids generated by the scheduler.
const SyntheticSessionPrefix = "algo_"

// LeaderboardLimit is the number of rows returned by the top-N leaderboards.
const LeaderboardLimit = 10
